package service

import (
	"strconv"
	"strings"

	"AsteroSync/internal/source"
	"AsteroSync/internal/utils"
)

// Attribution tags who computed an orbit: a software package or a person.
type Attribution int

const (
	AttributionUnknown Attribution = iota
	AttributionSoftware
	AttributionPerson
)

// The attribution column mixes program names and people. Names starting with
// one of these prefixes, or matching one of the exact names, are software;
// everything else is a person.
var (
	softwarePrefixes   = []string{"MPC"}
	softwareExactNames = map[string]struct{}{"orbfit": {}}
)

// ClassifyAttribution decides software vs. person for one attribution name.
func ClassifyAttribution(name string) Attribution {
	name = strings.TrimSpace(name)
	if name == "" {
		return AttributionUnknown
	}
	if _, ok := softwareExactNames[name]; ok {
		return AttributionSoftware
	}
	for _, prefix := range softwarePrefixes {
		if strings.HasPrefix(name, prefix) {
			return AttributionSoftware
		}
	}
	return AttributionPerson
}

// RefDicts holds the run-scoped reference dictionaries. IDs are dense,
// 1-based, assigned on first encounter and never renumbered within a run.
// Only the single resolving goroutine touches them.
type RefDicts struct {
	software      map[string]int64
	softwareOrder []string

	astronomers     map[string]int64
	astronomerOrder []string

	classes    map[string]int64
	classOrder []string
	classDesc  map[string]string

	nextSoftwareID   int64
	nextAstronomerID int64
	nextClassID      int64
}

func NewRefDicts() *RefDicts {
	return &RefDicts{
		software:         make(map[string]int64),
		astronomers:      make(map[string]int64),
		classes:          make(map[string]int64),
		classDesc:        make(map[string]string),
		nextSoftwareID:   1,
		nextAstronomerID: 1,
		nextClassID:      1,
	}
}

// Resolve fills the record's reference IDs, registering dictionary entries on
// first encounter.
func (r *RefDicts) Resolve(rec *source.Record) {
	switch ClassifyAttribution(rec.Computer) {
	case AttributionSoftware:
		rec.SoftwareID = strconv.FormatInt(r.ensureSoftware(rec.Computer), 10)
	case AttributionPerson:
		rec.AstronomerID = strconv.FormatInt(r.ensureAstronomer(rec.Computer), 10)
	}

	code := strings.TrimSpace(rec.ClassCode)
	if code == "" || strings.EqualFold(code, "unclassified") {
		return
	}
	rec.ClassID = strconv.FormatInt(r.ensureClass(code, rec.ClassDesc), 10)
}

func (r *RefDicts) ensureSoftware(name string) int64 {
	if id, ok := r.software[name]; ok {
		return id
	}
	id := r.nextSoftwareID
	r.nextSoftwareID++
	r.software[name] = id
	r.softwareOrder = append(r.softwareOrder, name)
	return id
}

func (r *RefDicts) ensureAstronomer(name string) int64 {
	if id, ok := r.astronomers[name]; ok {
		return id
	}
	id := r.nextAstronomerID
	r.nextAstronomerID++
	r.astronomers[name] = id
	r.astronomerOrder = append(r.astronomerOrder, name)
	return id
}

func (r *RefDicts) ensureClass(code, desc string) int64 {
	if id, ok := r.classes[code]; ok {
		return id
	}
	id := r.nextClassID
	r.nextClassID++
	r.classes[code] = id
	r.classOrder = append(r.classOrder, code)
	if strings.TrimSpace(desc) == "" {
		desc = code
	}
	r.classDesc[code] = desc
	return id
}

// SoftwareRows renders the software dictionary in encounter order.
func (r *RefDicts) SoftwareRows() [][]string {
	rows := make([][]string, 0, len(r.softwareOrder))
	for _, name := range r.softwareOrder {
		id := strconv.FormatInt(r.software[name], 10)
		rows = append(rows, []string{id, utils.CleanText(name), ""})
	}
	return rows
}

// AstronomerRows renders the astronomer dictionary in encounter order.
func (r *RefDicts) AstronomerRows() [][]string {
	rows := make([][]string, 0, len(r.astronomerOrder))
	for _, name := range r.astronomerOrder {
		id := strconv.FormatInt(r.astronomers[name], 10)
		rows = append(rows, []string{id, utils.CleanText(name), ""})
	}
	return rows
}

// ClassRows renders the classification dictionary in encounter order.
func (r *RefDicts) ClassRows() [][]string {
	rows := make([][]string, 0, len(r.classOrder))
	for _, code := range r.classOrder {
		id := strconv.FormatInt(r.classes[code], 10)
		rows = append(rows, []string{id, utils.CleanText(r.classDesc[code]), code})
	}
	return rows
}
