// Package merger is the cross-source stage: it resolves entities between the
// two per-source outputs by normalized match key, propagates the resulting
// identifier maps through the dependent tables, and writes the final unified
// dataset.
package merger

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
)

// Dirs locates the two per-source outputs and the final destination.
type Dirs struct {
	Primary         string
	PrimaryPrefix   string
	Secondary       string
	SecondaryPrefix string
	Output          string
}

// Merger holds the identifier maps built while merging. Classes merge first
// (orbits reference them), then entities, then the dependent tables.
type Merger struct {
	dirs Dirs
	log  *logrus.Entry

	primaryIDMap      map[string]string
	secondaryIDMap    map[string]string
	primaryClassMap   map[string]string
	secondaryClassMap map[string]string
}

func New(dirs Dirs, log *logrus.Entry) *Merger {
	return &Merger{
		dirs:              dirs,
		log:               log.WithField("stage", "merge"),
		primaryIDMap:      make(map[string]string),
		secondaryIDMap:    make(map[string]string),
		primaryClassMap:   make(map[string]string),
		secondaryClassMap: make(map[string]string),
	}
}

// Run executes the merge in dependency order.
func (m *Merger) Run() error {
	if err := m.MergeClasses(); err != nil {
		return fmt.Errorf("merge classes: %w", err)
	}
	if err := m.MergeAsteroids(); err != nil {
		return fmt.Errorf("merge asteroids: %w", err)
	}
	if err := m.MergeOrbits(); err != nil {
		return fmt.Errorf("merge orbits: %w", err)
	}
	if err := m.MergeObservations(); err != nil {
		return fmt.Errorf("merge observations: %w", err)
	}
	if err := m.CopyReferences(); err != nil {
		return fmt.Errorf("copy references: %w", err)
	}
	return nil
}

// PrimaryIDMap exposes the primary old->new entity map (surviving entities
// only).
func (m *Merger) PrimaryIDMap() map[string]string { return m.primaryIDMap }

// SecondaryIDMap exposes the secondary old->new entity map.
func (m *Merger) SecondaryIDMap() map[string]string { return m.secondaryIDMap }

func (m *Merger) sourcePath(dir, prefix, table string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.csv", prefix, table))
}

func (m *Merger) outputPath(table string) string {
	return filepath.Join(m.dirs.Output, table+".csv")
}

// loadOptional loads a per-source table, returning an empty table with the
// given columns when the file does not exist (a source may be absent).
func loadOptional(path string, columns []string) (*sink.Table, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return sink.NewTable(columns), nil
		}
		return nil, err
	}
	return sink.LoadTable(path)
}

// MergeClasses deduplicates the two classification dictionaries on class code
// (keep first), assigns new dense IDs, and records old->new maps per source.
func (m *Merger) MergeClasses() error {
	primary, err := loadOptional(m.sourcePath(m.dirs.Primary, m.dirs.PrimaryPrefix, model.TableClasses), model.ClassColumns)
	if err != nil {
		return err
	}
	secondary, err := loadOptional(m.sourcePath(m.dirs.Secondary, m.dirs.SecondaryPrefix, model.TableClasses), model.ClassColumns)
	if err != nil {
		return err
	}

	byCode := make(map[string]int)
	var order []string
	var descs []string
	for _, t := range []*sink.Table{primary, secondary} {
		for _, row := range t.Rows {
			code := t.Value(row, "CodClasse")
			if code == "" {
				continue
			}
			if _, ok := byCode[code]; !ok {
				byCode[code] = len(order)
				order = append(order, code)
				descs = append(descs, t.Value(row, "Descricao"))
			}
		}
	}

	newID := func(code string) string {
		return strconv.Itoa(byCode[code] + 1)
	}
	mapSource := func(t *sink.Table, dst map[string]string) {
		for _, row := range t.Rows {
			code := t.Value(row, "CodClasse")
			if code == "" {
				continue
			}
			dst[t.Value(row, "IDClasse")] = newID(code)
		}
	}
	mapSource(primary, m.primaryClassMap)
	mapSource(secondary, m.secondaryClassMap)

	out := sink.NewTable(model.ClassColumns)
	for i, code := range order {
		out.Append([]string{strconv.Itoa(i + 1), descs[i], code})
	}
	if err := out.Save(m.outputPath(model.TableClasses)); err != nil {
		return err
	}
	m.log.WithField("classes", len(order)).Info("classes merged")
	return nil
}

// MergeAsteroids is the entity resolution step: group both sources on match
// key, primary wins, secondary fills gaps, new dense IDs in insertion order,
// old->new maps emitted per source for the surviving entities only.
func (m *Merger) MergeAsteroids() error {
	primaryPath := m.sourcePath(m.dirs.Primary, m.dirs.PrimaryPrefix, model.TableAsteroids)
	primary, err := sink.LoadTable(primaryPath)
	if err != nil {
		return fmt.Errorf("primary entities: %w", err)
	}
	secondary, err := loadOptional(m.sourcePath(m.dirs.Secondary, m.dirs.SecondaryPrefix, model.TableAsteroids), model.AsteroidColumns)
	if err != nil {
		return err
	}

	columns := model.AsteroidColumns
	merged := sink.NewTable(columns)
	byKey := make(map[string]int)

	// absorb merges one source into the accumulator and records which
	// merged slot each old ID landed in.
	absorb := func(t *sink.Table, slots map[string]int) int {
		dropped := 0
		for _, row := range t.Rows {
			key := MatchKey(t.Value(row, "number"), t.Value(row, "pdes"), t.Value(row, "name"))
			if !Eligible(key) {
				dropped++
				continue
			}
			idx, ok := byKey[key]
			if !ok {
				normalized := make([]string, len(columns))
				for i, c := range columns {
					normalized[i] = t.Value(row, c)
				}
				idx = len(merged.Rows)
				byKey[key] = idx
				merged.Rows = append(merged.Rows, normalized)
			} else {
				fillGaps(merged.Rows[idx], row, t, columns)
			}
			slots[t.Value(row, "IDAsteroide")] = idx
		}
		return dropped
	}

	primarySlots := make(map[string]int)
	secondarySlots := make(map[string]int)
	droppedPrimary := absorb(primary, primarySlots)
	droppedSecondary := absorb(secondary, secondarySlots)

	idCol := merged.Col("IDAsteroide")
	for i, row := range merged.Rows {
		row[idCol] = strconv.Itoa(i + 1)
	}
	for oldID, idx := range primarySlots {
		m.primaryIDMap[oldID] = strconv.Itoa(idx + 1)
	}
	for oldID, idx := range secondarySlots {
		m.secondaryIDMap[oldID] = strconv.Itoa(idx + 1)
	}

	if err := merged.Save(m.outputPath(model.TableAsteroids)); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"primary":          len(primary.Rows),
		"secondary":        len(secondary.Rows),
		"merged":           len(merged.Rows),
		"without_identity": droppedPrimary + droppedSecondary,
	}).Info("entities merged")
	return nil
}

// fillGaps copies src values into empty dst columns: the earlier source wins,
// the later one only fills what is still missing.
func fillGaps(dst []string, srcRow []string, src *sink.Table, columns []string) {
	for i, c := range columns {
		if dst[i] == "" {
			if v := src.Value(srcRow, c); v != "" {
				dst[i] = v
			}
		}
	}
}

// remapColumn rewrites a foreign-key column through an old->new map. Rows
// whose key is absent keep their original, now-stale value (compatibility
// behavior); they are counted and reported instead of being silently
// preserved.
func remapColumn(t *sink.Table, column string, idMap map[string]string) (orphans int) {
	col := t.Col(column)
	if col < 0 {
		return 0
	}
	for _, row := range t.Rows {
		old := row[col]
		if old == "" {
			continue
		}
		if newID, ok := idMap[old]; ok {
			row[col] = newID
		} else {
			orphans++
		}
	}
	return orphans
}

// normalizeTo re-shapes a source table into the final column order, reading
// fields by name and leaving absent columns empty.
func normalizeTo(t *sink.Table, columns []string) [][]string {
	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		normalized := make([]string, len(columns))
		for i, c := range columns {
			normalized[i] = t.Value(row, c)
		}
		rows = append(rows, normalized)
	}
	return rows
}

// MergeOrbits remaps entity and class foreign keys, concatenates both
// sources, deduplicates on the (entity, epoch) pair with first-non-empty
// column fill, and assigns fresh dense orbit IDs.
func (m *Merger) MergeOrbits() error {
	out := sink.NewTable(model.OrbitColumns)

	var orphans int
	load := func(dir, prefix string, idMap, classMap map[string]string) error {
		t, err := loadOptional(m.sourcePath(dir, prefix, model.TableOrbits), model.OrbitColumns)
		if err != nil {
			return err
		}
		orphans += remapColumn(t, "IDAsteroide", idMap)
		remapColumn(t, "IDClasse", classMap)
		for _, row := range normalizeTo(t, model.OrbitColumns) {
			out.Rows = append(out.Rows, row)
		}
		return nil
	}
	if err := load(m.dirs.Primary, m.dirs.PrimaryPrefix, m.primaryIDMap, m.primaryClassMap); err != nil {
		return err
	}
	if err := load(m.dirs.Secondary, m.dirs.SecondaryPrefix, m.secondaryIDMap, m.secondaryClassMap); err != nil {
		return err
	}

	before := len(out.Rows)
	deduped := dedupeOrbits(out)

	idCol := deduped.Col("IDOrbita")
	for i, row := range deduped.Rows {
		row[idCol] = strconv.Itoa(i + 1)
	}

	if orphans > 0 {
		m.log.WithField("orphans", orphans).Warn("orbit rows kept with stale entity IDs")
	}
	if err := deduped.Save(m.outputPath(model.TableOrbits)); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"before_dedup": before,
		"after_dedup":  len(deduped.Rows),
	}).Info("orbits merged")
	return nil
}

// dedupeOrbits groups rows by (entity ID, epoch), keeping one row per group
// with first-non-empty column fill, mirroring the entity merge semantics.
func dedupeOrbits(t *sink.Table) *sink.Table {
	out := sink.NewTable(t.Columns)
	idCol := t.Col("IDAsteroide")
	epochCol := t.Col("epoch")

	byKey := make(map[string]int)
	for _, row := range t.Rows {
		key := row[idCol] + "\x1f" + row[epochCol]
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(out.Rows)
			out.Rows = append(out.Rows, row)
			continue
		}
		kept := out.Rows[idx]
		for i, v := range row {
			if kept[i] == "" && v != "" {
				kept[i] = v
			}
		}
	}
	return out
}

// MergeObservations remaps entity foreign keys, concatenates both sources and
// assigns fresh sequential IDs. Observations are never deduplicated.
func (m *Merger) MergeObservations() error {
	out := sink.NewTable(model.ObservationColumns)

	var orphans int
	load := func(dir, prefix string, idMap map[string]string) error {
		t, err := loadOptional(m.sourcePath(dir, prefix, model.TableObservations), model.ObservationColumns)
		if err != nil {
			return err
		}
		orphans += remapColumn(t, "IDAsteroide", idMap)
		for _, row := range normalizeTo(t, model.ObservationColumns) {
			out.Rows = append(out.Rows, row)
		}
		return nil
	}
	if err := load(m.dirs.Primary, m.dirs.PrimaryPrefix, m.primaryIDMap); err != nil {
		return err
	}
	if err := load(m.dirs.Secondary, m.dirs.SecondaryPrefix, m.secondaryIDMap); err != nil {
		return err
	}

	idCol := out.Col("IDObservacao")
	for i, row := range out.Rows {
		row[idCol] = strconv.Itoa(i + 1)
	}

	if orphans > 0 {
		m.log.WithField("orphans", orphans).Warn("observation rows kept with stale entity IDs")
	}
	if err := out.Save(m.outputPath(model.TableObservations)); err != nil {
		return err
	}
	m.log.WithField("observations", len(out.Rows)).Info("observations merged")
	return nil
}

// CopyReferences passes the primary source's software and astronomer
// dictionaries through to the final dataset; the astronomer center defaults
// to the single known center.
func (m *Merger) CopyReferences() error {
	software, err := loadOptional(m.sourcePath(m.dirs.Primary, m.dirs.PrimaryPrefix, model.TableSoftware), model.SoftwareColumns)
	if err != nil {
		return err
	}
	if err := software.Save(m.outputPath(model.TableSoftware)); err != nil {
		return err
	}

	astronomers, err := loadOptional(m.sourcePath(m.dirs.Primary, m.dirs.PrimaryPrefix, model.TableAstronomers), model.AstronomerColumns)
	if err != nil {
		return err
	}
	centerCol := astronomers.Col("IDCentro")
	if centerCol >= 0 {
		for _, row := range astronomers.Rows {
			row[centerCol] = "1"
		}
	}
	return astronomers.Save(m.outputPath(model.TableAstronomers))
}
