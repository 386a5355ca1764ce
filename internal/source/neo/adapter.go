// Package neo adapts the secondary catalog: a semicolon-delimited export with
// calendar-coded dates (YYYYMMDD with an optional day fraction) and Y/N flag
// columns instead of the packed legacy encodings.
package neo

import (
	"strconv"
	"strings"
	"time"

	"AsteroSync/internal/model"
	"AsteroSync/internal/source"
	"AsteroSync/internal/utils"
)

const tpTimestampLayout = "2006-01-02 15:04:05.000000"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "neo" }

func (a *Adapter) Delimiter() rune { return ';' }

func (a *Adapter) Tables() []source.TableSpec {
	return []source.TableSpec{
		{Name: model.TableAsteroids, Columns: model.AsteroidColumns},
		{Name: model.TableOrbits, Columns: model.OrbitColumnsSecondary},
		{Name: model.TableObservations, Columns: model.ObservationColumnsSecondary},
	}
}

func (a *Adapter) RefTables() []string {
	return []string{model.TableClasses}
}

// Transform decodes one raw batch. Rows without a catalog id are dropped;
// everything else degrades field by field.
func (a *Adapter) Transform(batch *source.RawBatch) ([]*source.Record, error) {
	records := make([]*source.Record, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		id := strings.TrimSpace(batch.Field(row, "id"))
		if id == "" {
			continue
		}

		rec := &source.Record{}
		rec.ObjectKey = id

		// Catalog numbering: an 'a' prefix marks a numbered object, the
		// digits follow; 'b'-prefixed ids are provisional-only.
		if strings.HasPrefix(id, "a") {
			rec.Number = strings.TrimLeft(id[1:], "0")
		}

		rec.SpkID = cleanField(batch.Field(row, "spkid"))
		rec.Pdes = cleanField(batch.Field(row, "pdes"))
		rec.Name = utils.CleanText(cleanField(batch.Field(row, "name")))
		rec.Prefix = cleanField(batch.Field(row, "prefix"))

		rec.NEO = ynFlag(batch.Field(row, "neo"))
		rec.PHA = ynFlag(batch.Field(row, "pha"))

		rec.H = utils.ExpandScientificNotation(batch.Field(row, "h"))
		rec.Diameter = utils.ExpandScientificNotation(batch.Field(row, "diameter"))
		rec.DiameterSigma = utils.ExpandScientificNotation(batch.Field(row, "diameter_sigma"))
		rec.Albedo = utils.ExpandScientificNotation(batch.Field(row, "albedo"))

		rec.EpochISO = parseCalendarDay(batch.Field(row, "epoch_cal"))
		rec.Tp = parseCalendarStamp(batch.Field(row, "tp_cal"))

		rec.E = utils.ExpandScientificNotation(batch.Field(row, "e"))
		rec.A = utils.ExpandScientificNotation(batch.Field(row, "a"))
		rec.Q = utils.ExpandScientificNotation(batch.Field(row, "q"))
		rec.I = utils.ExpandScientificNotation(batch.Field(row, "i"))
		rec.Om = utils.ExpandScientificNotation(batch.Field(row, "om"))
		rec.W = utils.ExpandScientificNotation(batch.Field(row, "w"))
		rec.Ma = utils.ExpandScientificNotation(batch.Field(row, "ma"))
		rec.Ad = utils.ExpandScientificNotation(batch.Field(row, "ad"))
		rec.N = utils.ExpandScientificNotation(batch.Field(row, "n"))
		rec.Per = utils.ExpandScientificNotation(batch.Field(row, "per"))
		rec.Rms = utils.ExpandScientificNotation(batch.Field(row, "rms"))
		rec.Moid = utils.ExpandScientificNotation(batch.Field(row, "moid"))
		rec.MoidLd = utils.ExpandScientificNotation(batch.Field(row, "moid_ld"))

		rec.SigmaE = utils.ExpandScientificNotation(batch.Field(row, "sigma_e"))
		rec.SigmaA = utils.ExpandScientificNotation(batch.Field(row, "sigma_a"))
		rec.SigmaQ = utils.ExpandScientificNotation(batch.Field(row, "sigma_q"))
		rec.SigmaI = utils.ExpandScientificNotation(batch.Field(row, "sigma_i"))
		rec.SigmaOm = utils.ExpandScientificNotation(batch.Field(row, "sigma_om"))
		rec.SigmaW = utils.ExpandScientificNotation(batch.Field(row, "sigma_w"))
		rec.SigmaMa = utils.ExpandScientificNotation(batch.Field(row, "sigma_ma"))
		rec.SigmaAd = utils.ExpandScientificNotation(batch.Field(row, "sigma_ad"))
		rec.SigmaN = utils.ExpandScientificNotation(batch.Field(row, "sigma_n"))
		rec.SigmaTp = utils.ExpandScientificNotation(batch.Field(row, "sigma_tp"))
		rec.SigmaPer = utils.ExpandScientificNotation(batch.Field(row, "sigma_per"))

		rec.ClassCode = classField(batch.Field(row, "class"))
		rec.ClassDesc = cleanField(batch.Field(row, "class_description"))
		if rec.ClassDesc == "" {
			rec.ClassDesc = rec.ClassCode
		}

		records = append(records, rec)
	}
	return records, nil
}

func (a *Adapter) TableRows(rec *source.Record) map[string][]string {
	asteroidID := strconv.FormatInt(rec.AsteroidID, 10)
	return map[string][]string{
		model.TableAsteroids: {
			asteroidID, rec.Number, rec.SpkID, rec.Pdes, rec.Name, rec.Prefix,
			rec.NEO, rec.PHA, rec.H, rec.G,
			rec.Diameter, rec.DiameterSigma, rec.Albedo,
		},
		model.TableOrbits: {
			asteroidID, rec.EpochISO,
			rec.E, rec.A, rec.I, rec.Om, rec.W, rec.Ma, rec.N, rec.Tp,
			rec.Moid, rec.MoidLd, rec.Q, rec.Ad, rec.Per, rec.Rms, rec.Arc,
			rec.SigmaE, rec.SigmaA, rec.SigmaQ, rec.SigmaI, rec.SigmaOm,
			rec.SigmaW, rec.SigmaMa, rec.SigmaAd, rec.SigmaN, rec.SigmaTp,
			rec.SigmaPer,
			rec.HexFlags, rec.Is1kmNEO, rec.IsCriticalList, rec.IsOneOpposition,
			rec.Uncertainty, rec.Reference, rec.NumObs, rec.NumOpp,
			rec.CoarsePerts, rec.PrecisePerts, rec.ClassID,
		},
		model.TableObservations: {
			strconv.FormatInt(rec.ObservationID, 10), asteroidID,
			rec.AstronomerID, "", rec.SoftwareID,
			rec.EpochISO, "", "", "",
		},
	}
}

// cleanField trims a string column and collapses the export's null spellings.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan", "<na>":
		return ""
	}
	return s
}

// classField treats "Unclassified" as no classification.
func classField(s string) string {
	s = cleanField(s)
	if strings.EqualFold(s, "unclassified") {
		return ""
	}
	return s
}

func ynFlag(s string) string {
	if strings.TrimSpace(s) == "Y" {
		return "1"
	}
	return "0"
}

// parseCalendarDay parses YYYYMMDD into an ISO date, empty on failure.
func parseCalendarDay(s string) string {
	s = cleanField(s)
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		s = s[:dot]
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// parseCalendarStamp parses YYYYMMDD or YYYYMMDD.ddddd (fraction of a day)
// into a microsecond-precision timestamp, empty on failure.
func parseCalendarStamp(s string) string {
	s = cleanField(s)
	if s == "" {
		return ""
	}

	base := s
	frac := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		base, frac = s[:dot], s[dot+1:]
	}

	t, err := time.Parse("20060102", base)
	if err != nil {
		return ""
	}
	if frac != "" {
		dayFraction, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return ""
		}
		t = t.Add(time.Duration(dayFraction * 24 * float64(time.Hour)))
	}
	return t.Format(tpTimestampLayout)
}
