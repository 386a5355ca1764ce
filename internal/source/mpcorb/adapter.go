// Package mpcorb adapts the primary catalog: a comma-delimited export whose
// designation, epoch and flag columns still carry the compact legacy
// encodings.
package mpcorb

import (
	"strconv"
	"strings"

	"AsteroSync/internal/codec"
	"AsteroSync/internal/model"
	"AsteroSync/internal/source"
	"AsteroSync/internal/utils"
)

const observationMode = "Orbit Computation"

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "mpcorb" }

func (a *Adapter) Delimiter() rune { return ',' }

func (a *Adapter) Tables() []source.TableSpec {
	return []source.TableSpec{
		{Name: model.TableAsteroids, Columns: model.AsteroidColumns},
		{Name: model.TableOrbits, Columns: model.OrbitColumns},
		{Name: model.TableObservations, Columns: model.ObservationColumns},
	}
}

func (a *Adapter) RefTables() []string {
	return []string{model.TableClasses, model.TableSoftware, model.TableAstronomers}
}

// Transform decodes one raw batch: designation and epoch unpacking, flag
// decoding, derived-element calculation, scientific-notation expansion. Rows
// without a designation are dropped.
func (a *Adapter) Transform(batch *source.RawBatch) ([]*source.Record, error) {
	records := make([]*source.Record, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		packed := strings.TrimSpace(batch.Field(row, "designation"))
		if packed == "" {
			continue
		}

		rec := &source.Record{}
		rec.ObjectKey = codec.UnpackDesignation(packed)
		rec.Number, rec.Pdes, rec.Name = codec.SplitIdentity(
			packed, rec.ObjectKey, batch.Field(row, "designation_full"))

		flags := codec.DecodeOrbitFlags(strings.TrimSpace(batch.Field(row, "hex_flags")))
		rec.HexFlags = strings.TrimSpace(batch.Field(row, "hex_flags"))
		rec.NEO = codec.FlagValue(flags.NEO)
		rec.PHA = codec.FlagValue(flags.PHA)
		rec.Is1kmNEO = codec.FlagValue(flags.OneKmNEO)
		rec.IsCriticalList = codec.FlagValue(flags.CriticalList)
		rec.IsOneOpposition = codec.FlagValue(flags.OneOpposition)
		rec.ClassCode = flags.ClassName
		rec.ClassDesc = flags.ClassName

		rec.EpochISO = codec.UnpackDate(strings.TrimSpace(batch.Field(row, "epoch")))

		rec.E = utils.ExpandScientificNotation(batch.Field(row, "eccentricity"))
		rec.A = utils.ExpandScientificNotation(batch.Field(row, "semi_major_axis"))
		rec.I = utils.ExpandScientificNotation(batch.Field(row, "inclination"))
		rec.Om = utils.ExpandScientificNotation(batch.Field(row, "long_asc_node"))
		rec.W = utils.ExpandScientificNotation(batch.Field(row, "arg_perihelion"))
		rec.Ma = utils.ExpandScientificNotation(batch.Field(row, "mean_anomaly"))
		rec.N = utils.ExpandScientificNotation(batch.Field(row, "mean_motion"))
		rec.Rms = utils.ExpandScientificNotation(batch.Field(row, "rms_residual"))

		derived := codec.ComputeDerived(
			batch.Field(row, "eccentricity"),
			batch.Field(row, "semi_major_axis"),
			batch.Field(row, "mean_motion"),
			batch.Field(row, "mean_anomaly"),
			rec.EpochISO,
		)
		rec.Q = derived.Q
		rec.Ad = derived.Ad
		rec.Per = derived.Per
		rec.Tp = derived.Tp

		rec.H = utils.ExpandScientificNotation(batch.Field(row, "abs_mag"))
		rec.G = utils.ExpandScientificNotation(batch.Field(row, "slope_param"))

		rec.Uncertainty = strings.TrimSpace(batch.Field(row, "uncertainty"))
		rec.Reference = utils.CleanText(batch.Field(row, "reference"))
		rec.NumObs = intField(batch.Field(row, "num_observations"))
		rec.NumOpp = intField(batch.Field(row, "num_oppositions"))
		rec.CoarsePerts = strings.TrimSpace(batch.Field(row, "coarse_perturbers"))
		rec.PrecisePerts = strings.TrimSpace(batch.Field(row, "precise_perturbers"))
		rec.Arc = arcField(batch.Field(row, "first_obs"), batch.Field(row, "last_obs"))

		rec.Computer = strings.TrimSpace(batch.Field(row, "computer"))
		rec.Name = utils.CleanText(rec.Name)

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
			strconv.FormatInt(rec.OrbitID, 10), asteroidID, rec.EpochISO,
			rec.E, rec.SigmaE, rec.A, rec.SigmaA, rec.Q, rec.SigmaQ,
			rec.I, rec.SigmaI, rec.Om, rec.SigmaOm, rec.W, rec.SigmaW,
			rec.Ma, rec.SigmaMa, rec.Ad, rec.SigmaAd, rec.N, rec.SigmaN,
			rec.Tp, rec.SigmaTp, rec.Per, rec.SigmaPer,
			rec.Moid, rec.MoidLd, rec.Rms, rec.Uncertainty, rec.Reference,
			rec.NumObs, rec.NumOpp, rec.Arc, rec.CoarsePerts, rec.PrecisePerts,
			rec.HexFlags, rec.Is1kmNEO, rec.IsCriticalList, rec.IsOneOpposition,
			rec.ClassID,
		},
		model.TableObservations: {
			strconv.FormatInt(rec.ObservationID, 10), asteroidID,
			rec.AstronomerID, rec.SoftwareID, "",
			rec.EpochISO, "", "", observationMode,
		},
	}
}

// intField coerces a count column to a plain integer string, empty when it
// does not parse.
func intField(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return ""
	}
	return strconv.FormatInt(int64(f), 10)
}

// arcField joins the first and last observation dates into the arc span.
func arcField(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	if first == "" && last == "" {
		return ""
	}
	return first + "-" + last
}
