// Package source defines the catalog adapter boundary: each input catalog
// implements Adapter, turning raw delimited batches into decoded records and
// decoded records into output-table rows. Adapters are pure with respect to
// run state; everything stateful (identifiers, dictionaries, dedup) belongs to
// the streaming processor that drives them.
package source

// Record is one decoded catalog row, the superset of what either source can
// fill. All payload fields are strings, exactly as they will be written; the
// identifier fields are assigned later by the streaming processor and are zero
// until then.
type Record struct {
	// ObjectKey is the normalized object identifier used for run-scoped
	// duplicate suppression.
	ObjectKey string

	// Entity fields.
	Number        string
	SpkID         string
	Pdes          string
	Name          string
	Prefix        string
	NEO           string
	PHA           string
	H             string
	G             string
	Diameter      string
	DiameterSigma string
	Albedo        string

	// Orbit fields.
	EpochISO string
	Tp       string
	E        string
	A        string
	Q        string
	I        string
	Om       string
	W        string
	Ma       string
	Ad       string
	N        string
	Per      string
	Rms      string
	Moid     string
	MoidLd   string

	SigmaE   string
	SigmaA   string
	SigmaQ   string
	SigmaI   string
	SigmaOm  string
	SigmaW   string
	SigmaMa  string
	SigmaAd  string
	SigmaN   string
	SigmaTp  string
	SigmaPer string

	Uncertainty     string
	Reference       string
	NumObs          string
	NumOpp          string
	Arc             string
	CoarsePerts     string
	PrecisePerts    string
	HexFlags        string
	Is1kmNEO        string
	IsCriticalList  string
	IsOneOpposition string

	// Attribution and classification inputs for the reference dictionaries.
	Computer  string
	ClassCode string
	ClassDesc string

	// Assigned by the streaming processor while resolving the batch.
	AsteroidID    int64
	OrbitID       int64
	ObservationID int64
	SoftwareID    string
	AstronomerID  string
	ClassID       string
}

// TableSpec names one output table of a source and fixes its column order.
type TableSpec struct {
	Name    string
	Columns []string
}

// Adapter is implemented once per input catalog.
type Adapter interface {
	// Name is the per-source file prefix ("mpcorb", "neo").
	Name() string

	// Delimiter is the input file's field separator.
	Delimiter() rune

	// Tables lists the record-bearing output tables of this source.
	Tables() []TableSpec

	// RefTables lists which reference dictionaries this source emits.
	RefTables() []string

	// Transform decodes one raw batch into records. It must be pure: no
	// shared state, safe to run concurrently with itself.
	Transform(batch *RawBatch) ([]*Record, error)

	// TableRows renders an ID-resolved record into one row per output
	// table, keyed by table name.
	TableRows(rec *Record) map[string][]string
}
