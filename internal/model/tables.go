// Package model fixes the relational shape of the unified dataset: table
// names, per-table column orders, and the identifier columns the downstream
// bulk import relies on. Column orders are load-bearing; the sink imports by
// position.
package model

// Logical table names. Per-source files are "<source>_<table>.csv", the final
// merged files are "<table>.csv".
const (
	TableAsteroids    = "asteroids"
	TableOrbits       = "orbits"
	TableObservations = "observations"
	TableClasses      = "classes"
	TableSoftware     = "software"
	TableAstronomers  = "astronomers"
)

// AsteroidColumns is shared by both sources and the final output.
var AsteroidColumns = []string{
	"IDAsteroide", "number", "spkid", "pdes", "name", "prefix", "neo", "pha",
	"H", "G", "diameter", "diameter_sigma", "albedo",
}

// OrbitColumns is the primary source's (and the final output's) order.
var OrbitColumns = []string{
	"IDOrbita", "IDAsteroide", "epoch", "e", "sigma_e", "a", "sigma_a",
	"q", "sigma_q", "i", "sigma_i", "om", "sigma_om", "w", "sigma_w",
	"ma", "sigma_ma", "ad", "sigma_ad", "n", "sigma_n", "tp", "sigma_tp",
	"per", "sigma_per", "moid", "moid_ld", "rms", "uncertainty", "Reference",
	"Num_Obs", "Num_Opp", "Arc", "Coarse_Perts", "Precise_Perts",
	"Hex_Flags", "Is1kmNEO", "IsCriticalList", "IsOneOppositionEarlier", "IDClasse",
}

// OrbitColumnsSecondary is the secondary catalog's historical order; it never
// carried a per-source orbit identifier (the merge stage regenerates them).
var OrbitColumnsSecondary = []string{
	"IDAsteroide", "epoch", "e", "a", "i", "om", "w", "ma", "n", "tp",
	"moid", "moid_ld", "q", "ad", "per", "rms", "Arc",
	"sigma_e", "sigma_a", "sigma_q", "sigma_i", "sigma_om", "sigma_w",
	"sigma_ma", "sigma_ad", "sigma_n", "sigma_tp", "sigma_per",
	"Hex_Flags", "Is1kmNEO", "IsCriticalList", "IsOneOppositionEarlier",
	"uncertainty", "Reference", "Num_Obs", "Num_Opp",
	"Coarse_Perts", "Precise_Perts", "IDClasse",
}

// ObservationColumns is the primary source's (and the final output's) order.
var ObservationColumns = []string{
	"IDObservacao", "IDAsteroide", "IDAstronomo", "IDSoftware", "IDEquipamento",
	"Data_atualizacao", "Hora", "Duracao", "Modo",
}

// ObservationColumnsSecondary swaps the equipment and software columns; the
// secondary export has always been ordered this way.
var ObservationColumnsSecondary = []string{
	"IDObservacao", "IDAsteroide", "IDAstronomo", "IDEquipamento", "IDSoftware",
	"Data_atualizacao", "Hora", "Duracao", "Modo",
}

var ClassColumns = []string{"IDClasse", "Descricao", "CodClasse"}

var SoftwareColumns = []string{"IDSoftware", "Nome", "Versao"}

var AstronomerColumns = []string{"IDAstronomo", "Nome", "IDCentro"}
