// Package importer loads the merged dataset into PostgreSQL. Tables are
// inserted in dependency order so foreign keys resolve, with explicit
// identifiers carried over from the CSV files.
package importer

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"AsteroSync/internal/config"
	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
)

// tableTarget binds an output file to its database table and column order.
type tableTarget struct {
	File    string
	DBTable string
	Columns []string
}

// Import order matters: reference tables first, then entities, then the
// tables that point at them.
var targets = []tableTarget{
	{model.TableClasses + ".csv", "Classe", model.ClassColumns},
	{model.TableSoftware + ".csv", "Software", model.SoftwareColumns},
	{model.TableAstronomers + ".csv", "Astronomo", model.AstronomerColumns},
	{model.TableAsteroids + ".csv", "Asteroide", model.AsteroidColumns},
	{model.TableObservations + ".csv", "Observacao", model.ObservationColumns},
	{model.TableOrbits + ".csv", "Orbita", model.OrbitColumns},
}

// varcharLimits holds the schema's text column widths; rows exceeding them
// are reported before the insert fails server-side.
var varcharLimits = map[string]map[string]int{
	"Asteroide": {"name": 100, "pdes": 30, "prefix": 10},
	"Software":  {"Nome": 100, "Versao": 30},
	"Astronomo": {"Nome": 100},
	"Classe":    {"Descricao": 100, "CodClasse": 10},
}

// Importer bulk-loads the final dataset directory into the database.
type Importer struct {
	db  *gorm.DB
	cfg *config.DatabaseConfig
	dir string
	log *logrus.Entry
}

func New(db *gorm.DB, cfg *config.DatabaseConfig, dir string, log *logrus.Entry) *Importer {
	return &Importer{db: db, cfg: cfg, dir: dir, log: log.WithField("stage", "import")}
}

// Run imports every table in dependency order. A missing file aborts the run;
// partial datasets are not importable.
func (im *Importer) Run() error {
	for _, tgt := range targets {
		path := filepath.Join(im.dir, tgt.File)
		table, err := sink.LoadTable(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if err := im.importTable(tgt, table); err != nil {
			return fmt.Errorf("import %s: %w", tgt.DBTable, err)
		}
	}
	im.log.Info("database import complete")
	return nil
}

func (im *Importer) importTable(tgt tableTarget, table *sink.Table) error {
	im.checkLimits(tgt, table)

	batchSize := im.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}

	rows := make([]map[string]interface{}, 0, batchSize)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		if err := im.db.Table(tgt.DBTable).Create(rows).Error; err != nil {
			return err
		}
		rows = rows[:0]
		return nil
	}

	for _, row := range table.Rows {
		record := make(map[string]interface{}, len(tgt.Columns))
		for _, col := range tgt.Columns {
			record[col] = table.Value(row, col)
		}
		rows = append(rows, record)
		if len(rows) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	im.log.WithFields(logrus.Fields{
		"table": tgt.DBTable,
		"rows":  len(table.Rows),
	}).Info("table imported")
	return nil
}

// checkLimits warns about values wider than the schema's varchar columns so
// the offending rows can be found before the database rejects the batch.
func (im *Importer) checkLimits(tgt tableTarget, table *sink.Table) {
	limits := varcharLimits[tgt.DBTable]
	if len(limits) == 0 {
		return
	}
	for col, max := range limits {
		for i, row := range table.Rows {
			if v := table.Value(row, col); len(v) > max {
				im.log.WithFields(logrus.Fields{
					"table":  tgt.DBTable,
					"column": col,
					"row":    i + 1,
					"length": len(v),
					"limit":  max,
				}).Warn("value exceeds column width")
			}
		}
	}
}
