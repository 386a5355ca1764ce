package importer

import (
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
)

func TestTargetsDependencyOrder(t *testing.T) {
	t.Parallel()

	position := make(map[string]int, len(targets))
	for i, tgt := range targets {
		position[tgt.DBTable] = i
	}

	// Reference tables and entities come before the tables pointing at them.
	assert.Less(t, position["Classe"], position["Orbita"])
	assert.Less(t, position["Software"], position["Observacao"])
	assert.Less(t, position["Astronomo"], position["Observacao"])
	assert.Less(t, position["Asteroide"], position["Orbita"])
	assert.Less(t, position["Asteroide"], position["Observacao"])
}

func TestTargetsCoverAllTables(t *testing.T) {
	t.Parallel()

	files := make([]string, 0, len(targets))
	for _, tgt := range targets {
		files = append(files, tgt.File)
	}
	assert.ElementsMatch(t, []string{
		model.TableClasses + ".csv",
		model.TableSoftware + ".csv",
		model.TableAstronomers + ".csv",
		model.TableAsteroids + ".csv",
		model.TableObservations + ".csv",
		model.TableOrbits + ".csv",
	}, files)
}

func TestCheckLimitsWarnsOnWideValues(t *testing.T) {
	t.Parallel()

	logger, hook := logtest.NewNullLogger()
	im := &Importer{log: logrus.NewEntry(logger)}

	tbl := sink.NewTable(model.AsteroidColumns)
	tbl.Append([]string{"1", "433", "", "", strings.Repeat("x", 150), "", "", "", "", "", "", "", ""})
	tbl.Append([]string{"2", "1", "", "", "Ceres", "", "", "", "", "", "", "", ""})

	im.checkLimits(targets[3], tbl)

	require.Len(t, hook.Entries, 1)
	entry := hook.Entries[0]
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "name", entry.Data["column"])
	assert.Equal(t, 150, entry.Data["length"])
}
