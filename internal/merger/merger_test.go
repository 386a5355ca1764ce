package merger

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// rowFor builds a positional row from named values, leaving the rest empty.
func rowFor(columns []string, values map[string]string) []string {
	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = values[c]
	}
	return row
}

func saveTable(t *testing.T, dir, prefix, table string, columns []string, rows ...[]string) {
	t.Helper()
	tbl := sink.NewTable(columns)
	for _, row := range rows {
		tbl.Append(row)
	}
	require.NoError(t, tbl.Save(filepath.Join(dir, prefix+"_"+table+".csv")))
}

// fixture writes a two-source dataset with one shared entity, one orphaned
// orbit and overlapping classification dictionaries.
func fixture(t *testing.T) Dirs {
	t.Helper()
	primary := t.TempDir()
	secondary := t.TempDir()

	saveTable(t, primary, "mpcorb", model.TableAsteroids, model.AsteroidColumns,
		rowFor(model.AsteroidColumns, map[string]string{
			"IDAsteroide": "1", "number": "433", "name": "Eros", "neo": "1", "pha": "0", "H": "10.4",
		}),
		rowFor(model.AsteroidColumns, map[string]string{
			"IDAsteroide": "2", "pdes": "1995 XA",
		}),
		rowFor(model.AsteroidColumns, map[string]string{
			"IDAsteroide": "3",
		}),
	)
	saveTable(t, primary, "mpcorb", model.TableClasses, model.ClassColumns,
		[]string{"1", "Apollo", "Apollo"},
		[]string{"2", "Amor", "Amor"},
	)
	saveTable(t, primary, "mpcorb", model.TableOrbits, model.OrbitColumns,
		rowFor(model.OrbitColumns, map[string]string{
			"IDOrbita": "1", "IDAsteroide": "1", "epoch": "2020-05-31", "e": "0.2", "IDClasse": "1",
		}),
		rowFor(model.OrbitColumns, map[string]string{
			"IDOrbita": "2", "IDAsteroide": "99", "epoch": "2020-05-31", "e": "0.5",
		}),
	)
	saveTable(t, primary, "mpcorb", model.TableObservations, model.ObservationColumns,
		rowFor(model.ObservationColumns, map[string]string{
			"IDObservacao": "1", "IDAsteroide": "1", "IDSoftware": "1",
			"Data_atualizacao": "2020-05-31", "Modo": "Orbit Computation",
		}),
		rowFor(model.ObservationColumns, map[string]string{
			"IDObservacao": "2", "IDAsteroide": "2", "IDAstronomo": "1",
			"Data_atualizacao": "2020-05-31",
		}),
	)
	saveTable(t, primary, "mpcorb", model.TableSoftware, model.SoftwareColumns,
		[]string{"1", "MPCLINUX", ""},
	)
	saveTable(t, primary, "mpcorb", model.TableAstronomers, model.AstronomerColumns,
		[]string{"1", "E. Bowell", ""},
	)

	saveTable(t, secondary, "neo", model.TableAsteroids, model.AsteroidColumns,
		rowFor(model.AsteroidColumns, map[string]string{
			"IDAsteroide": "1", "number": "00433", "spkid": "2000433", "name": "Eros", "diameter": "16.84",
		}),
		rowFor(model.AsteroidColumns, map[string]string{
			"IDAsteroide": "2", "number": "9999",
		}),
	)
	saveTable(t, secondary, "neo", model.TableClasses, model.ClassColumns,
		[]string{"1", "Amor-class", "AMO"},
		[]string{"2", "Apollo duplicate", "Apollo"},
	)
	saveTable(t, secondary, "neo", model.TableOrbits, model.OrbitColumnsSecondary,
		rowFor(model.OrbitColumnsSecondary, map[string]string{
			"IDAsteroide": "1", "epoch": "2020-05-31", "a": "2.0", "IDClasse": "1",
		}),
		rowFor(model.OrbitColumnsSecondary, map[string]string{
			"IDAsteroide": "2", "epoch": "2021-01-01", "e": "0.3", "IDClasse": "2",
		}),
	)
	saveTable(t, secondary, "neo", model.TableObservations, model.ObservationColumnsSecondary,
		rowFor(model.ObservationColumnsSecondary, map[string]string{
			"IDObservacao": "1", "IDAsteroide": "2", "IDSoftware": "2", "Data_atualizacao": "2020-05-31",
		}),
	)

	return Dirs{
		Primary:         primary,
		PrimaryPrefix:   "mpcorb",
		Secondary:       secondary,
		SecondaryPrefix: "neo",
		Output:          t.TempDir(),
	}
}

func loadOutput(t *testing.T, dirs Dirs, table string) *sink.Table {
	t.Helper()
	tbl, err := sink.LoadTable(filepath.Join(dirs.Output, table+".csv"))
	require.NoError(t, err)
	return tbl
}

func TestMergerRun(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	m := New(dirs, testLogger())
	require.NoError(t, m.Run())

	classes := loadOutput(t, dirs, model.TableClasses)
	require.Len(t, classes.Rows, 3)
	assert.Equal(t, []string{"1", "Apollo", "Apollo"}, classes.Rows[0])
	assert.Equal(t, []string{"2", "Amor", "Amor"}, classes.Rows[1])
	assert.Equal(t, []string{"3", "Amor-class", "AMO"}, classes.Rows[2])

	asteroids := loadOutput(t, dirs, model.TableAsteroids)
	require.Len(t, asteroids.Rows, 3)

	eros := asteroids.Rows[0]
	assert.Equal(t, "1", asteroids.Value(eros, "IDAsteroide"))
	assert.Equal(t, "433", asteroids.Value(eros, "number"))
	assert.Equal(t, "Eros", asteroids.Value(eros, "name"))
	// Gaps filled from the secondary source.
	assert.Equal(t, "2000433", asteroids.Value(eros, "spkid"))
	assert.Equal(t, "16.84", asteroids.Value(eros, "diameter"))

	assert.Equal(t, "2", asteroids.Value(asteroids.Rows[1], "IDAsteroide"))
	assert.Equal(t, "1995 XA", asteroids.Value(asteroids.Rows[1], "pdes"))
	assert.Equal(t, "3", asteroids.Value(asteroids.Rows[2], "IDAsteroide"))
	assert.Equal(t, "9999", asteroids.Value(asteroids.Rows[2], "number"))

	// Old->new maps cover surviving entities only.
	assert.Equal(t, map[string]string{"1": "1", "2": "2"}, m.PrimaryIDMap())
	assert.Equal(t, map[string]string{"1": "1", "2": "3"}, m.SecondaryIDMap())
}

func TestMergerOrbitDedup(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	m := New(dirs, testLogger())
	require.NoError(t, m.Run())

	orbits := loadOutput(t, dirs, model.TableOrbits)
	require.Len(t, orbits.Rows, 3)

	// The shared (entity, epoch) pair collapsed to one row with gaps filled.
	shared := orbits.Rows[0]
	assert.Equal(t, "1", orbits.Value(shared, "IDOrbita"))
	assert.Equal(t, "1", orbits.Value(shared, "IDAsteroide"))
	assert.Equal(t, "0.2", orbits.Value(shared, "e"))
	assert.Equal(t, "2.0", orbits.Value(shared, "a"))
	assert.Equal(t, "1", orbits.Value(shared, "IDClasse"))

	// The orphaned row keeps its stale entity ID.
	orphan := orbits.Rows[1]
	assert.Equal(t, "2", orbits.Value(orphan, "IDOrbita"))
	assert.Equal(t, "99", orbits.Value(orphan, "IDAsteroide"))

	// The secondary-only orbit is remapped: entity 2 -> 3, class 2 -> Apollo.
	solo := orbits.Rows[2]
	assert.Equal(t, "3", orbits.Value(solo, "IDOrbita"))
	assert.Equal(t, "3", orbits.Value(solo, "IDAsteroide"))
	assert.Equal(t, "2021-01-01", orbits.Value(solo, "epoch"))
	assert.Equal(t, "1", orbits.Value(solo, "IDClasse"))
}

func TestMergerObservations(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	m := New(dirs, testLogger())
	require.NoError(t, m.Run())

	obs := loadOutput(t, dirs, model.TableObservations)
	require.Len(t, obs.Rows, 3)

	for i, row := range obs.Rows {
		assert.Equal(t, []string{"1", "2", "3"}[i], obs.Value(row, "IDObservacao"))
	}
	assert.Equal(t, "1", obs.Value(obs.Rows[0], "IDAsteroide"))
	assert.Equal(t, "2", obs.Value(obs.Rows[1], "IDAsteroide"))
	// Secondary observation remapped and normalized into the final column
	// order despite the swapped source layout.
	assert.Equal(t, "3", obs.Value(obs.Rows[2], "IDAsteroide"))
	assert.Equal(t, "2", obs.Value(obs.Rows[2], "IDSoftware"))
	assert.Empty(t, obs.Value(obs.Rows[2], "IDEquipamento"))
}

func TestMergerReferences(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	require.NoError(t, New(dirs, testLogger()).Run())

	software := loadOutput(t, dirs, model.TableSoftware)
	require.Len(t, software.Rows, 1)
	assert.Equal(t, []string{"1", "MPCLINUX", ""}, software.Rows[0])

	astronomers := loadOutput(t, dirs, model.TableAstronomers)
	require.Len(t, astronomers.Rows, 1)
	assert.Equal(t, []string{"1", "E. Bowell", "1"}, astronomers.Rows[0])
}

func TestMergerDeterministic(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	require.NoError(t, New(dirs, testLogger()).Run())
	first, err := os.ReadFile(filepath.Join(dirs.Output, model.TableAsteroids+".csv"))
	require.NoError(t, err)

	dirs2 := dirs
	dirs2.Output = t.TempDir()
	require.NoError(t, New(dirs2, testLogger()).Run())
	second, err := os.ReadFile(filepath.Join(dirs2.Output, model.TableAsteroids+".csv"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

// TestMergerIdempotentOnMergedOutput feeds the final merged dataset back in
// as a lone primary source: a second resolution pass over already-merged,
// already-deduplicated tables must leave every row untouched.
func TestMergerIdempotentOnMergedOutput(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	require.NoError(t, New(dirs, testLogger()).Run())

	// Re-stage the merged tables under the primary source's file naming.
	staged := t.TempDir()
	for _, table := range []string{
		model.TableClasses, model.TableSoftware, model.TableAstronomers,
		model.TableAsteroids, model.TableOrbits, model.TableObservations,
	} {
		data, err := os.ReadFile(filepath.Join(dirs.Output, table+".csv"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(staged, "mpcorb_"+table+".csv"), data, 0o644))
	}

	rerun := Dirs{
		Primary:         staged,
		PrimaryPrefix:   "mpcorb",
		Secondary:       t.TempDir(),
		SecondaryPrefix: "neo",
		Output:          t.TempDir(),
	}
	m := New(rerun, testLogger())
	require.NoError(t, m.Run())

	for _, table := range []string{
		model.TableClasses, model.TableAsteroids,
		model.TableOrbits, model.TableObservations,
	} {
		first := loadOutput(t, dirs, table)
		second := loadOutput(t, rerun, table)
		require.Lenf(t, second.Rows, len(first.Rows), "table %s changed row count", table)
		assert.Equalf(t, first.Rows, second.Rows, "table %s changed rows", table)
	}

	// Every surviving entity keeps its identifier across the second pass.
	asteroids := loadOutput(t, dirs, model.TableAsteroids)
	for _, row := range asteroids.Rows {
		id := asteroids.Value(row, "IDAsteroide")
		assert.Equal(t, id, m.PrimaryIDMap()[id])
	}
}

func TestMergerPrimaryOnly(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	dirs.Secondary = t.TempDir() // no secondary files at all

	m := New(dirs, testLogger())
	require.NoError(t, m.Run())

	asteroids := loadOutput(t, dirs, model.TableAsteroids)
	require.Len(t, asteroids.Rows, 2)
	assert.Empty(t, asteroids.Value(asteroids.Rows[0], "spkid"))

	orbits := loadOutput(t, dirs, model.TableOrbits)
	assert.Len(t, orbits.Rows, 2)
}

func TestMergerMissingPrimaryEntities(t *testing.T) {
	t.Parallel()

	dirs := fixture(t)
	dirs.Primary = t.TempDir()

	err := New(dirs, testLogger()).Run()
	assert.Error(t, err)
}
