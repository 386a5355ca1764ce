package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
	"AsteroSync/internal/source"
	"AsteroSync/internal/source/mpcorb"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func writeInput(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	data := ""
	for _, l := range lines {
		data += l + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

const mpcorbHeader = "designation,designation_full,hex_flags,epoch,eccentricity,semi_major_axis,mean_motion,mean_anomaly,computer"

func TestStreamProcessorEndToEnd(t *testing.T) {
	t.Parallel()

	input := writeInput(t,
		mpcorbHeader,
		"00433,(433) Eros,0803,K194R,0.2,2.0,1,10,MPCLINUX",
		"00433,(433) Eros,0803,K194R,0.2,2.0,1,10,MPCLINUX",
		"00001,(1) Ceres,0000,K194R,0.1,2.7,0.2,5,E. Bowell",
		"J95X00A,,0000,K194R,0.3,1.5,0.5,2,MPCLINUX",
	)
	outDir := t.TempDir()

	proc := NewStreamProcessor(mpcorb.New(), outDir, 2, 3, testLogger())
	require.NoError(t, proc.Run(context.Background(), input))

	asteroids, err := sink.LoadTable(filepath.Join(outDir, "mpcorb_asteroids.csv"))
	require.NoError(t, err)
	require.Len(t, asteroids.Rows, 3)
	// Dense IDs in submission order, duplicate suppressed.
	assert.Equal(t, "1", asteroids.Value(asteroids.Rows[0], "IDAsteroide"))
	assert.Equal(t, "433", asteroids.Value(asteroids.Rows[0], "number"))
	assert.Equal(t, "2", asteroids.Value(asteroids.Rows[1], "IDAsteroide"))
	assert.Equal(t, "1", asteroids.Value(asteroids.Rows[1], "number"))
	assert.Equal(t, "3", asteroids.Value(asteroids.Rows[2], "IDAsteroide"))
	assert.Equal(t, "1995 XA", asteroids.Value(asteroids.Rows[2], "pdes"))

	orbits, err := sink.LoadTable(filepath.Join(outDir, "mpcorb_orbits.csv"))
	require.NoError(t, err)
	require.Len(t, orbits.Rows, 3)
	assert.Equal(t, "1", orbits.Value(orbits.Rows[0], "IDOrbita"))
	assert.Equal(t, "2019-04-27", orbits.Value(orbits.Rows[0], "epoch"))

	software, err := sink.LoadTable(filepath.Join(outDir, "mpcorb_software.csv"))
	require.NoError(t, err)
	require.Len(t, software.Rows, 1)
	assert.Equal(t, []string{"1", "MPCLINUX", ""}, software.Rows[0])

	astronomers, err := sink.LoadTable(filepath.Join(outDir, "mpcorb_astronomers.csv"))
	require.NoError(t, err)
	require.Len(t, astronomers.Rows, 1)
	assert.Equal(t, "E. Bowell", astronomers.Value(astronomers.Rows[0], "Nome"))
}

func TestStreamProcessorDeterministicAcrossWorkerCounts(t *testing.T) {
	t.Parallel()

	lines := []string{mpcorbHeader}
	for i := 0; i < 50; i++ {
		lines = append(lines, fmt.Sprintf("%05d,,0000,K194R,0.1,2.0,1,%d,MPCLINUX", i+1, i))
	}
	input := writeInput(t, lines...)

	run := func(workers int) string {
		outDir := t.TempDir()
		proc := NewStreamProcessor(mpcorb.New(), outDir, 7, workers, testLogger())
		require.NoError(t, proc.Run(context.Background(), input))
		data, err := os.ReadFile(filepath.Join(outDir, "mpcorb_asteroids.csv"))
		require.NoError(t, err)
		return string(data)
	}

	single := run(1)
	assert.Equal(t, single, run(4))
	assert.Equal(t, single, run(8))
}

func TestStreamProcessorMissingInput(t *testing.T) {
	t.Parallel()

	proc := NewStreamProcessor(mpcorb.New(), t.TempDir(), 10, 2, testLogger())
	err := proc.Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestStreamProcessorCancelledContext(t *testing.T) {
	t.Parallel()

	input := writeInput(t, mpcorbHeader, "00001,,0000,K194R,0.1,2.0,1,1,MPCLINUX")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := NewStreamProcessor(mpcorb.New(), t.TempDir(), 10, 2, testLogger())
	assert.ErrorIs(t, proc.Run(ctx, input), context.Canceled)
}

// faultyAdapter fails or panics on marked rows so batch containment can be
// observed from the outside.
type faultyAdapter struct{}

func (faultyAdapter) Name() string    { return "faulty" }
func (faultyAdapter) Delimiter() rune { return ',' }

func (faultyAdapter) Tables() []source.TableSpec {
	return []source.TableSpec{{Name: model.TableAsteroids, Columns: []string{"IDAsteroide", "id"}}}
}

func (faultyAdapter) RefTables() []string { return nil }

func (faultyAdapter) Transform(batch *source.RawBatch) ([]*source.Record, error) {
	records := make([]*source.Record, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		id := batch.Field(row, "id")
		switch id {
		case "fail":
			return nil, errors.New("marked row")
		case "panic":
			panic("marked row")
		}
		records = append(records, &source.Record{ObjectKey: id, Number: id})
	}
	return records, nil
}

func (faultyAdapter) TableRows(rec *source.Record) map[string][]string {
	return map[string][]string{
		model.TableAsteroids: {fmt.Sprintf("%d", rec.AsteroidID), rec.Number},
	}
}

func TestStreamProcessorDropsFailedBatches(t *testing.T) {
	t.Parallel()

	input := writeInput(t, "id", "a", "fail", "b", "panic", "c")
	outDir := t.TempDir()

	// Chunk size 1: each row is its own batch, two of them fail.
	proc := NewStreamProcessor(faultyAdapter{}, outDir, 1, 2, testLogger())
	err := proc.Run(context.Background(), input)
	assert.ErrorIs(t, err, ErrBatchesDropped)

	table, err := sink.LoadTable(filepath.Join(outDir, "faulty_asteroids.csv"))
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	// Surviving rows keep submission order and get contiguous IDs.
	assert.Equal(t, []string{"1", "a"}, table.Rows[0])
	assert.Equal(t, []string{"2", "b"}, table.Rows[1])
	assert.Equal(t, []string{"3", "c"}, table.Rows[2])
}
