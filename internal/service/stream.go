package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"AsteroSync/internal/model"
	"AsteroSync/internal/sink"
	"AsteroSync/internal/source"
)

// ErrBatchesDropped reports that the run completed but lost at least one
// batch to a transform failure. The written tables are valid; the caller
// decides whether partial output is acceptable.
var ErrBatchesDropped = errors.New("batches dropped during streaming")

// StreamProcessor drives one source catalog end to end: ordered chunked
// reading, bounded-parallel transformation, and single-writer resolution that
// owns every piece of run-scoped mutable state (duplicate set, dense ID
// counters, reference dictionaries, table writers).
type StreamProcessor struct {
	adapter   source.Adapter
	outputDir string
	chunkSize int
	workers   int
	log       *logrus.Entry

	// Run-scoped state, touched only while resolving batches in submission
	// order.
	seen              map[string]struct{}
	refs              *RefDicts
	nextAsteroidID    int64
	nextOrbitID       int64
	nextObservationID int64
	writers           map[string]*sink.Writer
	totalRecords      int
	duplicatesDropped int
	batchesDropped    int
}

func NewStreamProcessor(adapter source.Adapter, outputDir string, chunkSize, workers int, log *logrus.Entry) *StreamProcessor {
	if chunkSize <= 0 {
		chunkSize = 100000
	}
	if workers <= 0 {
		workers = 1
	}
	return &StreamProcessor{
		adapter:           adapter,
		outputDir:         outputDir,
		chunkSize:         chunkSize,
		workers:           workers,
		log:               log.WithField("source", adapter.Name()),
		seen:              make(map[string]struct{}),
		refs:              NewRefDicts(),
		nextAsteroidID:    1,
		nextOrbitID:       1,
		nextObservationID: 1,
		writers:           make(map[string]*sink.Writer),
	}
}

type batchResult struct {
	seq     int
	size    int
	records []*source.Record
	err     error
}

type batchJob struct {
	batch *source.RawBatch
	done  chan batchResult
}

// Run consumes the input file and writes the per-source tables. It returns
// ErrBatchesDropped (wrapped) when transform failures lost data but the run
// otherwise completed.
func (p *StreamProcessor) Run(ctx context.Context, inputPath string) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input %s: %w", inputPath, err)
	}
	defer f.Close()

	reader, err := source.NewReader(f, p.adapter.Delimiter(), p.chunkSize)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}

	if err := p.openWriters(); err != nil {
		return err
	}
	defer p.closeWriters()

	jobs := make(chan batchJob)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				job.done <- p.transform(job.batch)
			}
		}()
	}
	defer wg.Wait()
	defer close(jobs)

	// FIFO of outstanding submissions, bounded to 2x the worker count.
	// Resolving strictly in submission order is what keeps the dense IDs
	// deterministic even though the transforms run in parallel.
	maxInFlight := p.workers * 2
	pending := make([]chan batchResult, 0, maxInFlight)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		batch, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Reader errors other than end-of-input are fatal; still
			// drain the in-flight work before returning.
			for _, done := range pending {
				<-done
			}
			return fmt.Errorf("read batch: %w", err)
		}

		if len(pending) >= maxInFlight {
			p.resolve(<-pending[0])
			pending = pending[1:]
		}

		done := make(chan batchResult, 1)
		jobs <- batchJob{batch: batch, done: done}
		pending = append(pending, done)
	}

	// Drain remaining submissions in order.
	for _, done := range pending {
		p.resolve(<-done)
	}

	if err := p.flushRefTables(); err != nil {
		return err
	}
	if err := p.closeWriters(); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"records":    p.totalRecords,
		"duplicates": p.duplicatesDropped,
	}).Info("source processed")

	if p.batchesDropped > 0 {
		return fmt.Errorf("%w: %d of source %s", ErrBatchesDropped, p.batchesDropped, p.adapter.Name())
	}
	return nil
}

// transform runs the adapter's pure batch transform with panic containment; a
// panicking worker fails only its own batch.
func (p *StreamProcessor) transform(batch *source.RawBatch) (res batchResult) {
	res.seq = batch.Seq
	res.size = len(batch.Rows)
	defer func() {
		if r := recover(); r != nil {
			res.records = nil
			res.err = fmt.Errorf("transform panic: %v", r)
		}
	}()
	res.records, res.err = p.adapter.Transform(batch)
	return res
}

// resolve is the single-writer step: duplicate suppression, dense ID
// assignment, reference dictionary updates, table writes. It must only ever
// run on the orchestrating goroutine, in submission order.
func (p *StreamProcessor) resolve(res batchResult) {
	if res.err != nil {
		p.batchesDropped++
		p.log.WithError(res.err).WithField("batch", res.seq).Warn("batch failed, skipping")
		return
	}

	survivors := res.records[:0]
	for _, rec := range res.records {
		if _, dup := p.seen[rec.ObjectKey]; dup {
			p.duplicatesDropped++
			continue
		}
		p.seen[rec.ObjectKey] = struct{}{}
		survivors = append(survivors, rec)
	}

	for _, rec := range survivors {
		rec.AsteroidID = p.nextAsteroidID
		rec.OrbitID = p.nextOrbitID
		rec.ObservationID = p.nextObservationID
		p.nextAsteroidID++
		p.nextOrbitID++
		p.nextObservationID++

		p.refs.Resolve(rec)

		for table, row := range p.adapter.TableRows(rec) {
			if err := p.writers[table].Write(row); err != nil {
				p.log.WithError(err).WithField("table", table).Error("write failed")
			}
		}
	}

	p.totalRecords += len(survivors)
	p.log.WithFields(logrus.Fields{
		"batch":   res.seq,
		"records": p.totalRecords,
	}).Info("progress")
}

func (p *StreamProcessor) tablePath(table string) string {
	return filepath.Join(p.outputDir, fmt.Sprintf("%s_%s.csv", p.adapter.Name(), table))
}

func (p *StreamProcessor) openWriters() error {
	for _, spec := range p.adapter.Tables() {
		w, err := sink.NewWriter(p.tablePath(spec.Name), spec.Columns)
		if err != nil {
			return err
		}
		p.writers[spec.Name] = w
	}
	for _, name := range p.adapter.RefTables() {
		columns, err := refColumns(name)
		if err != nil {
			return err
		}
		w, err := sink.NewWriter(p.tablePath(name), columns)
		if err != nil {
			return err
		}
		p.writers[name] = w
	}
	return nil
}

func refColumns(table string) ([]string, error) {
	switch table {
	case model.TableClasses:
		return model.ClassColumns, nil
	case model.TableSoftware:
		return model.SoftwareColumns, nil
	case model.TableAstronomers:
		return model.AstronomerColumns, nil
	}
	return nil, fmt.Errorf("unknown reference table %q", table)
}

// flushRefTables writes the dictionaries accumulated over the whole run.
func (p *StreamProcessor) flushRefTables() error {
	for _, name := range p.adapter.RefTables() {
		var rows [][]string
		switch name {
		case model.TableClasses:
			rows = p.refs.ClassRows()
		case model.TableSoftware:
			rows = p.refs.SoftwareRows()
		case model.TableAstronomers:
			rows = p.refs.AstronomerRows()
		}
		if err := p.writers[name].WriteAll(rows); err != nil {
			return fmt.Errorf("flush %s: %w", name, err)
		}
	}
	return nil
}

func (p *StreamProcessor) closeWriters() error {
	var firstErr error
	for name, w := range p.writers {
		if w == nil {
			continue
		}
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s: %w", name, err)
		}
		p.writers[name] = nil
	}
	return firstErr
}
