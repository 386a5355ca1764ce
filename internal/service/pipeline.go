package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"AsteroSync/internal/config"
	"AsteroSync/internal/merger"
	"AsteroSync/internal/source"
	"AsteroSync/internal/source/mpcorb"
	"AsteroSync/internal/source/neo"
)

// Pipeline runs the full decode-and-unify sequence: both source processors,
// then the cross-source merge. Each run carries a fresh run id in its logs.
type Pipeline struct {
	cfg   *config.Config
	log   *logrus.Entry
	runID string
}

func NewPipeline(cfg *config.Config, logger *logrus.Logger) *Pipeline {
	runID := uuid.NewString()
	return &Pipeline{
		cfg:   cfg,
		log:   logger.WithField("run_id", runID),
		runID: runID,
	}
}

// RunID identifies this pipeline run in logs and diagnostics.
func (p *Pipeline) RunID() string { return p.runID }

// Run executes the pipeline. A missing primary input is fatal; a missing
// secondary input degrades to a primary-only run. Dropped batches are logged
// and surface as a warning, not a failure.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	pc := p.cfg.Pipeline

	if _, err := os.Stat(pc.MPCOrbFile); err != nil {
		return fmt.Errorf("primary input %s: %w", pc.MPCOrbFile, err)
	}

	haveSecondary := true
	if _, err := os.Stat(pc.NEOFile); err != nil {
		haveSecondary = false
		p.log.WithField("path", pc.NEOFile).Warn("secondary input missing, continuing with primary only")
	}

	workers := pc.WorkerCount()
	p.log.WithFields(logrus.Fields{
		"workers":    workers,
		"chunk_size": pc.ChunkSize,
	}).Info("pipeline started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.runSource(gctx, mpcorb.New(), pc.MPCOrbFile, pc.MPCOrbOutputDir, workers)
	})
	if haveSecondary {
		g.Go(func() error {
			return p.runSource(gctx, neo.New(), pc.NEOFile, pc.NEOOutputDir, workers)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("source processing: %w", err)
	}

	m := merger.New(merger.Dirs{
		Primary:         pc.MPCOrbOutputDir,
		PrimaryPrefix:   "mpcorb",
		Secondary:       pc.NEOOutputDir,
		SecondaryPrefix: "neo",
		Output:          pc.FinalOutputDir,
	}, p.log)
	if err := m.Run(); err != nil {
		return fmt.Errorf("merge: %w", err)
	}

	p.log.WithField("elapsed", time.Since(start).Round(time.Millisecond).String()).Info("pipeline complete")
	return nil
}

func (p *Pipeline) runSource(ctx context.Context, adapter source.Adapter, inputPath, outputDir string, workers int) error {
	proc := NewStreamProcessor(adapter, outputDir, p.cfg.Pipeline.ChunkSize, workers, p.log)
	err := proc.Run(ctx, inputPath)
	if errors.Is(err, ErrBatchesDropped) {
		// Partial output, not a failed run. The processor already wrote
		// everything that survived.
		p.log.WithError(err).Warn("source completed with dropped batches")
		return nil
	}
	return err
}
