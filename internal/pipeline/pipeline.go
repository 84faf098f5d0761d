// Package pipeline orchestrates one dataset run: fetch and normalize, gate
// on the content fingerprint, and write output files only when the content
// changed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/windgrid/gis-assets-etl/internal/domain"
	"github.com/windgrid/gis-assets-etl/internal/observability"
)

// Source produces a validated, normalized dataset from an upstream provider.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (*domain.Dataset, error)
}

// Cleaner is implemented by sources that keep single-run scratch files.
// Cleanup runs after a successful fetch.
type Cleaner interface {
	Cleanup() error
}

// Writer persists a dataset to one on-disk format.
type Writer interface {
	Format() string
	Ext() string
	Write(ds *domain.Dataset, path string) error
}

// Result summarizes one completed run.
type Result struct {
	Dataset  string
	Rows     int
	Changed  bool
	Files    []string
	Duration time.Duration
}

// Pipeline drives fetch -> change gate -> conditional writes for one dataset.
type Pipeline struct {
	source    Source
	writers   []Writer
	outputDir string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. metrics may be nil.
func New(source Source, writers []Writer, outputDir string, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:    source,
		writers:   writers,
		outputDir: outputDir,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one complete run. Every fetch, parse, gate, or write failure
// is fatal for the run: no partial output is ever produced because the
// fingerprint gate only passes after a complete, validated dataset exists.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	name := p.source.Name()
	start := domain.Now()
	res := Result{Dataset: name}

	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return res, p.fail(name, fmt.Errorf("create output dir: %w", err))
	}

	ds, err := p.source.Fetch(ctx)
	if err != nil {
		return res, p.fail(name, err)
	}
	if cleaner, ok := p.source.(Cleaner); ok {
		if err := cleaner.Cleanup(); err != nil {
			p.logger.Warn("scratch cleanup failed", "dataset", name, "error", err)
		}
	}

	res.Rows = len(ds.Rows)
	if p.metrics != nil {
		p.metrics.RecordsParsed.WithLabelValues(name).Add(float64(res.Rows))
		p.metrics.FetchDuration.WithLabelValues(name).Observe(domain.Now().Sub(start).Seconds())
	}

	changed, err := IsDataUpdated(ds, p.hashPath(name), p.logger)
	if err != nil {
		return res, p.fail(name, err)
	}
	if !changed {
		res.Duration = domain.Now().Sub(start)
		p.logger.Info("no changes detected, exiting without saving files",
			"dataset", name, "rows", res.Rows, "duration", res.Duration)
		p.countRun(name, "unchanged")
		return res, nil
	}

	for _, w := range p.writers {
		path := filepath.Join(p.outputDir, name+w.Ext())
		if err := w.Write(ds, path); err != nil {
			return res, p.fail(name, fmt.Errorf("write %s: %w", w.Format(), err))
		}
		p.logger.Info("saved file", "dataset", name, "format", w.Format(), "path", path)
		if p.metrics != nil {
			p.metrics.FilesWritten.WithLabelValues(name, w.Format()).Inc()
		}
		res.Files = append(res.Files, path)
	}

	res.Changed = true
	res.Duration = domain.Now().Sub(start)
	p.logger.Info("changes detected, files updated",
		"dataset", name, "rows", res.Rows, "files", len(res.Files), "duration", res.Duration)
	p.countRun(name, "changed")
	return res, nil
}

func (p *Pipeline) hashPath(name string) string {
	return filepath.Join(p.outputDir, name+".hash")
}

func (p *Pipeline) fail(name string, err error) error {
	p.countRun(name, "error")
	return fmt.Errorf("%s run failed: %w", name, err)
}

func (p *Pipeline) countRun(name, outcome string) {
	if p.metrics != nil {
		p.metrics.RunsTotal.WithLabelValues(name, outcome).Inc()
	}
}
