// Command assets runs the wind-asset geodata pipelines: it downloads the
// Austro Control obstacle dataset and the NOE permitting dataset, normalizes
// them, and rewrites the GeoJSON/GPKG output files when the content changed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/windgrid/gis-assets-etl/internal/adapter/austro"
	"github.com/windgrid/gis-assets-etl/internal/adapter/httpserv"
	"github.com/windgrid/gis-assets-etl/internal/adapter/noe"
	"github.com/windgrid/gis-assets-etl/internal/config"
	"github.com/windgrid/gis-assets-etl/internal/geofile"
	"github.com/windgrid/gis-assets-etl/internal/observability"
	"github.com/windgrid/gis-assets-etl/internal/pipeline"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	flagOutputDir string
	flagOverwrite bool
	flagListIndex int
}

// CheckReadiness satisfies httpserv.ReadinessChecker: ready once at least
// one dataset run has completed.
func (a *app) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no dataset run has completed yet")
	}
	return nil
}

func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "gis-assets",
		Short:         "Download and normalize Austrian wind-turbine geodata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-dir") {
				cfg.OutputDir = a.flagOutputDir
				cfg.CacheDir = a.flagOutputDir
			}
			if cmd.Flags().Changed("overwrite") {
				cfg.AustroOverwrite = a.flagOverwrite
			}
			if cmd.Flags().Changed("list-index") {
				if a.flagListIndex < 0 {
					return errors.New("--list-index must not be negative")
				}
				cfg.AustroListIndex = a.flagListIndex
			}
			a.cfg = cfg
			a.logger = observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
			a.metrics = observability.NewMetrics()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.flagOutputDir, "output-dir", "data", "directory for output and hash files")
	root.PersistentFlags().BoolVar(&a.flagOverwrite, "overwrite", false, "refetch the obstacle dataset even when a cached file exists")
	root.PersistentFlags().IntVar(&a.flagListIndex, "list-index", 0, "catalog publication to use, 0 = newest")

	root.AddCommand(
		&cobra.Command{
			Use:   "obstacles",
			Short: "Run the Austro Control obstacle dataset pipeline",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runAll(cmd.Context(), a.obstacleSource())
			},
		},
		&cobra.Command{
			Use:   "permits",
			Short: "Run the NOE permitting dataset pipeline",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runAll(cmd.Context(), a.permitSource())
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Run both dataset pipelines",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.runAll(cmd.Context(), a.obstacleSource(), a.permitSource())
			},
		},
	)

	return root
}

func (a *app) obstacleSource() pipeline.Source {
	return austro.NewSource(austro.Config{
		CatalogURL: a.cfg.AustroCatalogURL,
		CacheDir:   a.cfg.CacheDir,
		ListIndex:  a.cfg.AustroListIndex,
		Overwrite:  a.cfg.AustroOverwrite,
		Timeout:    a.cfg.HTTPTimeout,
	}, a.logger, a.metrics)
}

func (a *app) permitSource() pipeline.Source {
	return noe.NewSource(a.cfg.NOEGeoJSONURL, a.cfg.HTTPTimeout, a.logger, a.metrics)
}

// runAll executes the given dataset pipelines in order, aborting on the
// first failure.
func (a *app) runAll(parent context.Context, sources ...pipeline.Source) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := a.startMetricsServer()
	defer a.stopMetricsServer(srv)

	writers := []pipeline.Writer{geofile.GeoJSONWriter{}, geofile.GPKGWriter{}}

	for _, source := range sources {
		p := pipeline.New(source, writers, a.cfg.OutputDir, a.logger, a.metrics)
		res, err := p.Run(ctx)
		if err != nil {
			a.logger.Error("pipeline run failed", "dataset", source.Name(), "error", err)
			return err
		}
		a.ready.Store(true)
		if res.Changed {
			a.logger.Info("files updated and can be pushed to the repository", "dataset", res.Dataset)
		}
	}
	return nil
}

func (a *app) startMetricsServer() *httpserv.Server {
	if a.cfg.MetricsAddr == "" {
		return nil
	}
	srv := httpserv.NewServer(a.cfg.MetricsAddr, a, a.logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", "error", err)
		}
	}()
	return srv
}

func (a *app) stopMetricsServer(srv *httpserv.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
	}
}
