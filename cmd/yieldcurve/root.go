package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"yieldcurve-lab/internal/config"
	"yieldcurve-lab/internal/logging"
	"yieldcurve-lab/internal/observability"
	"yieldcurve-lab/internal/pipeline"
	"yieldcurve-lab/internal/storage/stores"
)

// app holds state shared by all subcommands for one invocation.
type app struct {
	configPath  string
	logLevel    string
	dbURL       string
	curveName   string
	metricsFile string

	cfg     *config.Config
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "yieldcurve",
		Short:         "Yield curve downloader & visualizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML config file (optional)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	flags.StringVar(&a.dbURL, "db-url", "", "storage location override, e.g. sqlite:///yield_curves.db")
	flags.StringVar(&a.curveName, "curve", "", "curve name override (default UST)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write run metrics to this Prometheus textfile")

	root.AddCommand(
		newDownloadCmd(a),
		newRenderCurveCmd(a),
		newRenderSpreadsCmd(a),
		newMigrateCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var overrides []config.Override
	if cmd.Flags().Changed("log-level") {
		overrides = append(overrides, func(c *config.Config) { c.Log.Level = a.logLevel })
	}
	if cmd.Flags().Changed("db-url") {
		overrides = append(overrides, func(c *config.Config) { c.DBURL = a.dbURL })
	}
	if cmd.Flags().Changed("curve") {
		overrides = append(overrides, func(c *config.Config) { c.CurveName = a.curveName })
	}

	cfg, err := config.Load(a.configPath, overrides...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.metrics = observability.NewMetrics("")
	return nil
}

// run opens the configured store, hands a pipeline to fn and always closes
// the store and flushes the metrics textfile.
func (a *app) run(ctx context.Context, fn func(*pipeline.Pipeline, *stores.Handle) error) (err error) {
	defer func() {
		if werr := a.metrics.WriteTextfile(a.metricsFile); werr != nil && err == nil {
			err = werr
		}
	}()

	h, err := stores.Open(ctx, a.cfg.DBURL, stores.Options{Logger: a.logger, Metrics: a.metrics})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	p := pipeline.New(h.Store, a.cfg.CurveName).
		WithLogger(a.logger).
		WithObservability(a.metrics).
		WithSeries(a.cfg.Series).
		WithMetrics(a.cfg.Metrics)

	return fn(p, h)
}
