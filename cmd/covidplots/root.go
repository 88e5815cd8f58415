package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/couchcryptid/covid-region-plots/internal/adapter/chart"
	"github.com/couchcryptid/covid-region-plots/internal/adapter/dpc"
	kafkaadapter "github.com/couchcryptid/covid-region-plots/internal/adapter/kafka"
	"github.com/couchcryptid/covid-region-plots/internal/adapter/xlsx"
	"github.com/couchcryptid/covid-region-plots/internal/config"
	"github.com/couchcryptid/covid-region-plots/internal/domain"
	"github.com/couchcryptid/covid-region-plots/internal/observability"
	"github.com/couchcryptid/covid-region-plots/internal/pipeline"
)

// options holds the command-line overrides of the environment configuration.
type options struct {
	regions    []string
	outputDir  string
	sourceURL  string
	labelEvery int
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "covidplots",
		Short: "Render per-region COVID-19 charts from the Civil Protection dataset",
		Long: `covidplots downloads the regional COVID-19 table published by the Italian
Dipartimento della Protezione Civile once, derives daily statistics for each
region and writes five PNG charts per region into <output-dir>/<region>/.

Examples:
  covidplots
  covidplots --region Lombardia --region Veneto
  covidplots --output-dir /tmp/plots --label-every 7`,
		SilenceUsage: true,
	}

	opts := bindFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd.Flags(), opts)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	}

	cmd.AddCommand(newRegionsCmd())
	return cmd
}

func bindFlags(fs *pflag.FlagSet) *options {
	opts := &options{}
	fs.StringSliceVar(&opts.regions, "region", nil, "region to render, repeatable (default: every region)")
	fs.StringVar(&opts.outputDir, "output-dir", "", "root directory for the region folders (env OUTPUT_DIR)")
	fs.StringVar(&opts.sourceURL, "source-url", "", "URL of the regional CSV (env DPC_CSV_URL)")
	fs.IntVar(&opts.labelEvery, "label-every", 0, "label one day out of N on the x axis (env LABEL_EVERY)")
	return opts
}

// loadConfig reads the environment and applies the flags that were set.
func loadConfig(fs *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if fs.Changed("region") {
		cfg.Regions = opts.regions
	}
	if fs.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if fs.Changed("source-url") {
		cfg.SourceURL = opts.sourceURL
	}
	if fs.Changed("label-every") {
		cfg.LabelEvery = opts.labelEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	runID := uuid.NewString()
	logger := observability.NewLogger(cfg).With("run_id", runID)
	metrics := observability.NewMetrics()

	all, err := domain.LoadRegions(cfg.RegionsFile)
	if err != nil {
		return err
	}
	regions, err := domain.SelectRegions(all, cfg.Regions)
	if err != nil {
		return err
	}

	sinks := []pipeline.Sink{
		{Name: "charts", Loader: chart.NewRenderer(cfg.OutputDir, cfg.LabelEvery, logger)},
	}
	if cfg.XLSXEnabled {
		sinks = append(sinks, pipeline.Sink{Name: "xlsx", Loader: xlsx.NewExporter(cfg.OutputDir, logger)})
		logger.Info("workbook export enabled")
	}

	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, runID, logger)
		sinks = append(sinks, pipeline.Sink{Name: "kafka", Loader: writer})
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	extractor := dpc.NewClient(cfg.SourceURL, cfg.FetchTimeout, metrics, logger)
	p := pipeline.New(extractor, pipeline.NewTransformer(logger), sinks, regions, logger, metrics)

	runErr := p.Run(ctx)
	if runErr != nil {
		logger.Error("pipeline error", "error", runErr)
	}

	shutdown(cfg, writer, prometheus.DefaultGatherer, logger)
	return runErr
}

// shutdown releases the sinks and pushes the run's metrics. It gets its own
// deadline so it still runs after the run context was cancelled.
func shutdown(cfg *config.Config, writer *kafkaadapter.Writer, g prometheus.Gatherer, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	if cfg.PushgatewayURL != "" {
		start := time.Now()
		if err := observability.PushMetrics(ctx, cfg.PushgatewayURL, cfg.MetricsJob, g); err != nil {
			logger.Error("metrics push failed", "error", err)
		} else {
			logger.Info("metrics pushed", "url", cfg.PushgatewayURL, "duration", time.Since(start))
		}
	}

	logger.Info("shutdown complete")
}
