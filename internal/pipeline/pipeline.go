package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
	"github.com/couchcryptid/covid-region-plots/internal/observability"
)

// Extractor reads the whole source table.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.Record, error)
}

// Transformer turns the source rows into one region's derived series.
type Transformer interface {
	Transform(ctx context.Context, region domain.Region, records []domain.Record) (domain.RegionSeries, error)
}

// Loader writes a region's series to a destination.
type Loader interface {
	Load(ctx context.Context, series domain.RegionSeries) error
}

// Sink is a named Loader. The name labels its metrics and log lines.
type Sink struct {
	Name   string
	Loader Loader
}

// Pipeline runs one extract, then transform and load per region.
type Pipeline struct {
	extractor   Extractor
	transformer Transformer
	sinks       []Sink
	regions     []domain.Region
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline with the given stages and observability. Sinks run
// in the given order for every region.
func New(e Extractor, t Transformer, sinks []Sink, regions []domain.Region, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		sinks:       sinks,
		regions:     regions,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes a single batch. An extract failure aborts the run. Transform
// and sink failures are logged and returned joined once every region has
// been attempted. Cancellation is checked between regions.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.logger.Info("pipeline started", "regions", len(p.regions), "sinks", len(p.sinks))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	var errs []error
	processed, skipped := 0, 0
	for _, region := range p.regions {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err)
			errs = append(errs, err)
			break
		}

		ok, regionErrs := p.processRegion(ctx, region, records)
		errs = append(errs, regionErrs...)
		if ok {
			processed++
		} else {
			skipped++
		}
	}

	p.logger.Info("pipeline finished",
		"processed", processed,
		"skipped", skipped,
		"errors", len(errs),
		"duration", time.Since(start),
	)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p.metrics.LastSuccessTimestamp.SetToCurrentTime()
	return nil
}

// processRegion transforms one region and hands it to every sink. It reports
// false when the region produced no series.
func (p *Pipeline) processRegion(ctx context.Context, region domain.Region, records []domain.Record) (bool, []error) {
	series, err := p.transformer.Transform(ctx, region, records)
	if errors.Is(err, domain.ErrNoRows) {
		p.logger.Warn("no rows for region, skipping", "region", region.Name)
		p.metrics.RegionsSkipped.Inc()
		return false, nil
	}
	if err != nil {
		p.logger.Error("transform failed", "region", region.Name, "error", err)
		p.metrics.TransformErrors.Inc()
		return false, []error{fmt.Errorf("transform %s: %w", region.Name, err)}
	}

	var errs []error
	for _, sink := range p.sinks {
		start := time.Now()
		err := sink.Loader.Load(ctx, series)
		p.metrics.SinkDuration.WithLabelValues(sink.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			p.logger.Error("load failed", "region", region.Name, "sink", sink.Name, "error", err)
			p.metrics.SinkErrors.WithLabelValues(sink.Name).Inc()
			errs = append(errs, fmt.Errorf("%s %s: %w", sink.Name, region.Name, err))
		}
	}

	p.metrics.RegionsProcessed.Inc()
	p.logger.Info("region processed", "region", region.Name, "days", len(series.Days))
	return true, errs
}
