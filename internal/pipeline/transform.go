package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

// RegionTransformer implements Transformer with the domain derivation.
type RegionTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a RegionTransformer.
func NewTransformer(logger *slog.Logger) *RegionTransformer {
	return &RegionTransformer{logger: logger}
}

func (t *RegionTransformer) Transform(_ context.Context, region domain.Region, records []domain.Record) (domain.RegionSeries, error) {
	series, err := domain.BuildSeries(region, records)
	if err != nil {
		return domain.RegionSeries{}, err
	}

	if last, ok := series.Last(); ok {
		t.logger.Debug("region derived",
			"region", region.Name,
			"days", len(series.Days),
			"last_day", last.Date.Format("2006-01-02"),
			"total_positives", last.TotalPositives,
		)
	}
	return series, nil
}
