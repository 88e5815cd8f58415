// Package chart renders the fixed set of per-region PNG charts.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

// Renderer writes every chart of a region into its own directory under root.
// It implements pipeline.Loader.
type Renderer struct {
	root       string
	labelEvery int
	milestones []domain.Milestone
	logger     *slog.Logger
}

// NewRenderer creates a Renderer. labelEvery controls how many day labels the
// x axis skips between two shown ones.
func NewRenderer(root string, labelEvery int, logger *slog.Logger) *Renderer {
	return &Renderer{
		root:       root,
		labelEvery: labelEvery,
		milestones: domain.DefaultMilestones,
		logger:     logger,
	}
}

type chart struct {
	name  string
	build func(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error)
}

var charts = []chart{
	{name: "infection_evolution", build: infectionEvolution},
	{name: "growth_rate", build: growthRate},
	{name: "peak_evolution", build: infectionPeak},
	{name: "intensive_care", build: intensiveCare},
	{name: "new_cases", build: newCases},
}

// FileNames lists the chart files produced for region, in render order.
func FileNames(region domain.Region) []string {
	names := make([]string, len(charts))
	for i, c := range charts {
		names[i] = fileName(c.name, region)
	}
	return names
}

func fileName(chart string, region domain.Region) string {
	return fmt.Sprintf("%s_%s.png", chart, region.DirName())
}

// Load replaces the region's directory with a fresh set of charts. Every
// chart is built before the directory is reset, so a build failure leaves
// the previous charts in place.
func (r *Renderer) Load(ctx context.Context, series domain.RegionSeries) error {
	plots := make([]*plot.Plot, len(charts))
	for i, c := range charts {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := c.build(series, r.labelEvery, r.milestones)
		if err != nil {
			return fmt.Errorf("%s chart: %w", c.name, err)
		}
		plots[i] = p
	}

	dir, err := r.PrepareDir(series.Region)
	if err != nil {
		return err
	}

	for i, c := range charts {
		path := filepath.Join(dir, fileName(c.name, series.Region))
		if err := plots[i].Save(figureWidth, figureHeight, path); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		r.logger.Debug("chart written", "region", series.Region.Name, "path", path)
	}
	return nil
}

// PrepareDir removes the region's previous output and recreates an empty
// directory. A missing directory is not an error.
func (r *Renderer) PrepareDir(region domain.Region) (string, error) {
	dir := region.Dir(r.root)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("remove old plots: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create plot directory: %w", err)
	}
	return dir, nil
}
