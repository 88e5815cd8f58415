package chart

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

func totalCases(d domain.DailyStat) float64        { return d.TotalCases }
func totalPositives(d domain.DailyStat) float64    { return d.TotalPositives }
func intensiveCareBeds(d domain.DailyStat) float64 { return d.IntensiveCare }
func newPositives(d domain.DailyStat) float64      { return d.NewPositives }

func infectionEvolution(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error) {
	p := newPlot(s, "Infection evolution", "Total infected", labelEvery)
	p.Y.Min = 0

	points := s.Points(totalCases)
	if err := addLine(p, points, blue, vg.Points(2), blueFill); err != nil {
		return nil, err
	}
	if err := addMilestones(p, s, milestones); err != nil {
		return nil, err
	}
	if last, ok := lastPoint(points); ok {
		if err := annotate(p, last, formatCount(last.Value)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// growthRate plots the smoothed ratio of active cases to the day before,
// with a reference line at 1 where the epidemic neither grows nor shrinks.
func growthRate(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error) {
	p := newPlot(s, "Growth rate evolution", "Growth rate", labelEvery)
	p.Y.Min, p.Y.Max = 1, 1

	points := domain.SmoothedGrowthRate(s)
	if err := addLine(p, points, blue, vg.Points(3), nil); err != nil {
		return nil, err
	}

	reference := plotter.NewFunction(func(float64) float64 { return 1 })
	reference.LineStyle.Color = green
	reference.LineStyle.Width = vg.Points(1.5)
	reference.LineStyle.Dashes = dashed
	p.Add(reference)

	if err := addMilestones(p, s, milestones); err != nil {
		return nil, err
	}
	if last, ok := lastPoint(points); ok {
		if err := annotate(p, last, strconv.FormatFloat(last.Value, 'f', 2, 64)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// infectionPeak plots currently active cases; the last value is annotated
// with its share of the resident population when that is known.
func infectionPeak(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error) {
	p := newPlot(s, "Infection peak evolution", "Number of infected", labelEvery)
	p.Y.Min = 0

	points := s.Points(totalPositives)
	if err := addLine(p, points, orange, vg.Points(3), orangeFill); err != nil {
		return nil, err
	}
	if err := addMilestones(p, s, milestones); err != nil {
		return nil, err
	}
	if last, ok := lastPoint(points); ok {
		if err := annotate(p, last, peakLabel(last.Value, s.Region.Population)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func peakLabel(active float64, population int) string {
	if population <= 0 {
		return formatCount(active)
	}
	share := active / float64(population) * 100
	return fmt.Sprintf("%s (%.2f%% of residents)", formatCount(active), share)
}

func intensiveCare(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error) {
	p := newPlot(s, "Intensive care", "People in intensive care", labelEvery)
	p.Y.Min = 0

	points := s.Points(intensiveCareBeds)
	if err := addLine(p, points, blue, vg.Points(2), blueFill); err != nil {
		return nil, err
	}
	if err := addMilestones(p, s, milestones); err != nil {
		return nil, err
	}
	if last, ok := lastPoint(points); ok {
		if err := annotate(p, last, formatCount(last.Value)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// newCases draws the day-over-day change in active cases as bars. Days
// where the change is undefined or not finite get an empty bar.
func newCases(s domain.RegionSeries, labelEvery int, milestones []domain.Milestone) (*plot.Plot, error) {
	p := newPlot(s, "New cases", "Daily change in active cases", labelEvery)

	n := len(s.Days)
	if n == 0 {
		return p, nil
	}

	values := make(plotter.Values, n)
	for i, d := range s.Days {
		if v := d.NewPositives; !math.IsNaN(v) && !math.IsInf(v, 0) {
			values[i] = v
		}
	}

	bars, err := plotter.NewBarChart(values, vg.Points(math.Max(1, 900/float64(n))))
	if err != nil {
		return nil, fmt.Errorf("build bars: %w", err)
	}
	bars.Color = red
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	if err := addMilestones(p, s, milestones); err != nil {
		return nil, err
	}

	points := s.Points(newPositives)
	if last, ok := lastPoint(points); ok {
		if err := annotate(p, last, formatCount(last.Value)); err != nil {
			return nil, err
		}
	}
	return p, nil
}
