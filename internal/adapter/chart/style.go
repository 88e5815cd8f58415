package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

const (
	figureWidth  = 20 * vg.Inch
	figureHeight = 12 * vg.Inch
)

var (
	blue       = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	blueFill   = color.NRGBA{R: 0, G: 0, B: 255, A: 26}
	orange     = color.NRGBA{R: 255, G: 165, B: 0, A: 255}
	orangeFill = color.NRGBA{R: 255, G: 165, B: 0, A: 26}
	green      = color.NRGBA{R: 0, G: 128, B: 0, A: 255}
	red        = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
	grey       = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

	dashed = []vg.Length{vg.Points(6), vg.Points(4)}
)

// newPlot sets up the title, axes, day ticks and grid shared by every chart.
func newPlot(s domain.RegionSeries, title, yLabel string, labelEvery int) *plot.Plot {
	p := plot.New()

	p.Title.Text = fmt.Sprintf("COVID19 - %s in %s", title, s.Region.Name)
	p.Title.TextStyle.Font.Size = vg.Points(26)

	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(18)
	p.Y.Tick.Label.Font.Size = vg.Points(16)

	p.X.Label.Text = footer(s)
	p.X.Label.TextStyle.Font.Size = vg.Points(10)
	p.X.Tick.Label.Font.Size = vg.Points(16)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Marker = dayTicker{days: referenceDays(s), every: labelEvery}

	if n := len(s.Days); n > 0 {
		p.X.Min = 0
		p.X.Max = float64(n - 1)
	}

	grid := plotter.NewGrid()
	grid.Vertical.Color = grey
	grid.Vertical.Width = vg.Points(0.5)
	grid.Vertical.Dashes = dashed
	grid.Horizontal.Color = grey
	grid.Horizontal.Width = vg.Points(0.5)
	grid.Horizontal.Dashes = dashed
	p.Add(grid)

	return p
}

func footer(s domain.RegionSeries) string {
	if s.GeneratedAt.IsZero() {
		return "Source: Dipartimento della Protezione Civile"
	}
	return fmt.Sprintf("Source: Dipartimento della Protezione Civile. Generated %s", s.GeneratedAt.Format("2006-01-02 15:04 MST"))
}

func referenceDays(s domain.RegionSeries) []string {
	days := make([]string, len(s.Days))
	for i, d := range s.Days {
		days[i] = d.ReferenceDay
	}
	return days
}

// dayTicker labels every Nth day of a categorical day axis.
type dayTicker struct {
	days  []string
	every int
}

func (t dayTicker) Ticks(lo, hi float64) []plot.Tick {
	every := t.every
	if every <= 0 {
		every = 1
	}

	var ticks []plot.Tick
	for i := 0; i < len(t.days); i += every {
		x := float64(i)
		if x < lo || x > hi {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: x, Label: t.days[i]})
	}
	return ticks
}

func toXYs(points []domain.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = float64(pt.Index)
		xys[i].Y = pt.Value
	}
	return xys
}

// addLine draws points as a line; a non-nil fill shades the area below it.
// Nothing is drawn for an empty series.
func addLine(p *plot.Plot, points []domain.Point, c color.Color, width vg.Length, fill color.Color) error {
	if len(points) == 0 {
		return nil
	}
	line, err := plotter.NewLine(toXYs(points))
	if err != nil {
		return fmt.Errorf("build line: %w", err)
	}
	line.LineStyle.Color = c
	line.LineStyle.Width = width
	line.FillColor = fill
	p.Add(line)
	return nil
}

// hasYRange reports whether data has been added, so markers have a span to cover.
func hasYRange(p *plot.Plot) bool {
	return !math.IsInf(p.Y.Min, 0) && !math.IsInf(p.Y.Max, 0) && p.Y.Min <= p.Y.Max
}

// addMilestones draws a dashed vertical line and a rotated label on each
// milestone day the series covers. Call after the data has been added.
func addMilestones(p *plot.Plot, s domain.RegionSeries, milestones []domain.Milestone) error {
	if !hasYRange(p) {
		return nil
	}
	for _, m := range milestones {
		i, ok := m.IndexOf(s)
		if !ok {
			continue
		}
		x := float64(i)

		marker, err := plotter.NewLine(plotter.XYs{{X: x, Y: p.Y.Min}, {X: x, Y: p.Y.Max}})
		if err != nil {
			return fmt.Errorf("build milestone %s: %w", m.Label, err)
		}
		marker.LineStyle = draw.LineStyle{Color: blue, Width: vg.Points(1.5), Dashes: dashed}
		p.Add(marker)

		y := p.Y.Min + 0.03*(p.Y.Max-p.Y.Min)
		label, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    plotter.XYs{{X: x, Y: y}},
			Labels: []string{m.Label},
		})
		if err != nil {
			return fmt.Errorf("build milestone %s: %w", m.Label, err)
		}
		for j := range label.TextStyle {
			label.TextStyle[j].Font.Size = vg.Points(14)
			label.TextStyle[j].Rotation = math.Pi / 4
		}
		label.Offset = vg.Point{X: vg.Points(4)}
		p.Add(label)
	}
	return nil
}

// annotate writes text next to a data point.
func annotate(p *plot.Plot, pt domain.Point, text string) error {
	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: float64(pt.Index), Y: pt.Value}},
		Labels: []string{text},
	})
	if err != nil {
		return fmt.Errorf("build annotation: %w", err)
	}
	for j := range label.TextStyle {
		label.TextStyle[j].Font.Size = vg.Points(14)
		label.TextStyle[j].XAlign = draw.XRight
	}
	label.Offset = vg.Point{X: vg.Points(-4), Y: vg.Points(8)}
	p.Add(label)
	return nil
}

func lastPoint(points []domain.Point) (domain.Point, bool) {
	if len(points) == 0 {
		return domain.Point{}, false
	}
	return points[len(points)-1], true
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
