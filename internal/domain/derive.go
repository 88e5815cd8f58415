package domain

import (
	"math"
)

// GrowthRateWindow is the number of samples in the growth-rate rolling mean.
const GrowthRateWindow = 4

// SubsetToRegion returns the rows whose region name matches exactly, in source order.
func SubsetToRegion(records []Record, region string) []Record {
	var out []Record
	for _, r := range records {
		if r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// Derive computes the daily statistics of a single region's rows. Rows must
// already be filtered to one region and ordered by date.
func Derive(records []Record) []DailyStat {
	out := make([]DailyStat, len(records))
	for i, r := range records {
		d := DailyStat{
			Date:               r.Date,
			ReferenceDay:       r.Date.Format("01-02"),
			TotalCases:         r.TotalCases,
			Tests:              r.Tests,
			TotalPositives:     r.TotalPositives,
			IntensiveCare:      r.IntensiveCare,
			Deaths:             r.Deaths,
			PositivityOverall:  ratio(r.TotalCases, r.Tests),
			PositivityDaily:    math.NaN(),
			NewPositives:       math.NaN(),
			GrowthRate:         math.NaN(),
			IntensiveCareDelta: math.NaN(),
		}

		if i > 0 {
			prev := records[i-1]
			d.PositivityDaily = ratio(r.PositivesVariation, r.Tests-prev.Tests)
			d.NewPositives = r.TotalPositives - prev.TotalPositives
			d.GrowthRate = ratio(r.TotalPositives, prev.TotalPositives)
			d.IntensiveCareDelta = r.IntensiveCare - prev.IntensiveCare
		}

		out[i] = d
	}
	return out
}

// ratio divides num by den, returning NaN when the result is undefined
// (zero or NaN denominator, NaN numerator).
func ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) || math.IsNaN(num) {
		return math.NaN()
	}
	return num / den
}

// RollingMean returns the trailing mean over window samples. Position i is NaN
// while fewer than window samples are available or when any sample in the
// window is NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 {
		return out
	}

	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		defined := true
		for _, v := range values[i-window+1 : i+1] {
			if math.IsNaN(v) {
				defined = false
				break
			}
			sum += v
		}
		if defined {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// SmoothedGrowthRate drops undefined growth rates, applies a trailing
// GrowthRateWindow mean and drops the warm-up values. Each point keeps the
// index of its day in s.Days so it lines up with the other charts.
func SmoothedGrowthRate(s RegionSeries) []Point {
	raw := s.Points(func(d DailyStat) float64 { return d.GrowthRate })

	values := make([]float64, len(raw))
	for i, p := range raw {
		values[i] = p.Value
	}
	means := RollingMean(values, GrowthRateWindow)

	out := make([]Point, 0, len(raw))
	for i, m := range means {
		if math.IsNaN(m) {
			continue
		}
		p := raw[i]
		p.Value = m
		out = append(out, p)
	}
	return out
}

// BuildSeries filters records to region, derives its statistics and stamps
// the generation time. Returns ErrNoRows when the region has no rows.
func BuildSeries(region Region, records []Record) (RegionSeries, error) {
	rows := SubsetToRegion(records, region.Name)
	if len(rows) == 0 {
		return RegionSeries{}, ErrNoRows
	}
	return RegionSeries{
		Region:      region,
		Days:        Derive(rows),
		GeneratedAt: clock.Now().UTC(),
	}, nil
}
