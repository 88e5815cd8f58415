package domain

import (
	"errors"
	"math"
	"time"
)

// ErrNoRows is returned when a region has no rows in the source table.
var ErrNoRows = errors.New("no rows for region")

// Record is one parsed row of the DPC regional table.
type Record struct {
	Date               time.Time
	Region             string
	IntensiveCare      float64 // terapia_intensiva
	TotalHospitalized  float64 // totale_ospedalizzati
	TotalPositives     float64 // totale_positivi
	PositivesVariation float64 // variazione_totale_positivi
	Recovered          float64 // dimessi_guariti
	Deaths             float64 // deceduti
	TotalCases         float64 // totale_casi
	Tests              float64 // tamponi
}

// DailyStat is a Record plus the statistics derived from it and its predecessor.
// Undefined values are NaN.
type DailyStat struct {
	Date         time.Time
	ReferenceDay string // MM-DD, used as the x axis label

	TotalCases     float64
	Tests          float64
	TotalPositives float64
	IntensiveCare  float64
	Deaths         float64

	PositivityOverall  float64
	PositivityDaily    float64
	NewPositives       float64
	GrowthRate         float64
	IntensiveCareDelta float64
}

// RegionSeries is the derived, date-ordered statistics of one region.
type RegionSeries struct {
	Region      Region
	Days        []DailyStat
	GeneratedAt time.Time
}

// Last returns the most recent day, or false for an empty series.
func (s RegionSeries) Last() (DailyStat, bool) {
	if len(s.Days) == 0 {
		return DailyStat{}, false
	}
	return s.Days[len(s.Days)-1], true
}

// Point is a defined value at a position in RegionSeries.Days.
type Point struct {
	Index int
	Day   string
	Value float64
}

// Points extracts the defined values selected by field, keeping their day index.
func (s RegionSeries) Points(field func(DailyStat) float64) []Point {
	out := make([]Point, 0, len(s.Days))
	for i, d := range s.Days {
		v := field(d)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, Point{Index: i, Day: d.ReferenceDay, Value: v})
	}
	return out
}
