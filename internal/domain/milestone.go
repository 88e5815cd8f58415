package domain

import "time"

// Milestone is a dated event drawn as a vertical marker on every chart.
type Milestone struct {
	Date  time.Time
	Label string
}

// DefaultMilestones are the national reopening phases of 2020.
var DefaultMilestones = []Milestone{
	{Date: time.Date(2020, time.May, 4, 0, 0, 0, 0, time.UTC), Label: "PHASE 2"},
	{Date: time.Date(2020, time.June, 3, 0, 0, 0, 0, time.UTC), Label: "PHASE 3"},
}

// IndexOf returns the position of the milestone's day in s.Days, or false
// when the series does not cover that day.
func (m Milestone) IndexOf(s RegionSeries) (int, bool) {
	y, mo, d := m.Date.Date()
	for i, day := range s.Days {
		dy, dmo, dd := day.Date.Date()
		if dy == y && dmo == mo && dd == d {
			return i, true
		}
	}
	return 0, false
}
