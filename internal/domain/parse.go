package domain

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Column names of the DPC regional table.
const (
	ColDate               = "data"
	ColRegion             = "denominazione_regione"
	ColIntensiveCare      = "terapia_intensiva"
	ColTotalHospitalized  = "totale_ospedalizzati"
	ColTotalPositives     = "totale_positivi"
	ColPositivesVariation = "variazione_totale_positivi"
	ColRecovered          = "dimessi_guariti"
	ColDeaths             = "deceduti"
	ColTotalCases         = "totale_casi"
	ColTests              = "tamponi"
)

var requiredColumns = []string{
	ColDate,
	ColRegion,
	ColIntensiveCare,
	ColTotalPositives,
	ColPositivesVariation,
	ColTotalCases,
	ColTests,
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCSV reads the DPC regional table. Columns are located by header name,
// so extra or reordered columns are fine. A missing required column or a
// malformed cell is an error; empty numeric cells become NaN.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("parse csv: empty input")
		}
		return nil, fmt.Errorf("parse csv header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("parse csv: missing column %q", name)
		}
	}

	var records []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}

		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, idx map[string]int) (Record, error) {
	cell := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := parseDate(cell(ColDate))
	if err != nil {
		return Record{}, err
	}

	rec := Record{Date: date, Region: cell(ColRegion)}
	fields := []struct {
		col string
		dst *float64
	}{
		{ColIntensiveCare, &rec.IntensiveCare},
		{ColTotalHospitalized, &rec.TotalHospitalized},
		{ColTotalPositives, &rec.TotalPositives},
		{ColPositivesVariation, &rec.PositivesVariation},
		{ColRecovered, &rec.Recovered},
		{ColDeaths, &rec.Deaths},
		{ColTotalCases, &rec.TotalCases},
		{ColTests, &rec.Tests},
	}
	for _, f := range fields {
		v, err := parseNumber(cell(f.col))
		if err != nil {
			return Record{}, fmt.Errorf("column %s: %w", f.col, err)
		}
		*f.dst = v
	}
	return rec, nil
}

// parseNumber parses a numeric cell, returning NaN for an empty one.
// Only finite values are accepted: ParseFloat also takes "Inf" and "NaN".
func parseNumber(s string) (float64, error) {
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: invalid date %q", ColDate, s)
}
