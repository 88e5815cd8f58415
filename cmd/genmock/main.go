// Command genmock cuts a small fixture out of the full DPC regional CSV and
// writes the statistics the pipeline derives from it. It uses the real domain
// package so the expected values match pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv dpc-covid19-ita-regioni.csv \
//	  -regions Lombardia,Molise \
//	  -days 6 \
//	  -csv-out internal/domain/testdata/dpc-covid19-ita-regioni-sample.csv \
//	  -json-out internal/domain/testdata/expected-stats.json
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	kafkaadapter "github.com/couchcryptid/covid-region-plots/internal/adapter/kafka"
	"github.com/couchcryptid/covid-region-plots/internal/config"
	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

var generatedAt = time.Date(2020, time.June, 1, 18, 0, 0, 0, time.UTC)

const runID = "genmock"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "full DPC regional CSV")
	regions := flag.String("regions", "", "comma-separated regions to keep")
	days := flag.Int("days", 0, "keep only the first N days of each region (0 keeps all)")
	csvOut := flag.String("csv-out", "", "output path for the CSV fixture")
	jsonOut := flag.String("json-out", "", "output path for the derived stats fixture")
	flag.Parse()

	names := config.ParseList(*regions)
	if *csvPath == "" || *csvOut == "" || *jsonOut == "" || len(names) == 0 {
		flag.Usage()
		return errors.New("missing required flags: -csv, -regions, -csv-out, -json-out")
	}

	// Fixed clock for reproducible generated_at values.
	domain.SetClock(clockwork.NewFakeClockAt(generatedAt))
	defer domain.SetClock(nil)

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	var cut bytes.Buffer
	kept, err := cutRows(f, &cut, names, *days)
	if err != nil {
		return fmt.Errorf("cut %s: %w", *csvPath, err)
	}
	log.Printf("kept %d rows", kept)

	if err := writeFile(*csvOut, cut.Bytes()); err != nil {
		return fmt.Errorf("writing CSV fixture: %w", err)
	}
	log.Printf("wrote CSV fixture: %s", *csvOut)

	records, err := domain.ParseCSV(bytes.NewReader(cut.Bytes()))
	if err != nil {
		return fmt.Errorf("parse fixture: %w", err)
	}

	stats, series, err := buildStats(records, names)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFile(*jsonOut, append(data, '\n')); err != nil {
		return fmt.Errorf("writing stats fixture: %w", err)
	}
	log.Printf("wrote stats fixture: %s", *jsonOut)

	printStats(series)
	return nil
}

// buildStats derives every named region in order. Regions without rows are
// logged and left out.
func buildStats(records []domain.Record, names []string) ([]kafkaadapter.DailyStatMessage, []domain.RegionSeries, error) {
	var stats []kafkaadapter.DailyStatMessage //nolint:prealloc // size depends on CSV contents
	var series []domain.RegionSeries           //nolint:prealloc // size depends on CSV contents
	for _, name := range names {
		s, err := domain.BuildSeries(domain.Region{Name: name}, records)
		if errors.Is(err, domain.ErrNoRows) {
			log.Printf("%s: no rows", name)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		for _, d := range s.Days {
			stats = append(stats, kafkaadapter.NewDailyStatMessage(s, d, runID))
		}
		series = append(series, s)
	}
	return stats, series, nil
}

// cutRows copies the header and the rows of the named regions from r to w,
// keeping at most days rows per region when days is positive.
func cutRows(r io.Reader, w io.Writer, regions []string, days int) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	regionCol := -1
	for i, h := range header {
		if strings.TrimPrefix(strings.TrimSpace(h), "\ufeff") == domain.ColRegion {
			regionCol = i
		}
	}
	if regionCol < 0 {
		return 0, fmt.Errorf("missing column %q", domain.ColRegion)
	}

	want := make(map[string]int, len(regions))
	for _, name := range regions {
		want[name] = 0
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, err
	}

	kept := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return kept, err
		}
		if regionCol >= len(row) {
			continue
		}
		n, ok := want[row[regionCol]]
		if !ok || (days > 0 && n >= days) {
			continue
		}
		if err := writer.Write(row); err != nil {
			return kept, err
		}
		want[row[regionCol]] = n + 1
		kept++
	}

	writer.Flush()
	return kept, writer.Error()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func printStats(series []domain.RegionSeries) {
	fmt.Println("\n=== Stats for updating test assertions ===")
	for _, s := range series {
		last, ok := s.Last()
		if !ok {
			continue
		}
		smoothed := domain.SmoothedGrowthRate(s)
		fmt.Printf("%s: %d days, %s .. %s\n", s.Region.Name, len(s.Days),
			s.Days[0].Date.Format("2006-01-02"), last.Date.Format("2006-01-02"))
		fmt.Printf("  last: total_cases=%g total_positives=%g intensive_care=%g\n",
			last.TotalCases, last.TotalPositives, last.IntensiveCare)
		fmt.Printf("  last: new_positives=%s growth_rate=%s ic_delta=%s\n",
			formatStat(last.NewPositives), formatStat(last.GrowthRate), formatStat(last.IntensiveCareDelta))
		fmt.Printf("  smoothed growth rate points: %d\n", len(smoothed))
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%g", v)
}
