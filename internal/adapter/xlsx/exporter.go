// Package xlsx writes a region's derived statistics to an Excel workbook.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

// SheetName is the worksheet holding the statistics.
const SheetName = "stats"

// Header is the first row of the sheet.
var Header = []string{
	"date",
	"reference_day",
	"total_cases",
	"tests",
	"total_positives",
	"intensive_care",
	"deaths",
	"positivity_overall",
	"positivity_daily",
	"new_positives",
	"growth_rate",
	"intensive_care_delta",
}

// Exporter writes stats_<region>.xlsx next to the region's charts.
// It implements pipeline.Loader.
type Exporter struct {
	root   string
	logger *slog.Logger
}

// NewExporter creates an Exporter writing below root.
func NewExporter(root string, logger *slog.Logger) *Exporter {
	return &Exporter{root: root, logger: logger}
}

// FileName is the workbook name for region.
func FileName(region domain.Region) string {
	return fmt.Sprintf("stats_%s.xlsx", region.DirName())
}

// Load writes one header row and one row per day. Undefined values are left blank.
func (e *Exporter) Load(ctx context.Context, series domain.RegionSeries) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := series.Region.Dir(e.root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.logger.Warn("close workbook", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetColWidth(SheetName, "A", "L", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, d := range series.Days {
		if err := writeRow(f, i+2, d); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	path := filepath.Join(dir, FileName(series.Region))
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	e.logger.Debug("workbook written", "region", series.Region.Name, "path", path, "rows", len(series.Days))
	return nil
}

func writeRow(f *excelize.File, row int, d domain.DailyStat) error {
	values := []any{
		d.Date.Format("2006-01-02"),
		d.ReferenceDay,
		d.TotalCases,
		d.Tests,
		d.TotalPositives,
		d.IntensiveCare,
		d.Deaths,
		d.PositivityOverall,
		d.PositivityDaily,
		d.NewPositives,
		d.GrowthRate,
		d.IntensiveCareDelta,
	}
	for col, v := range values {
		if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}
