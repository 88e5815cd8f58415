package chart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot"

	"github.com/couchcryptid/covid-region-plots/internal/domain"
)

const sampleCSV = "../../domain/testdata/dpc-covid19-ita-regioni-sample.csv"

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleSeries(t *testing.T, region domain.Region) domain.RegionSeries {
	t.Helper()
	f, err := os.Open(sampleCSV)
	require.NoError(t, err)
	defer f.Close()

	records, err := domain.ParseCSV(f)
	require.NoError(t, err)

	s, err := domain.BuildSeries(region, records)
	require.NoError(t, err)
	return s
}

func testRenderer(root string) *Renderer {
	return NewRenderer(root, 2, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRenderer_Load_WritesAllCharts(t *testing.T) {
	root := t.TempDir()
	region := domain.Region{Name: "Lombardia", Population: 10027602}

	require.NoError(t, testRenderer(root).Load(context.Background(), sampleSeries(t, region)))

	entries, err := os.ReadDir(region.Dir(root))
	require.NoError(t, err)
	require.Len(t, entries, 5)

	for _, name := range FileNames(region) {
		data, err := os.ReadFile(filepath.Join(root, "Lombardia", name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", name)
	}
}

func TestRenderer_Load_SparseRegion(t *testing.T) {
	// Molise has no swabs on the last day and too few growth rates to smooth.
	root := t.TempDir()
	region := domain.Region{Name: "Molise"}

	require.NoError(t, testRenderer(root).Load(context.Background(), sampleSeries(t, region)))

	for _, name := range FileNames(region) {
		assert.FileExists(t, filepath.Join(root, "Molise", name))
	}
}

func assertAllCharts(t *testing.T, root string, region domain.Region) {
	t.Helper()
	for _, name := range FileNames(region) {
		data, err := os.ReadFile(filepath.Join(region.Dir(root), name))
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, pngMagic), "%s is not a PNG", name)
	}
}

func TestRenderer_Load_EmptySeries(t *testing.T) {
	root := t.TempDir()
	region := domain.Region{Name: "Basilicata", Population: 545130}

	require.NoError(t, testRenderer(root).Load(context.Background(), domain.RegionSeries{Region: region}))
	assertAllCharts(t, root, region)
}

func TestRenderer_Load_UndefinedValues(t *testing.T) {
	nan := math.NaN()
	day := func(d int) domain.DailyStat {
		return domain.DailyStat{
			Date:               time.Date(2020, time.May, d, 17, 0, 0, 0, time.UTC),
			ReferenceDay:       time.Date(2020, time.May, d, 0, 0, 0, 0, time.UTC).Format("01-02"),
			TotalCases:         nan,
			Tests:              nan,
			TotalPositives:     nan,
			IntensiveCare:      nan,
			Deaths:             nan,
			PositivityOverall:  nan,
			PositivityDaily:    nan,
			NewPositives:       nan,
			GrowthRate:         nan,
			IntensiveCareDelta: nan,
		}
	}

	cases := []struct {
		name string
		days []domain.DailyStat
	}{
		{name: "single row", days: []domain.DailyStat{day(4)}},
		{name: "every column NaN", days: []domain.DailyStat{day(3), day(4), day(5)}},
		{name: "infinite new cases", days: func() []domain.DailyStat {
			days := []domain.DailyStat{day(3), day(4)}
			days[1].NewPositives = math.Inf(1)
			return days
		}()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := t.TempDir()
			region := domain.Region{Name: "Calabria"}
			series := domain.RegionSeries{Region: region, Days: tc.days}

			require.NoError(t, testRenderer(root).Load(context.Background(), series))
			assertAllCharts(t, root, region)
		})
	}
}

func TestRenderer_Load_BuildErrorKeepsPreviousCharts(t *testing.T) {
	root := t.TempDir()
	region := domain.Region{Name: "Lombardia"}
	r := testRenderer(root)
	require.NoError(t, r.Load(context.Background(), sampleSeries(t, region)))

	saved := charts
	t.Cleanup(func() { charts = saved })
	charts = append(append([]chart{}, saved[:2]...), chart{
		name: "broken",
		build: func(domain.RegionSeries, int, []domain.Milestone) (*plot.Plot, error) {
			return nil, errors.New("no data")
		},
	})

	err := r.Load(context.Background(), sampleSeries(t, region))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken chart")

	charts = saved
	assertAllCharts(t, root, region)
}

func TestRenderer_Load_RemovesStaleFiles(t *testing.T) {
	root := t.TempDir()
	region := domain.Region{Name: "Lombardia"}
	dir := region.Dir(root)

	require.NoError(t, os.MkdirAll(dir, 0o755))
	stale := filepath.Join(dir, "old_chart.png")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o600))

	require.NoError(t, testRenderer(root).Load(context.Background(), sampleSeries(t, region)))

	assert.NoFileExists(t, stale)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRenderer_Load_CancelledContext(t *testing.T) {
	root := t.TempDir()
	region := domain.Region{Name: "Lombardia"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := testRenderer(root).Load(ctx, sampleSeries(t, region))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderer_PrepareDir_Missing(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "out")

	dir, err := testRenderer(root).PrepareDir(domain.Region{Name: "Umbria"})
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(root, "Umbria"), dir)
}

func TestFileNames(t *testing.T) {
	assert.Equal(t, []string{
		"infection_evolution_Veneto.png",
		"growth_rate_Veneto.png",
		"peak_evolution_Veneto.png",
		"intensive_care_Veneto.png",
		"new_cases_Veneto.png",
	}, FileNames(domain.Region{Name: "Veneto"}))
}

func TestDayTicker(t *testing.T) {
	days := []string{"05-01", "05-02", "05-03", "05-04", "05-05"}

	ticks := dayTicker{days: days, every: 2}.Ticks(0, 4)
	require.Len(t, ticks, 3)
	assert.Equal(t, "05-01", ticks[0].Label)
	assert.Equal(t, "05-03", ticks[1].Label)
	assert.InDelta(t, 4.0, ticks[2].Value, 0)

	assert.Len(t, dayTicker{days: days, every: 0}.Ticks(0, 4), 5, "non-positive step labels every day")
	assert.Len(t, dayTicker{days: days, every: 1}.Ticks(1, 2), 2, "ticks outside the range are dropped")
}

func TestPeakLabel(t *testing.T) {
	assert.Equal(t, "35900 (0.36% of residents)", peakLabel(35900, 10027602))
	assert.Equal(t, "10", peakLabel(10, 0))
}
