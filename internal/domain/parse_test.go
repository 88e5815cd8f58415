package domain

import (
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "testdata/dpc-covid19-ita-regioni-sample.csv"

func loadSample(t *testing.T) []Record {
	t.Helper()
	f, err := os.Open(sampleCSV)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	records, err := ParseCSV(f)
	require.NoError(t, err)
	return records
}

func TestParseCSV_Sample(t *testing.T) {
	records := loadSample(t)
	require.Len(t, records, 9)

	first := records[0]
	assert.Equal(t, time.Date(2020, time.May, 1, 17, 0, 0, 0, time.UTC), first.Date)
	assert.Equal(t, "Lombardia", first.Region)
	assert.Equal(t, 600.0, first.IntensiveCare)
	assert.Equal(t, 6600.0, first.TotalHospitalized)
	assert.Equal(t, 35000.0, first.TotalPositives)
	assert.Equal(t, -150.0, first.PositivesVariation)
	assert.Equal(t, 27000.0, first.Recovered)
	assert.Equal(t, 14000.0, first.Deaths)
	assert.Equal(t, 76000.0, first.TotalCases)
	assert.Equal(t, 400000.0, first.Tests)

	assert.Equal(t, "Molise", records[1].Region)
}

func TestParseCSV_EmptyCellIsNaN(t *testing.T) {
	records := loadSample(t)
	molise := SubsetToRegion(records, "Molise")
	require.Len(t, molise, 3)
	assert.True(t, math.IsNaN(molise[2].Tests))
}

func TestParseCSV_ReorderedAndMissingOptionalColumns(t *testing.T) {
	in := "tamponi,totale_casi,denominazione_regione,data,terapia_intensiva,totale_positivi,variazione_totale_positivi\n" +
		"100,10,Umbria,2020-03-01 18:00:00,1,8,2\n"

	records, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Umbria", r.Region)
	assert.Equal(t, 100.0, r.Tests)
	assert.Equal(t, 10.0, r.TotalCases)
	assert.Equal(t, 8.0, r.TotalPositives)
	assert.Equal(t, time.Date(2020, time.March, 1, 18, 0, 0, 0, time.UTC), r.Date)
	assert.True(t, math.IsNaN(r.Deaths))
	assert.True(t, math.IsNaN(r.Recovered))
}

func TestParseCSV_ByteOrderMark(t *testing.T) {
	in := "\ufeffdata,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
		"2020-03-01T18:00:00,Umbria,1,8,2,10,100\n"

	records, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestParseCSV_Errors(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "empty input",
			input:   "",
			wantErr: "empty input",
		},
		{
			name:    "missing required column",
			input:   "data,denominazione_regione,totale_casi\n2020-03-01T18:00:00,Umbria,10\n",
			wantErr: `missing column "terapia_intensiva"`,
		},
		{
			name: "bad number",
			input: "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
				"2020-03-01T18:00:00,Umbria,one,8,2,10,100\n",
			wantErr: "line 2: column terapia_intensiva",
		},
		{
			name: "infinite number",
			input: "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
				"2020-03-01T18:00:00,Umbria,1,Inf,2,10,100\n",
			wantErr: `line 2: column totale_positivi: invalid number "Inf"`,
		},
		{
			name: "signed infinity",
			input: "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
				"2020-03-01T18:00:00,Umbria,1,8,2,10,-infinity\n",
			wantErr: "line 2: column tamponi",
		},
		{
			name: "NaN literal",
			input: "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
				"2020-03-01T18:00:00,Umbria,1,8,NaN,10,100\n",
			wantErr: `column variazione_totale_positivi: invalid number "NaN"`,
		},
		{
			name: "bad date",
			input: "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n" +
				"01/03/2020,Umbria,1,8,2,10,100\n",
			wantErr: "invalid date",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCSV(strings.NewReader(tc.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	in := "data,denominazione_regione,terapia_intensiva,totale_positivi,variazione_totale_positivi,totale_casi,tamponi\n"
	records, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Empty(t, records)
}
