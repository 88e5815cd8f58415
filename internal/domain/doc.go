// Package domain models the Italian Civil Protection (DPC) regional COVID-19
// time series and the daily statistics derived from it.
//
// # Data Source
//
// The DPC publishes one CSV for all regions at
// https://github.com/pcm-dpc/COVID-19 (dati-regioni/dpc-covid19-ita-regioni.csv).
// Each row is one region on one day, rows are appended daily, and the file is
// ordered by date and then by region code.
//
// # DPC Column Conventions
//
// Column names are Italian and stable. The ones read here:
//
//	data                        ISO timestamp, "2020-02-24T18:00:00"
//	denominazione_regione       region name, e.g. "Lombardia", "P.A. Trento"
//	terapia_intensiva           patients currently in intensive care
//	totale_ospedalizzati        patients currently hospitalized (optional)
//	totale_positivi             currently active positive cases
//	variazione_totale_positivi  day-over-day change in totale_positivi
//	dimessi_guariti             cumulative recovered (optional)
//	deceduti                    cumulative deaths (optional)
//	totale_casi                 cumulative confirmed cases
//	tamponi                     cumulative swabs performed
//
// Cumulative columns occasionally decrease when the source region corrects
// earlier reports, so day-over-day deltas can be negative.
//
// Empty cells are common in columns added after the first weeks of
// publication and are read as NaN.
//
// # Derived Statistics
//
// [Derive] computes, for each row i with predecessor i-1:
//
//	positivity overall   totale_casi / tamponi
//	positivity daily     variazione_totale_positivi / (tamponi - tamponi[i-1])
//	new positives        totale_positivi - totale_positivi[i-1]
//	growth rate          totale_positivi / totale_positivi[i-1]
//	ICU delta            terapia_intensiva - terapia_intensiva[i-1]
//
// The first row has no predecessor, so every delta-based value is NaN there.
// Ratios with a zero or NaN denominator are NaN rather than infinite. Charts
// omit NaN points; exports write them as blank or null.
//
// The growth rate is smoothed for display by a trailing 4-sample mean over
// the defined values only. See [SmoothedGrowthRate].
package domain
