package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "covid_plots"

// Metrics holds the Prometheus counters, histograms, and gauges for a report run.
type Metrics struct {
	// Source download metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}
	FetchDuration prometheus.Histogram
	RowsFetched   prometheus.Counter

	// Per-region processing metrics.
	RegionsProcessed prometheus.Counter
	RegionsSkipped   prometheus.Counter
	TransformErrors  prometheus.Counter
	SinkErrors       *prometheus.CounterVec   // labels: sink={charts,xlsx,kafka}
	SinkDuration     *prometheus.HistogramVec // labels: sink

	PipelineRunning      prometheus.Gauge
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Source CSV downloads by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of the source CSV download and parse.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RowsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_fetched_total",
			Help:      "Rows read from the source CSV.",
		}),
		RegionsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_processed_total",
			Help:      "Regions whose statistics were handed to the sinks.",
		}),
		RegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_skipped_total",
			Help:      "Configured regions with no rows in the source.",
		}),
		TransformErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_errors_total",
			Help:      "Regions that failed to derive statistics.",
		}),
		SinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Sink failures by sink.",
		}, []string{"sink"}),
		SinkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_duration_seconds",
			Help:      "Time spent writing one region to a sink.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccessTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without errors.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FetchRequests,
		m.FetchDuration,
		m.RowsFetched,
		m.RegionsProcessed,
		m.RegionsSkipped,
		m.TransformErrors,
		m.SinkErrors,
		m.SinkDuration,
		m.PipelineRunning,
		m.LastSuccessTimestamp,
	}
}

// Register adds the metrics to reg. Used by tests that gather from a private registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
