package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	scenarios    *prometheus.CounterVec
	windows      *prometheus.CounterVec
	boundary     *prometheus.CounterVec
	scenarioTime *prometheus.HistogramVec
	matchRate    *prometheus.GaugeVec
	jobs         *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors on reg; nil means the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		scenarios: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentimatch_scenarios_evaluated_total",
				Help: "Scenarios evaluated",
			},
			[]string{"scenario"},
		),
		windows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentimatch_windows_total",
				Help: "Windows visited, by outcome",
			},
			[]string{"outcome"},
		),
		boundary: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentimatch_boundary_stops_total",
				Help: "Scenarios stopped early because the output window left the price range",
			},
			[]string{"scenario"},
		),
		scenarioTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentimatch_scenario_duration_seconds",
				Help:    "Time spent evaluating one scenario",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"scenario"},
		),
		matchRate: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentimatch_match_rate",
				Help: "Latest match rate per scenario and sentiment level",
			},
			[]string{"scenario", "level"},
		),
		jobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentimatch_jobs_total",
				Help: "Queue jobs processed",
			},
			[]string{"type", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentimatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentimatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScenario records one evaluated scenario and its window accounting.
func (r *Recorder) RecordScenario(scenario string, rows, skippedNoEvents, skippedMissingPrice int, boundaryStop bool, seconds float64) {
	r.scenarios.WithLabelValues(scenario).Inc()
	r.windows.WithLabelValues("emitted").Add(float64(rows))
	r.windows.WithLabelValues("no_events").Add(float64(skippedNoEvents))
	r.windows.WithLabelValues("missing_price").Add(float64(skippedMissingPrice))
	if boundaryStop {
		r.boundary.WithLabelValues(scenario).Inc()
	}
	r.scenarioTime.WithLabelValues(scenario).Observe(seconds)
}

// RecordMatchRate sets the match rate gauge; rate is a fraction in [0,1].
func (r *Recorder) RecordMatchRate(scenario, level string, rate float64) {
	r.matchRate.WithLabelValues(scenario, level).Set(rate)
}

// RecordJob counts a processed queue job.
func (r *Recorder) RecordJob(jobType, result string) {
	r.jobs.WithLabelValues(jobType, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
