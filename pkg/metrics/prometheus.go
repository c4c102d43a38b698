package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"digital.vasic.harness/pkg/runner"
)

// Namespace prefixes every harness metric.
const Namespace = "harness"

// PrometheusMetrics implements RunMetrics with client_golang
// collectors registered on a private registry, so several
// instances can coexist in one process.
type PrometheusMetrics struct {
	registry *prometheus.Registry

	casesTotal    *prometheus.CounterVec
	caseDuration  *prometheus.HistogramVec
	failuresTotal *prometheus.CounterVec
	runsTotal     prometheus.Counter
	passRate      prometheus.Gauge
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance.
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		registry: reg,
		casesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cases_total",
			Help:      "Count of test cases by final status",
		}, []string{"status"}),
		caseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "case_duration_seconds",
			Help:      "Wall-clock duration of executed test cases",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"status"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "failures_total",
			Help:      "Count of case failures by kind",
		}, []string{"kind"}),
		runsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Count of completed runs",
		}),
		passRate: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_pass_rate",
			Help:      "Passed over executed cases in the last run",
		}),
	}
}

func (m *PrometheusMetrics) RecordCase(status string, elapsed time.Duration) {
	m.casesTotal.WithLabelValues(status).Inc()
	if status != string(runner.StatusSkipped) {
		m.caseDuration.WithLabelValues(status).Observe(elapsed.Seconds())
	}
}

func (m *PrometheusMetrics) RecordFailure(kind string) {
	m.failuresTotal.WithLabelValues(kind).Inc()
}

func (m *PrometheusMetrics) IncrementRunTotal() {
	m.runsTotal.Inc()
}

func (m *PrometheusMetrics) SetPassRate(rate float64) {
	m.passRate.Set(rate)
}

// Registry returns the registry holding the harness collectors.
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition
// format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
