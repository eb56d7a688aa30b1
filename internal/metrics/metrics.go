// Package metrics exposes Prometheus collectors for validation traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/reoring/ocppskema"
)

const namespace = "ocppskema"

// Metrics groups the collectors shared by the HTTP and NATS adapters.
type Metrics struct {
	Validations   *prometheus.CounterVec
	Diagnostics   *prometheus.CounterVec
	ParseFailures *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Validated payloads, labeled by transport, type, mode and outcome.",
		}, []string{"transport", "type", "mode", "result"}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Reported diagnostics, labeled by type, kind and code.",
		}, []string{"type", "kind", "code"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Payloads rejected before validation, labeled by transport and code.",
		}, []string{"transport", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent decoding and validating one payload.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}, []string{"transport", "mode"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, labeled by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.Validations, m.Diagnostics, m.ParseFailures, m.Duration, m.HTTPRequests, m.HTTPDuration)
	return m
}

// ObserveReport records one validation outcome. A nil receiver is a no-op.
func (m *Metrics) ObserveReport(transport, typeID string, mode ocppskema.Mode, rep *ocppskema.Report, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "valid"
	if !rep.IsValid() {
		result = "invalid"
	}
	m.Validations.WithLabelValues(transport, typeID, mode.String(), result).Inc()
	m.Duration.WithLabelValues(transport, mode.String()).Observe(elapsed.Seconds())
	for _, d := range rep.Diagnostics() {
		m.Diagnostics.WithLabelValues(typeID, d.Kind.String(), d.Code).Inc()
	}
}

// ObserveParseFailure records a payload rejected at parse or bind time.
func (m *Metrics) ObserveParseFailure(transport string, err error) {
	if m == nil {
		return
	}
	code := "other"
	if ds, ok := ocppskema.AsDiagnostics(err); ok && len(ds) > 0 {
		code = ds[0].Code
	}
	m.ParseFailures.WithLabelValues(transport, code).Inc()
}
