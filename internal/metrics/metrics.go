package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "reelsense"

// Recorder collects pipeline metrics on its own registry.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	serviceCalls  *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	runs          *prometheus.CounterVec
}

// New creates a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		serviceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_calls_total",
			Help:      "External recognition calls by service and outcome.",
		}, []string{"service", "outcome"}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Reasoning readiness verdicts by readiness and content quality.",
		}, []string{"ready", "quality"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed analysis runs by result.",
		}, []string{"result"}),
	}
	r.registry.MustRegister(r.stageDuration, r.serviceCalls, r.verdicts, r.runs)
	return r
}

// ObserveStage records how long a stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ServiceCall counts one STT or OCR invocation.
func (r *Recorder) ServiceCall(service, outcome string) {
	if r == nil {
		return
	}
	r.serviceCalls.WithLabelValues(service, outcome).Inc()
}

// Verdict counts a readiness decision.
func (r *Recorder) Verdict(ready bool, quality string) {
	if r == nil {
		return
	}
	label := "false"
	if ready {
		label = "true"
	}
	r.verdicts.WithLabelValues(label, quality).Inc()
}

// Run counts a finished run. result is "ok", "timeout" or "error".
func (r *Recorder) Run(result string) {
	if r == nil {
		return
	}
	r.runs.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry for tests and custom exporters.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
