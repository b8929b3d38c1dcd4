// Package metrics provides Prometheus-based metrics recording for the
// review service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records service-level metrics. A nil Recorder is valid and
// records nothing, so components never need to care whether metrics are
// enabled.
type Recorder struct {
	webhooksTotal   *prometheus.CounterVec
	sessionsTotal   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	engineFailures  *prometheus.CounterVec
	findingsPosted  prometheus.Counter
	threadsResolved prometheus.Counter
}

// NewRecorder creates a Recorder with its collectors registered on the
// default registry
func NewRecorder() *Recorder {
	return &Recorder{
		webhooksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_webhooks_total",
				Help: "Webhook deliveries by decision",
			},
			[]string{"decision"},
		),
		sessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_sessions_total",
				Help: "Review sessions by terminal outcome",
			},
			[]string{"outcome"},
		),
		sessionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "review_session_duration_seconds",
				Help:    "End-to-end review session duration",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"outcome"},
		),
		engineFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "review_engine_failures_total",
				Help: "Engine invocation failures by kind",
			},
			[]string{"kind"},
		),
		findingsPosted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_findings_posted_total",
				Help: "Review comments created for new findings",
			},
		),
		threadsResolved: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "review_threads_resolved_total",
				Help: "Comment threads resolved as fixed",
			},
		),
	}
}

// ObserveWebhook records one webhook delivery decision (accepted, ignored,
// unauthorized, error)
func (r *Recorder) ObserveWebhook(decision string) {
	if r == nil {
		return
	}
	r.webhooksTotal.WithLabelValues(decision).Inc()
}

// ObserveSession records one terminal session outcome and its duration
func (r *Recorder) ObserveSession(outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	r.sessionsTotal.WithLabelValues(outcome).Inc()
	r.sessionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveEngineFailure records one failed engine invocation by error kind
func (r *Recorder) ObserveEngineFailure(kind string) {
	if r == nil {
		return
	}
	r.engineFailures.WithLabelValues(kind).Inc()
}

// ObserveFindingsPosted adds to the posted-findings counter
func (r *Recorder) ObserveFindingsPosted(n int) {
	if r == nil {
		return
	}
	r.findingsPosted.Add(float64(n))
}

// ObserveThreadsResolved adds to the resolved-threads counter
func (r *Recorder) ObserveThreadsResolved(n int) {
	if r == nil {
		return
	}
	r.threadsResolved.Add(float64(n))
}
