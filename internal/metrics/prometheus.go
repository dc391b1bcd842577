// Package metrics exposes workflow and update counters to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/set-night/seyedbot/internal/domain"
	"github.com/set-night/seyedbot/internal/workflow"
)

// PrometheusRecorder implements workflow.Recorder.
type PrometheusRecorder struct {
	guardRejections       *prometheus.CounterVec
	invalidEvents         *prometheus.CounterVec
	draftsCommitted       *prometheus.CounterVec
	broadcastDeliveries   *prometheus.CounterVec
	consultationDecisions *prometheus.CounterVec
	updateDuration        *prometheus.HistogramVec
	rateLimited           prometheus.Counter
}

// NewPrometheusRecorder registers the collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		guardRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_guard_rejections_total",
				Help: "Events stopped by a guard, by guard name",
			},
			[]string{"guard"},
		),
		invalidEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_invalid_events_total",
				Help: "Events that matched nothing allowed in the current state",
			},
			[]string{"state"},
		),
		draftsCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_drafts_committed_total",
				Help: "Content records published, by kind",
			},
			[]string{"kind"},
		),
		broadcastDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_broadcast_deliveries_total",
				Help: "Broadcast sends by outcome",
			},
			[]string{"status"},
		),
		consultationDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_consultation_decisions_total",
				Help: "Consultation requests decided, by final status",
			},
			[]string{"status"},
		),
		updateDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bot_update_duration_seconds",
				Help:    "Time spent handling one update",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "bot_rate_limited_total",
			Help: "Messages dropped by the per-chat rate limit",
		}),
	}
}

func (p *PrometheusRecorder) GuardRejected(guard string) {
	p.guardRejections.WithLabelValues(guard).Inc()
}

func (p *PrometheusRecorder) InvalidEvent(state workflow.State) {
	p.invalidEvents.WithLabelValues(state.String()).Inc()
}

func (p *PrometheusRecorder) DraftCommitted(kind domain.ContentKind) {
	p.draftsCommitted.WithLabelValues(string(kind)).Inc()
}

func (p *PrometheusRecorder) BroadcastDelivered(ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	p.broadcastDeliveries.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ConsultationDecided(status domain.ConsultationStatus) {
	p.consultationDecisions.WithLabelValues(string(status)).Inc()
}

// ObserveUpdate records how long one update took to handle.
func (p *PrometheusRecorder) ObserveUpdate(updateType string, d time.Duration) {
	p.updateDuration.WithLabelValues(updateType).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}
