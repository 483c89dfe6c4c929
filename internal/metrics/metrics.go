// Package metrics exposes prometheus instrumentation for the chat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the service's prometheus collectors.
type Metrics struct {
	SessionsOpen    prometheus.Gauge
	ChatEvents      *prometheus.CounterVec
	LeadsCaptured   *prometheus.CounterVec
	WSMessagesIn    prometheus.Counter
	WSMessagesOut   prometheus.Counter
	QcmEvaluations  prometheus.Counter
	StoreOpDuration *prometheus.HistogramVec
}

// New registers and returns the service metrics on the given registerer.
// Pass nil to use the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		SessionsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chat_sessions_open",
			Help: "Current number of open chat sessions",
		}),
		ChatEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_events_total",
			Help: "Total chat engagement events",
		}, []string{"event"}),
		LeadsCaptured: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leads_captured_total",
			Help: "Total leads captured",
		}, []string{"source"}),
		WSMessagesIn: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_in_total",
			Help: "Total websocket messages received from visitors",
		}),
		WSMessagesOut: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_messages_out_total",
			Help: "Total websocket updates pushed to visitors",
		}),
		QcmEvaluations: factory.NewCounter(prometheus.CounterOpts{
			Name: "qcm_evaluations_total",
			Help: "Total questionnaire evaluations",
		}),
		StoreOpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lead_store_operation_duration_seconds",
			Help:    "Time taken for lead store operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}
