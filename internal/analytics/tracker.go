// Package analytics implements the engagement tracking sink over
// prometheus counters and structured logs.
package analytics

import (
	"github.com/sirupsen/logrus"

	"assurbot/internal/metrics"
)

// Tracker records engagement events. It is the service's AnalyticsSink:
// the dialogue engine calls it at widget open, each question asked and
// each completed lead.
type Tracker struct {
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewTracker creates a tracker. Either argument may be nil.
func NewTracker(m *metrics.Metrics, logger *logrus.Logger) *Tracker {
	return &Tracker{metrics: m, logger: logger}
}

// Track records one engagement event.
func (t *Tracker) Track(event string, properties map[string]string) {
	if t.metrics != nil {
		t.metrics.ChatEvents.WithLabelValues(event).Inc()
		if event == "chat_lead" {
			t.metrics.LeadsCaptured.WithLabelValues("chat").Inc()
		}
	}
	if t.logger != nil {
		fields := logrus.Fields{"event": event}
		for k, v := range properties {
			fields["prop_"+k] = v
		}
		t.logger.WithFields(fields).Debug("Tracked event")
	}
}
