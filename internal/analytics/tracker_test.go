package analytics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"assurbot/internal/metrics"
)

func TestTrackerCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	tracker := NewTracker(m, nil)

	tracker.Track("chat_open", map[string]string{"label": "chat_widget"})
	tracker.Track("chat_question", map[string]string{"label": "un devis"})
	tracker.Track("chat_question", nil)
	tracker.Track("chat_lead", nil)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatEvents.WithLabelValues("chat_open")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ChatEvents.WithLabelValues("chat_question")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ChatEvents.WithLabelValues("chat_lead")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LeadsCaptured.WithLabelValues("chat")))
}

func TestTrackerNilCollaborators(t *testing.T) {
	tracker := NewTracker(nil, nil)
	assert.NotPanics(t, func() {
		tracker.Track("chat_open", nil)
	})
}
