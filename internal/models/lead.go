package models

import "time"

// Lead is a prospective customer's contact details captured for human
// follow-up, either through the chat flow or the QCM wizard.
type Lead struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"` // chat, qcm
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

// LeadSink persists captured leads. Invoked once per completed capture;
// the dialogue flow never awaits or surfaces its errors.
type LeadSink interface {
	SubmitLead(lead Lead) error
}

// NotificationSink delivers a notification to a human recipient.
// Fire-and-forget from the engine's perspective.
type NotificationSink interface {
	Notify(recipient, subject, templateID string, payload map[string]string) error
}

// AnalyticsSink records engagement events. Optional: a nil sink must not
// affect dialogue behaviour.
type AnalyticsSink interface {
	Track(event string, properties map[string]string)
}
