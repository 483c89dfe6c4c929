// Package models defines the shared types of the chat service.
package models

import "time"

// Sender identifies who produced a chat message.
type Sender string

const (
	SenderAssistant Sender = "assistant"
	SenderVisitor   Sender = "visitor"
)

// ChatMessage is one entry of a conversation transcript.
// Messages are append-only; they are never mutated after creation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"` // may contain newlines for multi-line display
	CreatedAt time.Time `json:"created_at"`
}

// StepKind is the interaction mode of a dialogue step.
type StepKind string

const (
	StepChoices StepKind = "choices"
	StepText    StepKind = "text"
	StepForm    StepKind = "form"
)

// FormField describes one input of a structured-form step.
type FormField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Input    string `json:"input"` // text, email, tel, checkbox
	Required bool   `json:"required"`
}

// StepAction is a side-effect descriptor executed when a step completes.
// The engine only dispatches these; the collaborators own delivery.
type StepAction struct {
	Action   string `json:"action"` // store:Lead, email
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Template string `json:"template,omitempty"`
}

// DialogStep is a statically configured structured step of the script.
type DialogStep struct {
	ID         string       `json:"id"`
	Prompt     string       `json:"prompt"`
	Kind       StepKind     `json:"kind"`
	Options    []string     `json:"options,omitempty"`
	Fields     []FormField  `json:"fields,omitempty"`
	OnComplete []StepAction `json:"on_complete,omitempty"`
}

// IntentRule maps a set of keyword synonyms to a canned response.
// Rules are evaluated in declaration order; the first match wins.
type IntentRule struct {
	Topic    string
	Keywords []string
	Response string
}

// FormValues holds a structured-form submission. Text inputs are strings,
// checkboxes are bools.
type FormValues map[string]interface{}

// IsZero reports whether a submitted value counts as missing for a
// required field: absent, empty string, or unchecked checkbox.
func (v FormValues) IsZero(name string) bool {
	raw, ok := v[name]
	if !ok {
		return true
	}
	switch val := raw.(type) {
	case string:
		return val == ""
	case bool:
		return !val
	default:
		return raw == nil
	}
}

// ConversationSnapshot is the rendering view of one session's state.
type ConversationSnapshot struct {
	SessionID     string        `json:"session_id"`
	Messages      []ChatMessage `json:"messages"`
	ActiveStep    *DialogStep   `json:"active_step,omitempty"`
	ExchangeCount int           `json:"exchange_count"`
	Completed     bool          `json:"completed"`
}
