package chat

import (
	"strings"

	"assurbot/internal/models"
)

// Classifier performs keyword classification of visitor input.
// Matching is raw substring containment on the case-folded input; a short
// keyword can match inside an unrelated word. That imprecision is part of
// the scripted behaviour and is kept as-is.
type Classifier struct {
	rules    []models.IntentRule
	triggers []string
	fallback string
}

// NewClassifier creates a classifier over the given script.
func NewClassifier(script *Script) *Classifier {
	return &Classifier{
		rules:    script.IntentRules,
		triggers: script.Triggers,
		fallback: script.Fallback,
	}
}

// HasConversionTrigger reports whether the input contains any configured
// conversion trigger. Checked before topic classification on every input.
func (c *Classifier) HasConversionTrigger(input string) bool {
	lower := strings.ToLower(input)
	for _, trigger := range c.triggers {
		if strings.Contains(lower, trigger) {
			return true
		}
	}
	return false
}

// Classify returns the canned response for the first rule whose keywords
// match the input, or the generic fallback. The returned topic is empty
// when no rule matched.
func (c *Classifier) Classify(input string) (topic, response string) {
	lower := strings.ToLower(input)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(lower, keyword) {
				return rule.Topic, rule.Response
			}
		}
	}
	return "", c.fallback
}
