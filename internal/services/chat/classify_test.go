package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasConversionTrigger(t *testing.T) {
	c := NewClassifier(DefaultScript())

	cases := []struct {
		input string
		want  bool
	}{
		{"Un devis auto 🚗", true},
		{"Être rappelé 📞", true}, // "rappelé" contains "rappel"
		{"UN DEVIS SVP", true},
		{"Combien ça coûte ?", true},
		{"Comparer mutuelles santé 🏥", true},
		{"Protéger ma famille 👨‍👩‍👧‍👦", true},
		{"Bonjour, une question", false},
		{"Parlez-moi de la mutuelle", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, c.HasConversionTrigger(tc.input), "input: %s", tc.input)
	}
}

func TestClassify(t *testing.T) {
	script := DefaultScript()
	c := NewClassifier(script)

	cases := []struct {
		input     string
		wantTopic string
	}{
		{"Je voudrais des informations sur l'assurance habitation", "habitation"},
		{"qu'est-ce qu'une mutuelle ?", "mutuelle"},
		{"MA SANTÉ", "mutuelle"},
		{"invalidité et décès", "prévoyance"},
		{"ma voiture est vieille", "auto"},
		{"je suis professionnel", "pro"},
		{"mon chien est malade", "animaux"},
		{"approbation", "pro"}, // substring matching: "pro" inside "approbation"
	}
	for _, tc := range cases {
		topic, response := c.Classify(tc.input)
		assert.Equal(t, tc.wantTopic, topic, "input: %s", tc.input)
		for _, rule := range script.IntentRules {
			if rule.Topic == tc.wantTopic {
				assert.Equal(t, rule.Response, response)
			}
		}
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	c := NewClassifier(DefaultScript())

	// "santé" (mutuelle) is declared before "voiture" (auto).
	topic, _ := c.Classify("la santé de ma voiture")
	assert.Equal(t, "mutuelle", topic)

	// "auto" is declared before "chien".
	topic, _ = c.Classify("mon chien dans mon auto")
	assert.Equal(t, "auto", topic)
}

func TestClassifyFallback(t *testing.T) {
	script := DefaultScript()
	c := NewClassifier(script)

	topic, response := c.Classify("bonjour tout le monde")
	assert.Empty(t, topic)
	assert.Equal(t, script.Fallback, response)
}
