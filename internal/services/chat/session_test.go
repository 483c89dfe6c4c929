package chat

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assurbot/internal/config"
	"assurbot/internal/models"
)

type fakeLeadSink struct {
	mu    sync.Mutex
	leads []models.Lead
	err   error
}

func (f *fakeLeadSink) SubmitLead(lead models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leads = append(f.leads, lead)
	return f.err
}

func (f *fakeLeadSink) all() []models.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Lead(nil), f.leads...)
}

type notification struct {
	recipient, subject, template string
	payload                      map[string]string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
	err  error
}

func (f *fakeNotifier) Notify(recipient, subject, templateID string, payload map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{recipient, subject, templateID, payload})
	return f.err
}

func (f *fakeNotifier) all() []notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notification(nil), f.sent...)
}

type fakeAnalytics struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAnalytics) Track(event string, properties map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeAnalytics) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{
		ResponseDelay:      time.Millisecond,
		AutoOfferDelay:     time.Millisecond,
		StepPromptDelay:    time.Millisecond,
		ConfirmationDelay:  time.Millisecond,
		InactivityTimeout:  time.Hour, // tests that need it override
		AutoOfferThreshold: 3,
		LeadRecipient:      "contact@prevoyanceservices.fr",
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type testEnv struct {
	svc       *Service
	leads     *fakeLeadSink
	notifier  *fakeNotifier
	analytics *fakeAnalytics
}

func newTestEnv(cfg config.ChatConfig) *testEnv {
	env := &testEnv{
		leads:     &fakeLeadSink{},
		notifier:  &fakeNotifier{},
		analytics: &fakeAnalytics{},
	}
	env.svc = NewService(cfg, DefaultScript(), env.leads, env.notifier, env.analytics, testLogger())
	return env
}

// waitForText polls the transcript until a message with the exact text
// appears, failing the test after one second.
func waitForText(t *testing.T, session *Session, text string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		for _, msg := range session.Snapshot().Messages {
			if msg.Text == text {
				return true
			}
		}
		return false
	}, time.Second, 2*time.Millisecond, "message never appeared: %s", text)
}

func countText(session *Session, text string) int {
	n := 0
	for _, msg := range session.Snapshot().Messages {
		if msg.Text == text {
			n++
		}
	}
	return n
}

func TestOpenWelcomeIdempotent(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	snap := session.Snapshot()
	require.Len(t, snap.Messages, 1)
	assert.Equal(t, models.SenderAssistant, snap.Messages[0].Sender)
	assert.Equal(t, script.Welcome, snap.Messages[0].Text)

	// Re-opening the same session must not duplicate the welcome.
	env.svc.Open("s1", nil)
	assert.Len(t, session.Snapshot().Messages, 1)
	assert.Equal(t, 1, env.analytics.count("chat_open"))
}

func TestConversionTriggerFastTracks(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SelectSuggestion("Un devis auto 🚗"))

	waitForText(t, session, script.LeadCapture.Prompt)
	snap := session.Snapshot()
	require.NotNil(t, snap.ActiveStep)
	assert.Equal(t, "lead_capture", snap.ActiveStep.ID)
	// Fast-track bypasses topic classification: welcome, visitor, prompt.
	assert.Len(t, snap.Messages, 3)
	assert.Equal(t, 0, snap.ExchangeCount)
}

func TestTopicResponse(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("Je voudrais des informations sur l'assurance habitation"))

	waitForText(t, session, script.IntentRules[3].Response)
	snap := session.Snapshot()
	assert.Equal(t, 1, snap.ExchangeCount)
	assert.Nil(t, snap.ActiveStep)
	assert.Equal(t, 1, env.analytics.count("chat_question"))
}

func TestFallbackResponse(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("bonjour tout le monde"))

	waitForText(t, session, script.Fallback)
}

func TestAutoOfferAfterThreshold(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	inputs := []string{
		"la mutuelle m'intéresse",
		"et l'habitation ?",
		"mon chien aussi",
	}
	for i, input := range inputs {
		require.NoError(t, session.SubmitText(input))
		assert.Eventually(t, func() bool {
			return session.Snapshot().ExchangeCount == i+1
		}, time.Second, 2*time.Millisecond)
	}

	waitForText(t, session, script.AutoOffer)
	waitForText(t, session, script.LeadCapture.Prompt)

	snap := session.Snapshot()
	require.NotNil(t, snap.ActiveStep)
	assert.Equal(t, 3, snap.ExchangeCount)
	assert.Equal(t, 1, countText(session, script.AutoOffer))
}

func TestAutoOfferBelowThreshold(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("parlez-moi de la mutuelle"))
	waitForText(t, session, script.IntentRules[0].Response)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, countText(session, script.AutoOffer))
	assert.Nil(t, session.Snapshot().ActiveStep)
}

func TestLeadCaptureScenario(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SelectSuggestion("Un devis auto 🚗"))
	waitForText(t, session, script.LeadCapture.Prompt)

	// Missing required email: rejected, partial form retained.
	require.NoError(t, session.SubmitForm(models.FormValues{
		"firstname": "Jean",
		"email":     "",
		"phone":     "0600000000",
		"consent":   true,
	}))
	waitForText(t, session, script.Validation)
	snap := session.Snapshot()
	require.NotNil(t, snap.ActiveStep)
	assert.Empty(t, env.leads.all())

	// Filling only the missing field completes the capture.
	require.NoError(t, session.SubmitForm(models.FormValues{
		"email": "jean@example.com",
	}))
	waitForText(t, session, script.Confirmation)

	snap = session.Snapshot()
	assert.True(t, snap.Completed)
	assert.Nil(t, snap.ActiveStep)
	assert.Equal(t, 1, countText(session,
		"Prénom: Jean, Email: jean@example.com, Téléphone: 0600000000"))

	leads := env.leads.all()
	require.Len(t, leads, 1)
	assert.Equal(t, "chat", leads[0].Source)
	assert.Equal(t, map[string]string{
		"firstname": "Jean",
		"email":     "jean@example.com",
		"phone":     "0600000000",
		"consent":   "true",
	}, leads[0].Fields)

	sent := env.notifier.all()
	require.Len(t, sent, 1)
	assert.Equal(t, "contact@prevoyanceservices.fr", sent[0].recipient)
	assert.Equal(t, "Lead Chatbot - Demande de devis", sent[0].subject)
	assert.Equal(t, "lead-chat", sent[0].template)
	assert.Equal(t, "jean@example.com", sent[0].payload["email"])

	assert.Equal(t, 1, env.analytics.count("chat_lead"))
}

func TestConfirmationShownDespiteSinkFailures(t *testing.T) {
	env := newTestEnv(testChatConfig())
	env.leads.err = errors.New("redis down")
	env.notifier.err = errors.New("broker down")
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("je veux souscrire"))
	waitForText(t, session, script.LeadCapture.Prompt)

	require.NoError(t, session.SubmitForm(models.FormValues{
		"firstname": "Léa",
		"email":     "lea@example.com",
		"phone":     "0700000000",
		"consent":   true,
	}))

	// Collaborator failures never reach the visitor.
	waitForText(t, session, script.Confirmation)
	assert.True(t, session.Snapshot().Completed)
}

func TestFreeTextRejectedWhileFormActive(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("un devis svp"))
	waitForText(t, session, script.LeadCapture.Prompt)

	assert.ErrorIs(t, session.SubmitText("autre chose"), ErrStepActive)
}

func TestFormSubmitWithoutActiveStep(t *testing.T) {
	env := newTestEnv(testChatConfig())

	session := env.svc.Open("s1", nil)
	err := session.SubmitForm(models.FormValues{"firstname": "Jean"})
	assert.ErrorIs(t, err, ErrNoActiveStep)
}

func TestCompletedIsTerminal(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("un devis"))
	waitForText(t, session, script.LeadCapture.Prompt)
	require.NoError(t, session.SubmitForm(models.FormValues{
		"firstname": "Jean",
		"email":     "jean@example.com",
		"phone":     "0600000000",
		"consent":   true,
	}))
	waitForText(t, session, script.Confirmation)

	// A trigger after completion no longer reopens lead capture; the
	// visitor still gets a classified answer.
	require.NoError(t, session.SubmitText("encore un devis pour ma voiture"))
	waitForText(t, session, script.IntentRules[2].Response)
	snap := session.Snapshot()
	assert.Nil(t, snap.ActiveStep)
	assert.Equal(t, 1, countText(session, script.LeadCapture.Prompt))
}

func TestInactivityReminder(t *testing.T) {
	cfg := testChatConfig()
	cfg.InactivityTimeout = 20 * time.Millisecond
	env := newTestEnv(cfg)
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("bonjour tout le monde"))
	waitForText(t, session, script.Fallback)

	waitForText(t, session, script.Reminder)

	// At most once per idle period.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, countText(session, script.Reminder))

	// The next visitor input re-arms the reminder for a new idle period.
	require.NoError(t, session.SubmitText("encore une question"))
	assert.Eventually(t, func() bool {
		return countText(session, script.Reminder) == 2
	}, time.Second, 2*time.Millisecond)
}

func TestNoReminderBeforeConversationStarts(t *testing.T) {
	cfg := testChatConfig()
	cfg.InactivityTimeout = 10 * time.Millisecond
	env := newTestEnv(cfg)
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 0, countText(session, script.Reminder))
}

func TestCloseCancelsPendingTimers(t *testing.T) {
	cfg := testChatConfig()
	cfg.ResponseDelay = 50 * time.Millisecond
	env := newTestEnv(cfg)
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("un devis"))
	session.Close()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, countText(session, script.LeadCapture.Prompt))
	assert.ErrorIs(t, session.SubmitText("encore"), ErrClosed)
}

func TestChoiceStepDecline(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	step := models.DialogStep{
		ID:      "callback_offer",
		Kind:    models.StepChoices,
		Options: []string{"Oui, volontiers", "Non merci"},
	}
	session.mu.Lock()
	session.activeStep = &step
	session.state = StateLeadCapture
	session.mu.Unlock()

	require.NoError(t, session.SelectOption("Non merci"))
	waitForText(t, session, script.DeclineReply)

	snap := session.Snapshot()
	assert.Nil(t, snap.ActiveStep)
	assert.False(t, snap.Completed)
	assert.Equal(t, "Non merci", session.CollectedFields()["callback_offer"])
}

func TestChoiceStepAcceptLeadsToCapture(t *testing.T) {
	env := newTestEnv(testChatConfig())
	script := env.svc.Script()

	session := env.svc.Open("s1", nil)
	step := models.DialogStep{
		ID:      "callback_offer",
		Kind:    models.StepChoices,
		Options: []string{"Oui, volontiers", "Non merci"},
	}
	session.mu.Lock()
	session.activeStep = &step
	session.state = StateLeadCapture
	session.mu.Unlock()

	require.NoError(t, session.SelectOption("Oui, volontiers"))
	waitForText(t, session, script.LeadCapture.Prompt)
	snap := session.Snapshot()
	require.NotNil(t, snap.ActiveStep)
	assert.Equal(t, "lead_capture", snap.ActiveStep.ID)
}

func TestNilAnalyticsSink(t *testing.T) {
	cfg := testChatConfig()
	svc := NewService(cfg, DefaultScript(), &fakeLeadSink{}, &fakeNotifier{}, nil, testLogger())
	script := svc.Script()

	session := svc.Open("s1", nil)
	require.NoError(t, session.SubmitText("la mutuelle m'intéresse"))
	waitForText(t, session, script.IntentRules[0].Response)
}
