package chat

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"assurbot/internal/config"
	"assurbot/internal/models"
)

// State is the conversation lifecycle state.
type State string

const (
	StateClosed      State = "closed"
	StateIdle        State = "idle"
	StateLeadCapture State = "lead_capture"
	StateCompleted   State = "completed"
)

var (
	// ErrClosed is returned for any visitor action on a closed session.
	ErrClosed = errors.New("session is closed")
	// ErrStepActive is returned for free-text input while a structured step is in progress.
	ErrStepActive = errors.New("a structured step is active")
	// ErrNoActiveStep is returned for a step submission with no matching active step.
	ErrNoActiveStep = errors.New("no matching step is active")
)

// Update is pushed to the transport after each state change.
type Update struct {
	SessionID  string              `json:"session_id"`
	Message    *models.ChatMessage `json:"message,omitempty"`
	ActiveStep *models.DialogStep  `json:"active_step,omitempty"`
	Completed  bool                `json:"completed,omitempty"`
}

// Session drives one visitor conversation from open to abandonment or a
// completed lead submission. All mutation is guarded by mu; timer
// callbacks re-acquire it before touching state.
type Session struct {
	id         string
	cfg        config.ChatConfig
	script     *Script
	classifier *Classifier
	leads      models.LeadSink
	notifier   models.NotificationSink
	analytics  models.AnalyticsSink
	logger     *logrus.Entry
	timers     *scheduler
	notify     func(Update)

	mu            sync.Mutex
	state         State
	messages      []models.ChatMessage
	exchangeCount int
	collected     map[string]string
	formDraft     models.FormValues
	activeStep    *models.DialogStep
	started       bool
	autoOfferDone bool
	reminderSent  bool
}

func newSession(id string, svc *Service, notify func(Update)) *Session {
	return &Session{
		id:         id,
		cfg:        svc.cfg,
		script:     svc.script,
		classifier: svc.classifier,
		leads:      svc.leads,
		notifier:   svc.notifier,
		analytics:  svc.analytics,
		logger:     svc.logger.WithField("session_id", id),
		timers:     newScheduler(),
		notify:     notify,
		state:      StateClosed,
		collected:  make(map[string]string),
		formDraft:  make(models.FormValues),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Open transitions the session from Closed to Idle and emits the welcome
// message. Opening an already open session is a no-op, so the welcome is
// never duplicated within one session.
func (s *Session) Open() {
	s.mu.Lock()
	if s.state != StateClosed || len(s.messages) > 0 {
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	msg := s.append(models.SenderAssistant, s.script.Welcome)
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
	s.track("chat_open", map[string]string{"label": "chat_widget"})
}

// SubmitText handles free-form visitor input.
func (s *Session) SubmitText(text string) error {
	return s.handleInput(text)
}

// SelectSuggestion handles a tapped quick-reply suggestion. Suggestions go
// through the same trigger check and classification as typed text.
func (s *Session) SelectSuggestion(suggestion string) error {
	return s.handleInput(suggestion)
}

func (s *Session) handleInput(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.activeStep != nil {
		s.mu.Unlock()
		return ErrStepActive
	}
	s.started = true
	s.reminderSent = false
	msg := s.append(models.SenderVisitor, text)
	s.armInactivity()
	// Completed is terminal: a finished session answers questions but
	// never re-enters lead capture.
	converting := s.state != StateCompleted && s.classifier.HasConversionTrigger(text)
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
	s.track("chat_question", map[string]string{"label": text})

	if converting {
		s.timers.schedule(timerResponse, s.cfg.ResponseDelay, s.openLeadCapture)
		return nil
	}
	s.timers.schedule(timerResponse, s.cfg.ResponseDelay, func() { s.respond(text) })
	return nil
}

// respond appends the classified canned response and counts the exchange.
func (s *Session) respond(input string) {
	topic, response := s.classifier.Classify(input)

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	msg := s.append(models.SenderAssistant, response)
	s.exchangeCount++
	s.armInactivity()
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
	if topic != "" {
		s.logger.WithFields(logrus.Fields{"topic": topic}).Debug("Matched intent rule")
	}
	s.timers.schedule(timerAutoOffer, s.cfg.AutoOfferDelay, s.autoOffer)
}

// autoOffer emits the soft upsell once the exchange threshold is reached,
// at most once per session, and only while no step is active.
func (s *Session) autoOffer() {
	s.mu.Lock()
	if s.state != StateIdle || s.activeStep != nil ||
		s.exchangeCount < s.cfg.AutoOfferThreshold || s.autoOfferDone {
		s.mu.Unlock()
		return
	}
	s.autoOfferDone = true
	msg := s.append(models.SenderAssistant, s.script.AutoOffer)
	s.armInactivity()
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
	s.timers.schedule(timerStepPrompt, s.cfg.StepPromptDelay, s.openLeadCapture)
}

// openLeadCapture activates the lead-capture form step.
func (s *Session) openLeadCapture() {
	s.mu.Lock()
	if s.state != StateIdle || s.activeStep != nil {
		s.mu.Unlock()
		return
	}
	step := s.script.LeadCapture
	s.activeStep = &step
	s.state = StateLeadCapture
	s.formDraft = make(models.FormValues)
	msg := s.append(models.SenderAssistant, step.Prompt)
	s.mu.Unlock()

	s.emit(Update{Message: &msg, ActiveStep: &step})
}

// SelectOption handles a choice on a single-choice-list step. The decline
// option ends the step politely; any other choice leads to lead capture.
func (s *Session) SelectOption(option string) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.activeStep == nil || s.activeStep.Kind != models.StepChoices {
		s.mu.Unlock()
		return ErrNoActiveStep
	}
	stepID := s.activeStep.ID
	s.collected[stepID] = option
	s.activeStep = nil
	s.state = StateIdle
	msg := s.append(models.SenderVisitor, option)
	s.armInactivity()
	declined := option == s.script.Decline
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
	if declined {
		s.timers.schedule(timerResponse, s.cfg.ConfirmationDelay, func() {
			s.sayLater(s.script.DeclineReply)
		})
		return nil
	}
	s.timers.schedule(timerResponse, s.cfg.ConfirmationDelay, s.openLeadCapture)
	return nil
}

// SubmitForm handles a structured-form submission attempt. A submission
// with missing required fields is answered with the validation message and
// the partially filled form is retained; a valid submission completes the
// lead flow.
func (s *Session) SubmitForm(values models.FormValues) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.activeStep == nil || s.activeStep.Kind != models.StepForm {
		s.mu.Unlock()
		return ErrNoActiveStep
	}
	step := *s.activeStep

	// Retain everything submitted so far, valid or not.
	for name, value := range values {
		s.formDraft[name] = value
	}

	var missing []string
	for _, field := range step.Fields {
		if field.Required && s.formDraft.IsZero(field.Name) {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) > 0 {
		msg := s.append(models.SenderAssistant, s.script.Validation)
		s.armInactivity()
		s.mu.Unlock()

		s.emit(Update{Message: &msg, ActiveStep: &step})
		s.logger.WithField("missing", missing).Debug("Form submission rejected")
		return nil
	}

	fields := make(map[string]string, len(step.Fields))
	var summary []string
	for _, field := range step.Fields {
		value := stringify(s.formDraft[field.Name])
		fields[field.Name] = value
		s.collected[field.Name] = value
		if field.Input != "checkbox" {
			summary = append(summary, field.Label+": "+value)
		}
	}
	msg := s.append(models.SenderVisitor, strings.Join(summary, ", "))
	s.activeStep = nil
	s.formDraft = make(models.FormValues)
	s.state = StateCompleted
	s.mu.Unlock()

	s.emit(Update{Message: &msg, Completed: true})
	s.runActions(step, fields)
	s.track("chat_lead", map[string]string{"label": "chat_widget"})
	s.timers.schedule(timerConfirmation, s.cfg.ConfirmationDelay, func() {
		s.sayLater(s.script.Confirmation)
	})
	return nil
}

// runActions dispatches the step's on-complete side effects. Collaborator
// failures are logged and swallowed; the visitor sees the confirmation
// regardless.
func (s *Session) runActions(step models.DialogStep, fields map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Step action panicked")
		}
	}()

	for _, action := range step.OnComplete {
		switch {
		case action.Action == "store:Lead":
			if s.leads == nil {
				continue
			}
			lead := models.Lead{
				ID:        uuid.NewString(),
				Source:    "chat",
				Fields:    fields,
				CreatedAt: time.Now(),
			}
			if err := s.leads.SubmitLead(lead); err != nil {
				s.logger.WithError(err).Error("Failed to store lead")
			}
		case action.Action == "email":
			if s.notifier == nil {
				continue
			}
			if err := s.notifier.Notify(action.To, action.Subject, action.Template, fields); err != nil {
				s.logger.WithError(err).Error("Failed to send lead notification")
			}
		default:
			s.logger.WithField("action", action.Action).Warn("Unknown step action")
		}
	}
}

// sayLater appends a delayed assistant message from a timer callback.
func (s *Session) sayLater(text string) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	msg := s.append(models.SenderAssistant, text)
	s.armInactivity()
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
}

// inactivityFire appends the idle reminder. It fires at most once per idle
// period: reminderSent is only cleared by the next visitor input.
func (s *Session) inactivityFire() {
	s.mu.Lock()
	if s.state == StateClosed || s.activeStep != nil || !s.started || s.reminderSent {
		s.mu.Unlock()
		return
	}
	s.reminderSent = true
	msg := s.append(models.SenderAssistant, s.script.Reminder)
	s.mu.Unlock()

	s.emit(Update{Message: &msg})
}

// Close discards the session: cancels all pending timers and freezes the
// state. The registry drops the session afterwards, so nothing persists.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()

	s.timers.close()
}

// Snapshot returns a rendering copy of the conversation state.
func (s *Session) Snapshot() models.ConversationSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]models.ChatMessage, len(s.messages))
	copy(messages, s.messages)

	var step *models.DialogStep
	if s.activeStep != nil {
		stepCopy := *s.activeStep
		step = &stepCopy
	}
	return models.ConversationSnapshot{
		SessionID:     s.id,
		Messages:      messages,
		ActiveStep:    step,
		ExchangeCount: s.exchangeCount,
		Completed:     s.state == StateCompleted,
	}
}

// CollectedFields returns a copy of the accumulated field values.
func (s *Session) CollectedFields() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := make(map[string]string, len(s.collected))
	for k, v := range s.collected {
		fields[k] = v
	}
	return fields
}

// append adds a message to the transcript. Caller holds the lock.
func (s *Session) append(sender models.Sender, text string) models.ChatMessage {
	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// armInactivity resets the idle reminder timer. Caller holds the lock.
func (s *Session) armInactivity() {
	if !s.started {
		return
	}
	s.timers.schedule(timerInactivity, s.cfg.InactivityTimeout, s.inactivityFire)
}

func (s *Session) emit(update Update) {
	if s.notify == nil {
		return
	}
	update.SessionID = s.id
	s.notify(update)
}

func (s *Session) track(event string, properties map[string]string) {
	if s.analytics == nil {
		return
	}
	s.analytics.Track(event, properties)
}

func stringify(raw interface{}) string {
	switch value := raw.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", value)
	}
}
