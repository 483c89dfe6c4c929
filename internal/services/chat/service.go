// Package chat implements the scripted dialogue engine behind the site's
// conversational widget: keyword intent classification, conversion
// fast-tracking and the lead-capture flow.
package chat

import (
	"sync"

	"github.com/sirupsen/logrus"

	"assurbot/internal/config"
	"assurbot/internal/models"
)

// Service manages the live chat sessions. Each open widget instance owns
// exactly one Session; closing the widget discards it.
type Service struct {
	cfg        config.ChatConfig
	script     *Script
	classifier *Classifier
	leads      models.LeadSink
	notifier   models.NotificationSink
	analytics  models.AnalyticsSink
	logger     *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewService creates the chat service. The analytics sink may be nil;
// dialogue behaviour does not depend on it.
func NewService(cfg config.ChatConfig, script *Script, leads models.LeadSink,
	notifier models.NotificationSink, analytics models.AnalyticsSink, logger *logrus.Logger) *Service {
	if script == nil {
		script = DefaultScript()
	}
	if logger == nil {
		logger = logrus.New()
	}
	// The configured recipient overrides the script's default.
	if cfg.LeadRecipient != "" {
		for i := range script.LeadCapture.OnComplete {
			if script.LeadCapture.OnComplete[i].Action == "email" {
				script.LeadCapture.OnComplete[i].To = cfg.LeadRecipient
			}
		}
	}
	return &Service{
		cfg:        cfg,
		script:     script,
		classifier: NewClassifier(script),
		leads:      leads,
		notifier:   notifier,
		analytics:  analytics,
		logger:     logger,
		sessions:   make(map[string]*Session),
	}
}

// Script returns the static dialogue script, for rendering quick
// suggestions on the widget.
func (s *Service) Script() *Script {
	return s.script
}

// Open returns the session with the given id, creating and opening it if
// needed. The notify callback receives every subsequent state change.
func (s *Service) Open(sessionID string, notify func(Update)) *Session {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	if !exists {
		session = newSession(sessionID, s, notify)
		s.sessions[sessionID] = session
	}
	s.mu.Unlock()

	session.Open()
	return session
}

// Get returns an existing session.
func (s *Service) Get(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	return session, ok
}

// Close discards the session with the given id and cancels its timers.
func (s *Service) Close(sessionID string) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if ok {
		session.Close()
	}
}

// Count returns the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}
