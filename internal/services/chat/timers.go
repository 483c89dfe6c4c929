package chat

import (
	"sync"
	"time"
)

// Timer names used by the session state machine.
const (
	timerResponse     = "response"
	timerAutoOffer    = "auto_offer"
	timerStepPrompt   = "step_prompt"
	timerConfirmation = "confirmation"
	timerInactivity   = "inactivity"
)

// scheduler manages named cancellable timers. Scheduling under a name
// supersedes any pending timer with that name, so a visitor acting again
// before a delayed action fires replaces it instead of duplicating it.
type scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[string]*time.Timer)}
}

// schedule arms fn to run after d, replacing any pending timer with the
// same name. No-op once the scheduler is closed.
func (s *scheduler) schedule(name string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if t, ok := s.timers[name]; ok {
		t.Stop()
	}
	s.timers[name] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, name)
		done := s.closed
		s.mu.Unlock()
		if done {
			return
		}
		fn()
	})
}

// cancel revokes the pending timer with the given name, if any.
func (s *scheduler) cancel(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Stop()
		delete(s.timers, name)
	}
}

// close cancels all pending timers and rejects further scheduling.
func (s *scheduler) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
}
