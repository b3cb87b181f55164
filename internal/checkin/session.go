package checkin

import (
	"sync"
	"time"

	"github.com/fossasia/eventyay-checkin/internal/clock"
)

// Status is the user-facing feedback branch.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Message is the feedback shown to the operator.
type Message struct {
	Text     string `json:"text"`
	Attendee string `json:"attendee"`
	Reason   string `json:"reason,omitempty"`
}

// State is a snapshot of the session. Success and error are mutually
// exclusive by construction of Status.
type State struct {
	Message    *Message  `json:"message"`
	Status     Status    `json:"status"`
	BadgeURL   string    `json:"badge_url,omitempty"`
	Printing   bool      `json:"printing"`
	CheckingIn bool      `json:"checking_in"`
	AttemptID  string    `json:"attempt_id,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Observer is notified with a fresh snapshot after every change.
type Observer interface {
	StateChanged(State)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(State)

func (f ObserverFunc) StateChanged(s State) { f(s) }

// Session holds the feedback state a presentation layer binds to. Only the
// Orchestrator mutates it; anyone may read or subscribe.
type Session struct {
	mu        sync.Mutex
	state     State
	clk       clock.Clock
	observers map[int]Observer
	nextID    int
}

func NewSession(clk clock.Clock) *Session {
	return &Session{
		state:     State{Status: StatusIdle, UpdatedAt: clk.Now()},
		clk:       clk,
		observers: make(map[int]Observer),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *Session) copyLocked() State {
	st := s.state
	if st.Message != nil {
		m := *st.Message
		st.Message = &m
	}
	return st
}

// Subscribe registers o and returns a function that removes it.
func (s *Session) Subscribe(o Observer) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = o
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Reset clears message, status, badge reference and busy flags.
func (s *Session) Reset() {
	s.update(func(st *State) {
		*st = State{Status: StatusIdle}
	})
}

// update applies fn under the lock and publishes the result to observers
// after the lock is released.
func (s *Session) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	s.state.UpdatedAt = s.clk.Now()
	snap := s.copyLocked()
	obs := make([]Observer, 0, len(s.observers))
	for _, o := range s.observers {
		obs = append(obs, o)
	}
	s.mu.Unlock()

	for _, o := range obs {
		o.StateChanged(snap)
	}
}

func (s *Session) showSuccess(text, attendee string) {
	s.update(func(st *State) {
		st.Message = &Message{Text: text, Attendee: attendee}
		st.Status = StatusSuccess
	})
}

func (s *Session) showError(text, attendee, reason string) {
	s.update(func(st *State) {
		st.Message = &Message{Text: text, Attendee: attendee, Reason: reason}
		st.Status = StatusError
	})
}
