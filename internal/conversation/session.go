package conversation

import (
	"strings"
	"sync"
)

// DefaultGreeting is used when no greeting is configured.
const DefaultGreeting = "Welcome. I am an executive career assistant. Ask me about leadership impact, transformation programs, or strategic fit."

// Session is an append-only transcript seeded with one assistant greeting.
type Session struct {
	mu      sync.Mutex
	turns   []Turn
	pending string
	admin   bool
}

// New creates a session seeded with exactly one assistant greeting.
func New(greeting string) *Session {
	greeting = strings.TrimSpace(greeting)
	if greeting == "" {
		greeting = DefaultGreeting
	}

	return &Session{turns: []Turn{NewTurn(RoleAssistant, greeting)}}
}

// Append adds a turn to the end of the transcript.
func (s *Session) Append(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
}

// History returns a copy of the transcript in append order.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns including the greeting.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.turns)
}

// LastUserTurn returns the newest user turn of a history, if any.
func LastUserTurn(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i], true
		}
	}

	return Turn{}, false
}

// StageShortcut stores a suggested question to be asked on the next cycle.
// A later stage replaces an earlier one that was never consumed.
func (s *Session) StageShortcut(question string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = strings.TrimSpace(question)
}

// ConsumePendingShortcut returns the staged question once and clears it.
func (s *Session) ConsumePendingShortcut() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	question := s.pending
	s.pending = ""
	return question, question != ""
}

func (s *Session) discardPendingShortcut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = ""
}

func (s *Session) toggleAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.admin = !s.admin
	return s.admin
}

// AdminOpen reports whether the log download panel is shown.
func (s *Session) AdminOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.admin
}
