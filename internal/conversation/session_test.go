package conversation

import (
	"fmt"
	"testing"
)

func TestNewSeedsSingleGreeting(t *testing.T) {
	s := New("Hello recruiter")

	history := s.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 seeded turn, got %d", len(history))
	}

	if history[0].Role != RoleAssistant || history[0].Content != "Hello recruiter" {
		t.Fatalf("unexpected greeting: %+v", history[0])
	}

	if New("  ").History()[0].Content != DefaultGreeting {
		t.Fatalf("expected default greeting for blank input")
	}
}

func TestAppendKeepsOrderAndNeverMutates(t *testing.T) {
	s := New("hi")
	before := s.History()

	const n = 5
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		s.Append(NewTurn(role, fmt.Sprintf("turn-%d", i)))
	}

	history := s.History()
	if len(history) != n+1 {
		t.Fatalf("expected %d turns, got %d", n+1, len(history))
	}

	if history[0] != before[0] {
		t.Fatalf("greeting mutated: %+v vs %+v", history[0], before[0])
	}

	for i := 0; i < n; i++ {
		if got, want := history[i+1].Content, fmt.Sprintf("turn-%d", i); got != want {
			t.Fatalf("turn %d: expected %q, got %q", i, want, got)
		}
	}

	history[1].Content = "tampered"
	if s.History()[1].Content != "turn-0" {
		t.Fatalf("history must be a copy")
	}
}

func TestLastUserTurn(t *testing.T) {
	s := New("hi")
	if _, ok := LastUserTurn(s.History()); ok {
		t.Fatalf("expected no user turn in fresh session")
	}

	s.Append(NewTurn(RoleUser, "first"))
	s.Append(NewTurn(RoleAssistant, "answer"))
	s.Append(NewTurn(RoleUser, "second"))

	turn, ok := LastUserTurn(s.History())
	if !ok || turn.Content != "second" {
		t.Fatalf("unexpected last user turn: %+v", turn)
	}
}

func TestConsumePendingShortcutIsOneShot(t *testing.T) {
	s := New("hi")
	s.StageShortcut("What was the Digital VO Project?")

	question, ok := s.ConsumePendingShortcut()
	if !ok || question != "What was the Digital VO Project?" {
		t.Fatalf("expected staged question, got %q", question)
	}

	if question, ok := s.ConsumePendingShortcut(); ok || question != "" {
		t.Fatalf("expected empty second read, got %q", question)
	}
}
