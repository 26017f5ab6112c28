package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/career-bot/internal/conversation"
)

func TestLoadInstruction(t *testing.T) {
	dir := t.TempDir()
	override := filepath.Join(dir, "system_instruction.txt")
	blank := filepath.Join(dir, "blank.txt")

	if err := os.WriteFile(override, []byte("  Custom instruction.\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(blank, []byte(" \n "), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "override replaces fallback", path: override, want: "Custom instruction."},
		{name: "blank override ignored", path: blank, want: DefaultInstruction("Daaniyal Khan")},
		{name: "missing override", path: filepath.Join(dir, "absent.txt"), want: DefaultInstruction("Daaniyal Khan")},
		{name: "no path", path: "", want: DefaultInstruction("Daaniyal Khan")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadInstruction(tt.path, "Daaniyal Khan")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDefaultInstructionNamesCandidate(t *testing.T) {
	got := DefaultInstruction("Daaniyal Khan")

	if strings.Contains(got, candidatePlaceholder) {
		t.Fatalf("placeholder left in instruction")
	}

	if !strings.Contains(got, "Please ask Daaniyal Khan directly in the interview.") {
		t.Fatalf("expected interview fallback line in instruction")
	}
}

func TestBuildSystemMessage(t *testing.T) {
	withContext := BuildSystemMessage("Be concise.", "Digital VO is the digital sales organization.")
	if withContext != "Be concise.\n\nCONTEXT:\nDigital VO is the digital sales organization." {
		t.Fatalf("unexpected system message: %q", withContext)
	}

	for _, ctx := range []string{"", "  \n\t"} {
		if got := BuildSystemMessage("Be concise.", ctx); got != "Be concise." || strings.Contains(got, "CONTEXT") {
			t.Fatalf("expected no CONTEXT section, got %q", got)
		}
	}
}

func TestBuildMessages(t *testing.T) {
	history := []conversation.Turn{
		{Role: conversation.RoleAssistant, Content: "Welcome."},
		{Role: conversation.RoleUser, Content: "Question?"},
		{Role: conversation.RoleSystem, Content: "ignored"},
	}

	got := BuildMessages("system text", history)

	want := []Message{
		{Role: "system", Content: "system text"},
		{Role: "assistant", Content: "Welcome."},
		{Role: "user", Content: "Question?"},
	}

	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(got))
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("message %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}
