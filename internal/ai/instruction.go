package ai

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	_ "embed"
)

//go:embed system.md
var instructionTemplate string

const (
	candidatePlaceholder = "{{CANDIDATE}}"
	defaultCandidate     = "the candidate"
	contextMarker        = "CONTEXT:"
)

// LoadInstruction returns the override file's content when it exists and is
// not blank, otherwise the built-in instruction for candidate. The override
// replaces the built-in text entirely.
func LoadInstruction(path, candidate string) (string, error) {
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if text := strings.TrimSpace(string(data)); text != "" {
				return text, nil
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return DefaultInstruction(candidate), err
		}
	}

	return DefaultInstruction(candidate), nil
}

// DefaultInstruction renders the built-in instruction for candidate.
func DefaultInstruction(candidate string) string {
	return strings.TrimSpace(strings.ReplaceAll(instructionTemplate, candidatePlaceholder, candidateName(candidate)))
}

// BuildSystemMessage appends the grounding context to the instruction. Without
// context the CONTEXT section is left out entirely.
func BuildSystemMessage(instruction, context string) string {
	instruction = strings.TrimSpace(instruction)
	context = strings.TrimSpace(context)
	if context == "" {
		return instruction
	}

	return instruction + "\n\n" + contextMarker + "\n" + context
}

func candidateName(candidate string) string {
	if candidate = strings.TrimSpace(candidate); candidate == "" {
		return defaultCandidate
	}
	return candidate
}
