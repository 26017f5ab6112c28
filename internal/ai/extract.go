package ai

import (
	"strings"

	"github.com/spigell/career-bot/internal/ai/openai"
)

const contentTypeText = "text"

// ExtractText joins the text parts of an assistant message, dropping file
// citation markers, and trims the result.
func ExtractText(msg *openai.Message) string {
	if msg == nil {
		return ""
	}

	chunks := make([]string, 0, len(msg.Content))
	for _, part := range msg.Content {
		if part.Type != contentTypeText || part.Text == nil {
			continue
		}

		value := part.Text.Value
		for _, annotation := range part.Text.Annotations {
			if annotation.Text != "" {
				value = strings.ReplaceAll(value, annotation.Text, "")
			}
		}

		chunks = append(chunks, value)
	}

	return strings.TrimSpace(strings.Join(chunks, "\n"))
}
