// Package ai turns a conversation into a reply from the completion service.
// Two strategies exist: a stateless completion that replays the whole
// transcript each turn, and a threaded run that keeps the conversation on the
// service and retrieves from a managed index.
package ai

import (
	"context"
	"fmt"

	"github.com/spigell/career-bot/internal/ai/openai"
	"github.com/spigell/career-bot/internal/conversation"

	"go.uber.org/zap"
)

// Request is everything a strategy needs to answer the newest user turn.
type Request struct {
	Instruction string
	// Context is inline grounding text. Empty means ungrounded.
	Context string
	History []conversation.Turn
	// Thread is the session's remote thread for ThreadedRun.
	Thread *Thread
}

// Reply is the assistant's answer. Text is never empty.
type Reply struct {
	Text string
	// Fallback is set when Text is a canned fallback rather than model output.
	Fallback bool
	// Err is the remote failure behind a fallback, for operational logs only.
	Err error
}

// Strategy answers a request. Implementations never return an empty reply and
// never mutate the session; the caller appends the reply.
type Strategy interface {
	Name() string
	Ask(ctx context.Context, req Request) Reply
}

// Message is one entry of the outbound message list.
type Message struct {
	Role    string
	Content string
}

// Fallback is the reply used whenever no grounded answer can be produced.
func Fallback(candidate string) string {
	return fmt.Sprintf("Please ask %s directly in the interview.", candidateName(candidate))
}

// Apology is the reply for a failed remote call. err must already be free of
// credentials; the openai client redacts its own.
func Apology(candidate string, err error) string {
	return fmt.Sprintf("I could not complete that request due to an API error. %s\n\nDetails: %v", Fallback(candidate), err)
}

// BuildMessages lays out the system message followed by the full transcript.
func BuildMessages(system string, history []conversation.Turn) []Message {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: string(conversation.RoleSystem), Content: system})

	for _, turn := range history {
		if turn.Role == conversation.RoleSystem {
			continue
		}
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}

	return messages
}

func fallbackReply(candidate string, err error) Reply {
	return Reply{Text: Fallback(candidate), Fallback: true, Err: err}
}

func apologyReply(candidate string, err error) Reply {
	return Reply{Text: Apology(candidate, err), Fallback: true, Err: err}
}

// errorFields describes a failed service call for the log. Rejected keys and
// throttling get their own class so they stand out from ordinary failures.
func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	apiErr, ok := openai.AsAPIError(err)
	if !ok {
		return fields
	}

	class := "api"
	switch {
	case apiErr.IsAuth():
		class = "auth"
	case apiErr.IsRateLimit():
		class = "rate_limit"
	}

	return append(fields, zap.String("error_class", class), zap.Int("status", apiErr.StatusCode))
}
