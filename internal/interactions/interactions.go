// Package interactions keeps the durable, append-only record of every turn
// and gates access to it behind the admin password.
package interactions

import (
	"github.com/spigell/career-bot/internal/conversation"
)

// Recorder persists one turn. Implementations are best effort: failures are
// logged and never reach the caller.
type Recorder interface {
	Record(role conversation.Role, content string)
}

// Entry is one row of the interaction log.
type Entry struct {
	Timestamp string
	Role      string
	Content   string
}

// Multi fans a turn out to every recorder in order.
type Multi []Recorder

func (m Multi) Record(role conversation.Role, content string) {
	for _, r := range m {
		if r != nil {
			r.Record(role, content)
		}
	}
}

// Nop discards every turn.
type Nop struct{}

func (Nop) Record(conversation.Role, string) {}
