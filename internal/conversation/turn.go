// Package conversation holds the per-session chat transcript and the event
// step that turns user actions into the next prompt to answer.
package conversation

import "time"

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is a single immutable transcript entry.
type Turn struct {
	Role      Role
	Content   string
	Timestamp time.Time
}

// NewTurn stamps a turn with the current UTC time.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content, Timestamp: time.Now().UTC()}
}
