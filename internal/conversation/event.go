package conversation

import "strings"

// Event is a discrete user action produced by the presentation shell.
type Event interface {
	event()
}

// Submit carries text the user typed.
type Submit struct {
	Text string
}

// ClickShortcut carries a suggested question the user picked.
type ClickShortcut struct {
	Question string
}

// ToggleAdmin opens or closes the log download panel.
type ToggleAdmin struct{}

func (Submit) event()        {}
func (ClickShortcut) event() {}
func (ToggleAdmin) event()   {}

// Instruction tells the caller what to do after a cycle.
type Instruction struct {
	// Prompt is the question to answer. Empty means render only.
	Prompt string
	// ShowAdmin reports whether the log download panel is open.
	ShowAdmin bool
}

// Step applies one render cycle of events to the session. Typed input wins over
// a staged shortcut; the staged shortcut is then dropped so it never fires on a
// later cycle. Step never appends turns, the caller does once it has the prompt.
func Step(s *Session, events ...Event) Instruction {
	typed := ""

	for _, ev := range events {
		switch e := ev.(type) {
		case Submit:
			if text := strings.TrimSpace(e.Text); text != "" {
				typed = text
			}
		case ClickShortcut:
			s.StageShortcut(e.Question)
		case ToggleAdmin:
			s.toggleAdmin()
		}
	}

	if typed != "" {
		s.discardPendingShortcut()
		return Instruction{Prompt: typed, ShowAdmin: s.AdminOpen()}
	}

	prompt, _ := s.ConsumePendingShortcut()
	return Instruction{Prompt: prompt, ShowAdmin: s.AdminOpen()}
}
