package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spigell/career-bot/internal/concierge"
	"github.com/spigell/career-bot/internal/conversation"
	"github.com/spigell/career-bot/internal/grounding"
	"github.com/spigell/career-bot/internal/interactions"
	"github.com/spigell/career-bot/internal/secrets"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"
)

const (
	commandQuit  = "/quit"
	commandExit  = "/exit"
	commandHelp  = "/help"
	commandAdmin = "/admin"
	commandCV    = "/cv"

	defaultExportName = "chat_logs_export.csv"
	progressLine      = "Preparing executive response..."
)

var errQuit = errors.New("quit requested")

// shell is the terminal presentation: it turns lines into events, hands them
// to the service and prints what comes back.
type shell struct {
	out     io.Writer
	service *concierge.Service
	state   *concierge.State
	config  *Config

	readLine    func(label string) (string, error)
	readSecret  func(label string) (string, error)
	adminSecret func() (secrets.Credential, error)

	logger *zap.Logger
}

func (s *shell) run(ctx context.Context) error {
	s.printHeader()
	s.printNotices()
	s.printSuggestions()

	for _, turn := range s.state.Conversation.History() {
		s.printTurn(turn)
	}

	label := "Ask about the candidate"
	if name := profileName(s.config.Profile); name != "" {
		label = fmt.Sprintf("Ask about %s's leadership, innovation projects, and executive fit", name)
	}

	for {
		line, err := s.readLine(label)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := s.handleLine(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// handleLine runs one cycle for a line of input.
func (s *shell) handleLine(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)

	events, err := s.parse(line)
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return nil
	}

	if asks(events) {
		fmt.Fprintln(s.out, progressLine)
	}

	instr, reply := s.service.Handle(ctx, s.state, events...)

	if reply != nil {
		s.printTurn(conversation.Turn{Role: conversation.RoleAssistant, Content: reply.Text})
	}

	if toggles(events) {
		if !instr.ShowAdmin {
			fmt.Fprintln(s.out, "Admin panel closed.")
			return nil
		}
		s.adminPanel()
	}

	return nil
}

func (s *shell) parse(line string) ([]conversation.Event, error) {
	if line == "" {
		return nil, nil
	}

	if !strings.HasPrefix(line, "/") {
		return []conversation.Event{conversation.Submit{Text: line}}, nil
	}

	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch command {
	case commandQuit, commandExit:
		return nil, errQuit
	case commandHelp:
		s.printHelp()
		return nil, nil
	case commandAdmin:
		return []conversation.Event{conversation.ToggleAdmin{}}, nil
	case commandCV:
		s.downloadCV(arg)
		return nil, nil
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(command, "/")); err == nil {
		suggestions := s.suggestions()
		if n < 1 || n > len(suggestions) {
			fmt.Fprintf(s.out, "There is no suggested question %d.\n", n)
			return nil, nil
		}
		return []conversation.Event{conversation.ClickShortcut{Question: suggestions[n-1]}}, nil
	}

	fmt.Fprintf(s.out, "Unknown command %s. Type %s for help.\n", command, commandHelp)
	return nil, nil
}

func toggles(events []conversation.Event) bool {
	for _, ev := range events {
		if _, ok := ev.(conversation.ToggleAdmin); ok {
			return true
		}
	}
	return false
}

func asks(events []conversation.Event) bool {
	for _, ev := range events {
		switch e := ev.(type) {
		case conversation.Submit:
			if strings.TrimSpace(e.Text) != "" {
				return true
			}
		case conversation.ClickShortcut:
			return true
		}
	}
	return false
}

// adminPanel unlocks the log download. Without a configured admin password
// it stays locked.
func (s *shell) adminPanel() {
	secret, err := s.adminSecret()
	if err != nil {
		s.logger.Warn("admin panel locked", zap.Error(err))
		fmt.Fprintln(s.out, "Admin access is disabled: no admin password is configured.")
		return
	}

	dst, err := s.readLine("Save logs to (default " + defaultExportName + ")")
	if err != nil {
		return
	}

	if dst = strings.TrimSpace(dst); dst == "" {
		dst = defaultExportName
	}

	if _, err := runExport(s.out, s.readSecret, secret, s.logPath(), dst); err != nil {
		switch {
		case errors.Is(err, interactions.ErrUnauthorized):
			fmt.Fprintln(s.out, "Access denied.")
		default:
			fmt.Fprintf(s.out, "Could not export logs: %v\n", err)
		}
	}
}

func (s *shell) downloadCV(dst string) {
	src := s.cvPath()
	if src == "" {
		fmt.Fprintln(s.out, "No CV is configured.")
		return
	}

	if dst == "" {
		dst = filepath.Base(src)
	}

	if err := copyFile(src, dst); err != nil {
		fmt.Fprintf(s.out, "Could not copy the CV: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "CV saved to %s.\n", dst)
}

func (s *shell) printHeader() {
	p := s.config.Profile
	if p == nil {
		return
	}

	title := p.Name
	if p.Title != "" {
		title += " – " + p.Title
	}
	fmt.Fprintf(s.out, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))

	if img, ok := grounding.FindProfileImage(s.config.Documents.Dir); ok {
		fmt.Fprintf(s.out, "Profile: %s\n", img)
	}
	if p.LinkedIn != "" {
		fmt.Fprintf(s.out, "LinkedIn: %s\n", p.LinkedIn)
	}
	if p.Email != "" {
		fmt.Fprintf(s.out, "Email: %s\n", p.Email)
	}

	if cv := s.cvPath(); cv != "" {
		if _, err := os.Stat(cv); err == nil {
			fmt.Fprintf(s.out, "CV: %s (type %s PATH to save a copy)\n", cv, commandCV)
		} else {
			fmt.Fprintf(s.out, "Place %s in %s to enable CV download.\n", filepath.Base(cv), s.config.Documents.Dir)
		}
	}

	fmt.Fprintln(s.out)
}

func (s *shell) printNotices() {
	for _, notice := range s.state.Notices {
		fmt.Fprintln(s.out, notice)
	}
}

func (s *shell) printSuggestions() {
	suggestions := s.suggestions()
	if len(suggestions) == 0 {
		return
	}

	fmt.Fprintln(s.out, "Suggested questions:")
	for i, q := range suggestions {
		fmt.Fprintf(s.out, "  /%d %s\n", i+1, q)
	}
	fmt.Fprintln(s.out)
}

func (s *shell) printHelp() {
	fmt.Fprintf(s.out, "Commands:\n  /N        ask suggested question N\n  %s PATH  save a copy of the CV\n  %s    download the interaction log\n  %s     leave\n", commandCV, commandAdmin, commandQuit)
}

func (s *shell) printTurn(turn conversation.Turn) {
	fmt.Fprintf(s.out, "%s> %s\n\n", turn.Role, turn.Content)
}

func (s *shell) suggestions() []string {
	if s.config.Profile == nil {
		return nil
	}
	return s.config.Profile.Suggestions
}

func (s *shell) cvPath() string {
	cv := strings.TrimSpace(s.config.Documents.CV)
	if cv == "" || filepath.IsAbs(cv) || s.config.Documents.Dir == "" {
		return cv
	}
	return filepath.Join(s.config.Documents.Dir, cv)
}

func (s *shell) logPath() string {
	if s.config.Log == nil || s.config.Log.File == "" {
		return interactions.DefaultPath
	}
	return s.config.Log.File
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
