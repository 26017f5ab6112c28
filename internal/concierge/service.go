// Package concierge runs sessions: it sets up grounding and the completion
// strategy when a session opens, then drives each turn through the
// conversation, the interaction log and the strategy.
package concierge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spigell/career-bot/internal/ai"
	"github.com/spigell/career-bot/internal/conversation"
	"github.com/spigell/career-bot/internal/grounding"
	"github.com/spigell/career-bot/internal/interactions"
	"github.com/spigell/career-bot/internal/logger"

	"go.uber.org/zap"
)

// Grounding modes.
const (
	GroundingInline  = "inline"
	GroundingManaged = "managed"
)

// ErrInit means the remote assistant could not be prepared and the session
// cannot continue.
var ErrInit = errors.New("assistant initialization failed")

// Service opens sessions and answers their turns.
type Service struct {
	Candidate   string
	Greeting    string
	Instruction string
	// Mode is GroundingInline or GroundingManaged.
	Mode string

	Documents *grounding.Provider
	// Indexer and Threads are used in managed mode. Without either the
	// session falls back to inline grounding.
	Indexer   *grounding.Indexer
	Threads   *ai.ThreadedRun
	Stateless ai.Strategy

	// Recorders returns the interaction log for a session.
	Recorders func(sessionID string) interactions.Recorder

	Registry *Registry
	Logger   *zap.Logger
}

// Open returns the session with id, creating and registering it when absent.
// An empty id gets a fresh one. Reopening a session never rebuilds its index,
// even when the previous attempt failed after the index was built.
func (s *Service) Open(ctx context.Context, id string) (*State, error) {
	if s.Registry == nil {
		s.Registry = NewRegistry()
	}

	if id == "" {
		id = uuid.NewString()
	}

	if state, ok := s.Registry.Get(id); ok {
		return state, nil
	}

	state := &State{
		ID:           id,
		Conversation: conversation.New(s.Greeting),
		Recorder:     interactions.Nop{},
	}

	if s.Recorders != nil {
		if rec := s.Recorders(id); rec != nil {
			state.Recorder = rec
		}
	}

	log := s.logger().With(zap.String(logger.FieldSession, id))

	if s.Documents != nil {
		state.Documents = s.Documents.Discover()
	}

	if s.Mode == GroundingManaged && s.Indexer != nil && s.Threads != nil {
		index, err := s.Indexer.BuildManagedIndex(ctx, state.Documents, s.Registry.Index(id))
		switch {
		case err != nil:
			log.Warn("managed index unavailable, using inline grounding", zap.Error(err))
			state.Notices = append(state.Notices, "Document index could not be created; answering from inline documents instead.")
		case index != nil:
			state.Index = index
			s.Registry.PutIndex(id, index)

			thread, err := s.Threads.Open(ctx, s.Instruction, index.ID, state.Thread)
			if err != nil {
				log.Error("assistant initialization failed", zap.Error(err))
				return nil, fmt.Errorf("%w: %w", ErrInit, err)
			}

			state.Thread = thread
			state.Strategy = s.Threads
		}
	}

	if state.Strategy == nil {
		if s.Documents != nil {
			state.Grounding = s.Documents.BuildInlineContext(state.Documents)
		}
		state.Strategy = s.Stateless
	}

	if state.Strategy == nil {
		return nil, fmt.Errorf("%w: no completion strategy configured", ErrInit)
	}

	state.Notices = append(state.Notices, groundingNotice(state)...)

	log.Info("session opened",
		zap.String(logger.FieldStrategy, state.Strategy.Name()),
		zap.Int("documents", len(state.Documents)),
		zap.Bool("grounded", state.Grounded()),
	)

	s.Registry.Put(state)

	return state, nil
}

// Handle runs one render cycle of events. When the cycle yields a prompt it is
// answered and the reply returned; otherwise the reply is nil.
func (s *Service) Handle(ctx context.Context, state *State, events ...conversation.Event) (conversation.Instruction, *ai.Reply) {
	instr := conversation.Step(state.Conversation, events...)
	if instr.Prompt == "" {
		return instr, nil
	}

	reply := s.Ask(ctx, state, instr.Prompt)
	return instr, &reply
}

// Ask appends the user turn, records it, asks the strategy, then appends and
// records the reply. The user turn is on record even when the call fails.
func (s *Service) Ask(ctx context.Context, state *State, prompt string) ai.Reply {
	log := logger.WithSession(s.logger(), state.ID, state.Strategy.Name())

	state.Conversation.Append(conversation.NewTurn(conversation.RoleUser, prompt))
	state.Recorder.Record(conversation.RoleUser, prompt)

	reply := state.Strategy.Ask(ctx, ai.Request{
		Instruction: s.Instruction,
		Context:     state.Grounding.Text,
		History:     state.Conversation.History(),
		Thread:      state.Thread,
	})

	if reply.Err != nil {
		log.Warn("answer replaced by fallback", zap.Error(reply.Err))
	}

	state.Conversation.Append(conversation.NewTurn(conversation.RoleAssistant, reply.Text))
	state.Recorder.Record(conversation.RoleAssistant, reply.Text)

	return reply
}

// Close forgets a session.
func (s *Service) Close(id string) {
	if s.Registry != nil {
		s.Registry.Delete(id)
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func groundingNotice(state *State) []string {
	if len(state.Documents) == 0 {
		return []string{"No grounding documents found; answers are not grounded in the CV."}
	}

	names := grounding.Names(state.Documents)
	notices := []string{fmt.Sprintf("RAG active with %d file(s): %s", len(names), strings.Join(names, ", "))}

	for _, warning := range state.Grounding.Warnings {
		notices = append(notices, "Could not read "+warning)
	}

	return notices
}
