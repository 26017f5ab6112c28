package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spigell/career-bot/internal/ai/openai"
	"github.com/spigell/career-bot/internal/conversation"
	"github.com/spigell/career-bot/internal/utils"

	"go.uber.org/zap"
)

const (
	defaultAssistantName = "Executive Career Bot"
	defaultMaxPolls      = 60
	toolFileSearch       = "file_search"
)

var errRunTimeout = errors.New("run did not finish in time")

// ThreadsAPI is the stateful assistants surface of the completion service.
type ThreadsAPI interface {
	CreateAssistant(ctx context.Context, req *openai.AssistantRequest) (*openai.Assistant, error)
	CreateThread(ctx context.Context) (*openai.Thread, error)
	CreateMessage(ctx context.Context, threadID, role, content string) (*openai.Message, error)
	CreateRun(ctx context.Context, threadID, assistantID string) (*openai.Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*openai.Run, error)
	ListMessages(ctx context.Context, threadID string, params openai.ListMessagesParams) (*openai.MessageList, error)
}

// Thread is a session's remote assistant and conversation thread.
type Thread struct {
	AssistantID string
	ThreadID    string
}

// ThreadedRun keeps the conversation on the service: each turn posts only the
// newest user message, starts a run and polls it to a terminal state.
// MaxPolls bounds the status checks per turn; a zero PollInterval polls back
// to back.
type ThreadedRun struct {
	API           ThreadsAPI
	Candidate     string
	Model         string
	AssistantName string
	Temperature   *float32
	MaxPolls      int
	PollInterval  time.Duration
	Logger        *zap.Logger
}

func (r *ThreadedRun) Name() string { return "threaded-run" }

// Open creates the assistant and thread for a session. An existing thread is
// returned as is. indexID binds file_search to a managed index when set.
func (r *ThreadedRun) Open(ctx context.Context, instruction, indexID string, existing *Thread) (*Thread, error) {
	if existing != nil {
		return existing, nil
	}

	name := strings.TrimSpace(r.AssistantName)
	if name == "" {
		name = defaultAssistantName
	}

	req := &openai.AssistantRequest{
		Name:         name,
		Instructions: instruction,
		Model:        r.Model,
		Temperature:  r.Temperature,
	}

	if indexID != "" {
		req.Tools = []openai.AssistantTool{{Type: toolFileSearch}}
		req.ToolResources = &openai.ToolResources{
			FileSearch: &openai.FileSearchResources{VectorStoreIDs: []string{indexID}},
		}
	}

	assistant, err := r.API.CreateAssistant(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}

	thread, err := r.API.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("create thread: %w", err)
	}

	r.logger().Info("assistant thread opened",
		zap.String("assistant_id", assistant.ID),
		zap.String("thread_id", thread.ID),
		zap.Bool("file_search", indexID != ""),
	)

	return &Thread{AssistantID: assistant.ID, ThreadID: thread.ID}, nil
}

func (r *ThreadedRun) Ask(ctx context.Context, req Request) Reply {
	logger := r.logger()

	if req.Thread == nil {
		return apologyReply(r.Candidate, errors.New("assistant thread is not open"))
	}

	question, ok := conversation.LastUserTurn(req.History)
	if !ok {
		return fallbackReply(r.Candidate, errors.New("no user question to answer"))
	}

	threadID := req.Thread.ThreadID

	if _, err := r.API.CreateMessage(ctx, threadID, string(conversation.RoleUser), question.Content); err != nil {
		logger.Warn("posting message failed", errorFields(err)...)
		return apologyReply(r.Candidate, err)
	}

	run, err := r.API.CreateRun(ctx, threadID, req.Thread.AssistantID)
	if err != nil {
		logger.Warn("creating run failed", errorFields(err)...)
		return apologyReply(r.Candidate, err)
	}

	run, err = r.waitForRun(ctx, threadID, run)
	if err != nil {
		logger.Warn("run did not complete", zap.Error(err))
		return fallbackReply(r.Candidate, err)
	}

	if run.Status != openai.RunCompleted {
		fields := []zap.Field{zap.String("run_id", run.ID), zap.String("status", run.Status)}
		if run.LastError != nil {
			fields = append(fields, zap.String("code", run.LastError.Code), zap.String("message", run.LastError.Message))
		}
		logger.Warn("run finished without completing", fields...)
		return fallbackReply(r.Candidate, fmt.Errorf("run %s finished with status %s", run.ID, run.Status))
	}

	list, err := r.API.ListMessages(ctx, threadID, openai.ListMessagesParams{RunID: run.ID, Order: "desc"})
	if err != nil {
		logger.Warn("listing messages failed", errorFields(err)...)
		return apologyReply(r.Candidate, err)
	}

	for _, msg := range list.Data {
		if msg.Role != string(conversation.RoleAssistant) {
			continue
		}

		if text := ExtractText(msg); text != "" {
			return Reply{Text: text}
		}
		break
	}

	return fallbackReply(r.Candidate, nil)
}

// waitForRun polls until the run is terminal. Running out of polls or a
// cancelled context is a failure.
func (r *ThreadedRun) waitForRun(ctx context.Context, threadID string, run *openai.Run) (*openai.Run, error) {
	maxPolls := r.MaxPolls
	if maxPolls <= 0 {
		maxPolls = defaultMaxPolls
	}

	for attempt := 0; !run.IsTerminal(); attempt++ {
		if attempt >= maxPolls {
			return nil, fmt.Errorf("%w: run %s still %s after %d polls", errRunTimeout, run.ID, run.Status, maxPolls)
		}

		if err := utils.WaitFor(ctx, r.PollInterval); err != nil {
			return nil, err
		}

		next, err := r.API.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return nil, fmt.Errorf("poll run: %w", err)
		}
		run = next
	}

	return run, nil
}

func (r *ThreadedRun) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
