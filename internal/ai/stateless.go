package ai

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spigell/career-bot/internal/ai/openai"
	"github.com/spigell/career-bot/internal/utils"

	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// Completer sends a full message list to a stateless completion endpoint and
// returns the top choice's text.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// StatelessCompletion replays the system message and the whole transcript on
// every turn.
type StatelessCompletion struct {
	completer Completer
	candidate string
	logger    *zap.Logger
	maxLogLen int
}

func NewStatelessCompletion(completer Completer, candidate string, maxLogLength int, logger *zap.Logger) *StatelessCompletion {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &StatelessCompletion{
		completer: completer,
		candidate: candidate,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (s *StatelessCompletion) Name() string { return "stateless-completion" }

func (s *StatelessCompletion) Ask(ctx context.Context, req Request) Reply {
	if s.completer == nil {
		return apologyReply(s.candidate, errors.New("completion backend is not configured"))
	}

	system := BuildSystemMessage(req.Instruction, req.Context)
	messages := BuildMessages(system, req.History)

	s.logger.Debug("completion request",
		zap.Int("messages", len(messages)),
		zap.Int("system_length", utf8.RuneCountInString(system)),
		zap.Bool("grounded", strings.TrimSpace(req.Context) != ""),
	)

	raw, err := s.completer.Complete(ctx, messages)
	if err != nil {
		s.logger.Warn("completion request failed", errorFields(err)...)
		return apologyReply(s.candidate, err)
	}

	text := strings.TrimSpace(raw)

	s.logger.Debug("completion response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, s.maxLogLen)),
	)

	if text == "" {
		return fallbackReply(s.candidate, nil)
	}

	return Reply{Text: text}
}

// OpenAIChat is a Completer backed by the chat completions endpoint.
type OpenAIChat struct {
	Client      *openai.Client
	Model       string
	Temperature *float32
}

func (o *OpenAIChat) Complete(ctx context.Context, messages []Message) (string, error) {
	req := &openai.ChatCompletionRequest{
		Model:       o.Model,
		Temperature: o.Temperature,
		Messages:    make([]openai.ChatMessage, 0, len(messages)),
	}

	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
