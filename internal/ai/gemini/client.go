package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spigell/career-bot/internal/ai"
	"github.com/spigell/career-bot/internal/utils"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultModel      = "gemini-2.5-pro"
	defaultMaxRetries = 3
	defaultBackoff    = 2 * time.Second
	defaultMaxLogLen  = 200
	// maxQuotaDelay is the longest server-requested wait worth sitting through.
	maxQuotaDelay = 30 * time.Second
)

var retryAfterPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(?:s\b|sec|second)`)

type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type genaiChats struct {
	chats *genai.Chats
}

func (c genaiChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.chats.Create(ctx, model, config, history)
}

// Generator answers a transcript through a Gemini chat. It satisfies
// ai.Completer, so the stateless strategy can run against Gemini as well.
type Generator struct {
	chats       chatCreator
	model       string
	temperature *float32
	maxRetries  int
	backoff     time.Duration
	maxLogLen   int
	logger      *zap.Logger
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, logger *zap.Logger, apiKey, model string, temperature *float32) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Generator{
		chats:       genaiChats{chats: client.Chats},
		model:       model,
		temperature: temperature,
		maxRetries:  defaultMaxRetries,
		backoff:     defaultBackoff,
		maxLogLen:   defaultMaxLogLen,
		logger:      logger,
	}, nil
}

// Complete sends the last user message on top of the preceding transcript.
// System messages become the chat's system instruction.
func (g *Generator) Complete(ctx context.Context, messages []ai.Message) (string, error) {
	if g == nil || g.chats == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	system, history, question, err := splitMessages(messages)
	if err != nil {
		return "", err
	}

	config := &genai.GenerateContentConfig{Temperature: g.temperature}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	attempts := g.maxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		output, err := g.send(ctx, config, history, question)
		if err == nil {
			return output, nil
		}
		lastErr = err

		delay, retry := retryDelay(err, g.backoff, attempt)
		if !retry || attempt == attempts {
			break
		}

		g.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := utils.WaitFor(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", lastErr
}

func (g *Generator) send(ctx context.Context, config *genai.GenerateContentConfig, history []*genai.Content, question string) (string, error) {
	chat, err := g.chats.Create(ctx, g.model, config, history)
	if err != nil {
		return "", fmt.Errorf("create chat: %w", err)
	}

	g.logger.Debug("gemini chat request",
		zap.Int("history", len(history)),
		zap.Int("question_length", utf8.RuneCountInString(question)),
	)

	resp, err := chat.SendMessage(ctx, *genai.NewPartFromText(question))
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	output := responseText(resp)

	g.logger.Debug("gemini chat response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, g.logLimit())),
	)

	return output, nil
}

func (g *Generator) logLimit() int {
	if g.maxLogLen <= 0 {
		return defaultMaxLogLen
	}
	return g.maxLogLen
}

// Model reports the model the generator talks to.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func splitMessages(messages []ai.Message) (string, []*genai.Content, string, error) {
	var (
		system  []string
		history []*genai.Content
	)

	last := -1
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			last = i
			break
		}
	}

	if last == -1 {
		return "", nil, "", errors.New("no user message to send")
	}

	for i, m := range messages {
		if i == last {
			continue
		}

		switch m.Role {
		case "system":
			if text := strings.TrimSpace(m.Content); text != "" {
				system = append(system, text)
			}
		case "assistant":
			history = append(history, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			history = append(history, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}

	return strings.Join(system, "\n\n"), history, messages[last].Content, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// retryDelay decides whether err is worth another attempt and how long to
// wait first. Quota errors asking for a long pause are not retried.
func retryDelay(err error, base time.Duration, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	if base <= 0 {
		base = defaultBackoff
	}
	backoff := base * time.Duration(attempt)

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		match := retryAfterPattern.FindStringSubmatch(apiErr.Message)
		if match == nil {
			return backoff, true
		}
		seconds, parseErr := strconv.ParseFloat(match[1], 64)
		if parseErr != nil {
			return backoff, true
		}
		delay := time.Duration(seconds * float64(time.Second))
		if delay > maxQuotaDelay {
			return 0, false
		}
		return delay, true
	case apiErr.Code >= http.StatusInternalServerError:
		return backoff, true
	default:
		return 0, false
	}
}
