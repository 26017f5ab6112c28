package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/career-bot/internal/ai"
	"github.com/spigell/career-bot/internal/ai/gemini"
	"github.com/spigell/career-bot/internal/ai/openai"
	"github.com/spigell/career-bot/internal/concierge"
	"github.com/spigell/career-bot/internal/grounding"
	"github.com/spigell/career-bot/internal/interactions"
	"github.com/spigell/career-bot/internal/logger"
	"github.com/spigell/career-bot/internal/secrets"

	"go.uber.org/zap"
)

const (
	providerOpenAI = "openai"
	providerGemini = "gemini"

	keyOpenAI = "OPENAI_API_KEY"
	keyGemini = "GEMINI_API_KEY"
	keyAdmin  = "ADMIN_PASSWORD"
)

func secretStores(cfg *SecretsConfig) []secrets.Store {
	if cfg == nil {
		return nil
	}

	var stores []secrets.Store
	if path := strings.TrimSpace(cfg.File); path != "" {
		stores = append(stores, &secrets.FileStore{Path: path})
	}
	if dir := strings.TrimSpace(cfg.Dir); dir != "" {
		stores = append(stores, &secrets.DirStore{Dir: dir})
	}

	return stores
}

func providerName(cfg *AIConfig) string {
	if cfg == nil {
		return providerOpenAI
	}

	if provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider != "" {
		return provider
	}
	return providerOpenAI
}

func credentialKey(provider string) string {
	if provider == providerGemini {
		return keyGemini
	}
	return keyOpenAI
}

// resolveCredential runs the store, environment, prompt chain for the
// provider's API key. prompt may be nil to disable the interactive layer.
func resolveCredential(config *Config, provider string, prompt secrets.PromptFunc, log *zap.Logger) (secrets.Credential, error) {
	resolver := &secrets.Resolver{
		Key:    credentialKey(provider),
		Stores: secretStores(config.Secrets),
		Prompt: prompt,
		Logger: log,
	}

	return resolver.Resolve()
}

// resolveAdminSecret has no prompt layer and no default, so an unset password
// keeps the log locked.
func resolveAdminSecret(config *Config, log *zap.Logger) (secrets.Credential, error) {
	resolver := &secrets.Resolver{
		Key:    keyAdmin,
		Stores: secretStores(config.Secrets),
		Logger: log,
	}

	return resolver.Resolve()
}

type backend struct {
	stateless ai.Strategy
	indexer   *grounding.Indexer
	threads   *ai.ThreadedRun
}

func newBackend(ctx context.Context, config *Config, provider string, cred secrets.Credential, log *zap.Logger) (*backend, error) {
	aiCfg := config.AI
	if aiCfg == nil {
		aiCfg = &AIConfig{}
	}

	candidate := profileName(config.Profile)

	switch provider {
	case providerOpenAI:
		oaCfg := aiCfg.OpenAI
		if oaCfg == nil {
			oaCfg = &OpenAIConfig{}
		}

		clientLogger := logger.WithCommonFields(log, provider, oaCfg.Model)

		client := openai.New(clientLogger, cred.Value())
		if oaCfg.BaseURL != "" {
			client.APIURL = oaCfg.BaseURL
		}
		if oaCfg.Timeout > 0 {
			client.HTTPClient.Timeout = oaCfg.Timeout
		}

		b := &backend{
			stateless: ai.NewStatelessCompletion(
				&ai.OpenAIChat{Client: client, Model: oaCfg.Model, Temperature: aiCfg.Temperature},
				candidate, aiCfg.MaxLogLength, clientLogger,
			),
			threads: &ai.ThreadedRun{
				API:           client,
				Candidate:     candidate,
				Model:         oaCfg.Model,
				AssistantName: assistantName(oaCfg.AssistantName, candidate),
				Temperature:   aiCfg.Temperature,
				MaxPolls:      aiCfg.MaxPolls,
				PollInterval:  aiCfg.PollInterval,
				Logger:        clientLogger,
			},
		}

		if g := config.Grounding; g != nil {
			b.indexer = &grounding.Indexer{
				Client:       client,
				Name:         g.IndexName,
				MaxPolls:     g.MaxPolls,
				PollInterval: g.PollInterval,
				Logger:       clientLogger,
			}
		}

		return b, nil
	case providerGemini:
		model := ""
		if aiCfg.Gemini != nil {
			model = aiCfg.Gemini.Model
		}

		generator, err := gemini.NewGenerator(ctx, logger.WithCommonFields(log, provider, model), cred.Value(), model, aiCfg.Temperature)
		if err != nil {
			return nil, err
		}

		// The generator resolves the default model when none is configured.
		clientLogger := logger.WithCommonFields(log, provider, generator.Model())

		return &backend{
			stateless: ai.NewStatelessCompletion(generator, candidate, aiCfg.MaxLogLength, clientLogger),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", provider)
	}
}

func newRecorders(config *Config, log *zap.Logger) (func(string) interactions.Recorder, func(), error) {
	logCfg := config.Log
	if logCfg == nil {
		logCfg = &LogConfig{}
	}

	csvLog := interactions.NewCSVLog(logCfg.File, log)

	if strings.TrimSpace(logCfg.SQLite) == "" {
		return func(string) interactions.Recorder { return csvLog }, func() {}, nil
	}

	mirror, err := interactions.OpenSQLite(logCfg.SQLite, log)
	if err != nil {
		return nil, nil, fmt.Errorf("opening sqlite log: %w", err)
	}

	recorders := func(sessionID string) interactions.Recorder {
		return interactions.Multi{csvLog, mirror.ForSession(sessionID)}
	}

	closer := func() {
		if err := mirror.Close(); err != nil {
			log.Warn("closing sqlite log", zap.Error(err))
		}
	}

	return recorders, closer, nil
}

func newService(ctx context.Context, config *Config, cred secrets.Credential, log *zap.Logger) (*concierge.Service, func(), error) {
	provider := providerName(config.AI)

	b, err := newBackend(ctx, config, provider, cred, log)
	if err != nil {
		return nil, nil, err
	}

	candidate := profileName(config.Profile)

	instruction, err := ai.LoadInstruction(config.InstructionFile, candidate)
	if err != nil {
		log.Warn("reading instruction override, using built-in instruction",
			zap.String("path", config.InstructionFile),
			zap.Error(err),
		)
	}

	recorders, closer, err := newRecorders(config, log)
	if err != nil {
		return nil, nil, err
	}

	mode := concierge.GroundingInline
	if config.Grounding != nil && strings.EqualFold(config.Grounding.Strategy, concierge.GroundingManaged) {
		if provider == providerOpenAI {
			mode = concierge.GroundingManaged
		} else {
			log.Warn("managed grounding needs the openai provider, using inline grounding", zap.String("provider", provider))
		}
	}

	greeting := ""
	if config.Profile != nil {
		greeting = config.Profile.Greeting
	}

	svc := &concierge.Service{
		Candidate:   candidate,
		Greeting:    greeting,
		Instruction: instruction,
		Mode:        mode,
		Documents:   grounding.New(config.Documents, log),
		Indexer:     b.indexer,
		Threads:     b.threads,
		Stateless:   b.stateless,
		Recorders:   recorders,
		Registry:    concierge.NewRegistry(),
		Logger:      log,
	}

	return svc, closer, nil
}

func profileName(p *ProfileConfig) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Name)
}

func assistantName(configured, candidate string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	if candidate == "" {
		return ""
	}
	return candidate + " Executive Career Bot"
}

func isNotConfigured(err error) bool {
	return errors.Is(err, secrets.ErrNotConfigured)
}
