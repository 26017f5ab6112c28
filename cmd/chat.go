package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spigell/career-bot/internal/concierge"
	"github.com/spigell/career-bot/internal/logger"
	"github.com/spigell/career-bot/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session with the career assistant",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("grounding", "g", "", "grounding strategy: managed or inline")
	chatCmd.Flags().StringP("provider", "p", "", "completion provider: openai or gemini")

	viper.BindPFlag("grounding.strategy", chatCmd.Flags().Lookup("grounding"))
	viper.BindPFlag("ai.provider", chatCmd.Flags().Lookup("provider"))
}

func chat(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	out := cmd.OutOrStdout()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if config == nil {
		logger.Fatal("config is required")
	}

	logger.Info("starting the career-bot", zap.String("version", version))

	if err := loadEnvFile(config.EnvFile); err != nil {
		logger.Warn("loading env file", zap.String("path", config.EnvFile), zap.Error(err))
	}

	provider := providerName(config.AI)

	cred, err := resolveCredential(config, provider, secrets.MaskedPrompt, logger)
	if err != nil {
		if isNotConfigured(err) {
			fmt.Fprintf(out, "Please provide an API key (%s) to enable the executive chatbot.\n", credentialKey(provider))
		}
		logger.Fatal("resolving api key",
			zap.Error(err),
			zap.String("hint", "set "+credentialKey(provider)+" in the secrets file, the environment or .env"),
		)
	}

	svc, closeLogs, err := newService(ctx, config, cred, logger)
	if err != nil {
		logger.Fatal("preparing the assistant", zap.Error(err))
	}
	defer closeLogs()

	fmt.Fprintln(out, "Preparing the assistant...")

	state, err := svc.Open(ctx, "")
	if err != nil {
		if errors.Is(err, concierge.ErrInit) {
			fmt.Fprintf(out, "Unable to initialize the assistant. Please verify your API key and try again.\n\nDetails: %v\n", err)
			os.Exit(1)
		}
		logger.Fatal("opening a session", zap.Error(err))
	}
	defer svc.Close(state.ID)

	sh := &shell{
		out:     out,
		service: svc,
		state:   state,
		config:  config,
		readLine: func(label string) (string, error) {
			prompt := promptui.Prompt{Label: label}
			return prompt.Run()
		},
		readSecret: secrets.MaskedPrompt,
		adminSecret: func() (secrets.Credential, error) {
			return resolveAdminSecret(config, logger)
		},
		logger: logger,
	}

	if err := sh.run(ctx); err != nil {
		logger.Fatal("chat session", zap.Error(err))
	}
}
