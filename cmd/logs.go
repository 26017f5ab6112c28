package cmd

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/spigell/career-bot/internal/interactions"
	"github.com/spigell/career-bot/internal/logger"
	"github.com/spigell/career-bot/internal/secrets"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Work with the interaction log",
}

var logsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the interaction log after admin authentication",
	Run: func(cmd *cobra.Command, _ []string) {
		exportLogs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(logsExportCmd)

	logsExportCmd.Flags().StringP("out", "o", defaultExportName, "destination file for the exported log")
}

func exportLogs(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if err := loadEnvFile(config.EnvFile); err != nil {
		logger.Warn("loading env file", zap.String("path", config.EnvFile), zap.Error(err))
	}

	dst, _ := cmd.Flags().GetString("out")

	logPath := interactions.DefaultPath
	if config.Log != nil && config.Log.File != "" {
		logPath = config.Log.File
	}

	secret, err := resolveAdminSecret(config, logger)
	if err != nil {
		logger.Fatal("log export is disabled",
			zap.Error(err),
			zap.String("hint", "set "+keyAdmin+" in the secrets file or the environment"),
		)
	}

	n, err := runExport(cmd.OutOrStdout(), secrets.MaskedPrompt, secret, logPath, dst)
	if err != nil {
		logger.Fatal("exporting logs", zap.Error(err))
	}

	logger.Info("exported interaction log", zap.String("out", dst), zap.Int("entries", n))
}

// runExport asks for the admin password and copies the log when it matches.
func runExport(out io.Writer, readSecret func(string) (string, error), secret secrets.Credential, src, dst string) (int, error) {
	given, err := readSecret("Admin password")
	if err != nil {
		return 0, fmt.Errorf("reading admin password: %w", err)
	}

	if err := interactions.Authorize(strings.TrimSpace(given), secret.Value()); err != nil {
		return 0, err
	}

	n, err := interactions.Export(src, dst)
	if err != nil {
		return 0, err
	}

	fmt.Fprintf(out, "Exported %d log entries to %s.\n", n, dst)
	return n, nil
}
