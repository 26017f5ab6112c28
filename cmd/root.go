package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spigell/career-bot/internal/grounding"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "career-bot"
)

type Config struct {
	Profile         *ProfileConfig   `mapstructure:"profile"`
	InstructionFile string           `mapstructure:"instruction-file"`
	EnvFile         string           `mapstructure:"env-file"`
	Secrets         *SecretsConfig   `mapstructure:"secrets"`
	Documents       grounding.Config `mapstructure:"documents"`
	Grounding       *GroundingConfig `mapstructure:"grounding"`
	AI              *AIConfig        `mapstructure:"ai"`
	Log             *LogConfig       `mapstructure:"log"`
}

type ProfileConfig struct {
	Name        string   `mapstructure:"name"`
	Title       string   `mapstructure:"title"`
	LinkedIn    string   `mapstructure:"linkedin"`
	Email       string   `mapstructure:"email"`
	Greeting    string   `mapstructure:"greeting"`
	Suggestions []string `mapstructure:"suggestions"`
}

type SecretsConfig struct {
	// File is a toml, yaml or json file with one key per secret.
	File string `mapstructure:"file"`
	// Dir holds one file per secret, named after the key.
	Dir string `mapstructure:"dir"`
}

type GroundingConfig struct {
	Strategy     string        `mapstructure:"strategy"`
	IndexName    string        `mapstructure:"index-name"`
	MaxPolls     int           `mapstructure:"max-polls"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
}

type AIConfig struct {
	Provider     string        `mapstructure:"provider"`
	Temperature  *float32      `mapstructure:"temperature"`
	MaxPolls     int           `mapstructure:"max-polls"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	OpenAI       *OpenAIConfig `mapstructure:"openai"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	Model         string        `mapstructure:"model"`
	BaseURL       string        `mapstructure:"base-url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	AssistantName string        `mapstructure:"assistant-name"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

type LogConfig struct {
	File   string `mapstructure:"file"`
	SQLite string `mapstructure:"sqlite"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-bot answers recruiter questions about one candidate, grounded in their CV and project documents",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("secrets.file", "CAREER_BOT_SECRETS_FILE"); err != nil {
		log.Fatalf("binding CAREER_BOT_SECRETS_FILE environment variable: %v", err)
	}

	if err := viper.BindEnv("secrets.dir", "CAREER_BOT_SECRETS_DIR"); err != nil {
		log.Fatalf("binding CAREER_BOT_SECRETS_DIR environment variable: %v", err)
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-bot.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("profile.name", "Daaniyal Khan")
	v.SetDefault("profile.title", "Strategic Leader & Director | AI & Digital Distribution")
	v.SetDefault("profile.linkedin", "https://www.linkedin.com")
	v.SetDefault("profile.greeting", "Welcome. I am Daaniyal Khan's executive career assistant. Ask me about leadership impact, transformation programs, or strategic fit.")
	v.SetDefault("profile.suggestions", []string{
		"What was the Digital VO Project?",
		"How did he optimize Recruiting?",
		"What is his leadership style?",
	})

	v.SetDefault("instruction-file", "system_instruction.txt")
	v.SetDefault("env-file", ".env")

	v.SetDefault("documents.dir", ".")
	v.SetDefault("documents.cv", "Daaniyal_Khan_Premium_CV.html")
	v.SetDefault("documents.concept", "Competence-Center-Konzept.pdf")
	v.SetDefault("documents.patterns", []string{"*DVO*", "*Project*DVO*"})

	v.SetDefault("grounding.strategy", "managed")
	v.SetDefault("grounding.index-name", "Career Knowledge")
	v.SetDefault("grounding.max-polls", 60)
	v.SetDefault("grounding.poll-interval", time.Second)

	v.SetDefault("ai.provider", providerOpenAI)
	v.SetDefault("ai.max-polls", 60)
	v.SetDefault("ai.poll-interval", time.Second)
	v.SetDefault("ai.max-log-length", 200)
	v.SetDefault("ai.openai.model", "gpt-4o")
	v.SetDefault("ai.openai.timeout", 120*time.Second)
	v.SetDefault("ai.gemini.model", "gemini-2.5-pro")

	v.SetDefault("log.file", "chat_logs.csv")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// Every key has a default, so only an explicit or malformed config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}

// loadEnvFile merges a dotenv file into the process environment. Variables
// already set win, and a missing file is not an error.
func loadEnvFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}
