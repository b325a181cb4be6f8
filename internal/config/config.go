package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type LLMProvider string

const (
	ProviderOpenAI LLMProvider = "openai"
	ProviderYandex LLMProvider = "yandex"
	ProviderMock   LLMProvider = "mock"
)

type Config struct {
	HTTPAddr           string   `env:"HTTP_ADDR" envDefault:":8000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// LLM settings
	LLMProvider      LLMProvider   `env:"LLM_PROVIDER" envDefault:"openai"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts; empty path keeps the built-in instruction
	SystemPromptPath string `env:"SYSTEM_PROMPT_PATH"`

	// Sessions
	SessionTTL      time.Duration `env:"SESSION_TTL" envDefault:"6h"`
	MaxSessions     int           `env:"MAX_SESSIONS" envDefault:"5000"`
	SessionIDPrefix string        `env:"SESSION_ID_PREFIX" envDefault:"sess_"`

	// Background jobs (cron specs)
	SessionSweepSchedule string `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 1m"`
	DailyReportSchedule  string `env:"DAILY_REPORT_SCHEDULE" envDefault:"0 21 * * *"`

	// Storage; empty path disables the interaction log
	LogFilePath string `env:"LOG_FILE_PATH" envDefault:"logs/interactions.jsonl"`
}

// Parse reads the configuration from the environment.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}
