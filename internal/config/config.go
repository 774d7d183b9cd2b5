package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	ProviderRuleBased   = "rulebased"
	ProviderOllama      = "ollama"
	ProviderAnthropic   = "anthropic"
	ProviderHuggingFace = "huggingface"
	ProviderGemini      = "gemini"

	SaveBackendFile   = "file"
	SaveBackendSQLite = "sqlite"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	RawLogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel    slog.Level

	RedisURL   string        `env:"REDIS_URL" envDefault:"redis://localhost:6379"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	SaveBackend string `env:"SAVE_BACKEND" envDefault:"file"`
	SaveDir     string `env:"SAVE_DIR" envDefault:"./saves"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"./data/saves.db"`

	TextGenProvider   string        `env:"TEXTGEN_PROVIDER" envDefault:"rulebased"`
	ModelName         string        `env:"MODEL_NAME"`
	OllamaURL         string        `env:"OLLAMA_URL" envDefault:"http://localhost:11434"`
	AnthropicAPIKey   string        `env:"ANTHROPIC_API_KEY"`
	HuggingFaceAPIKey string        `env:"HUGGINGFACE_API_KEY"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GenerateTimeout   time.Duration `env:"GENERATE_TIMEOUT" envDefault:"30s"`

	// ContentRating selects the prose filter: G, PG, PG-13 or R.
	ContentRating string `env:"CONTENT_RATING" envDefault:"PG-13"`
	// ContentPath overrides the built-in content tables with a YAML file.
	ContentPath string `env:"CONTENT_PATH"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.LogLevel = parseLogLevel(cfg.RawLogLevel)
	cfg.TextGenProvider = strings.ToLower(strings.TrimSpace(cfg.TextGenProvider))
	cfg.SaveBackend = strings.ToLower(strings.TrimSpace(cfg.SaveBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// lockMargin covers session reads and writes around generation.
const lockMargin = 15 * time.Second

// LockTTL is how long a session lock lives. A turn may run the primary
// backend and then the fallback, each bounded by GenerateTimeout.
func (c *Config) LockTTL() time.Duration {
	return max(2*c.GenerateTimeout+lockMargin, 60*time.Second)
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	switch c.SaveBackend {
	case SaveBackendFile, SaveBackendSQLite:
	default:
		return fmt.Errorf("unsupported SAVE_BACKEND %q", c.SaveBackend)
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("GENERATE_TIMEOUT must be positive, got %s", c.GenerateTimeout)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
