package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/textfilter"
)

// NewTextGenerator builds the configured backend behind a guard. Missing
// credentials, unknown providers and failed initialization all fall back to
// the rule-based backend.
func NewTextGenerator(ctx context.Context, cfg *config.Config, tables *content.Tables, logger *slog.Logger) *GuardedGenerator {
	ruleBased := NewRuleBasedService(tables.Fallback, uint64(time.Now().UnixNano()))
	primary := newBackend(ctx, cfg, logger)
	if init, ok := primary.(Initializer); ok {
		if err := init.InitModel(ctx); err != nil {
			logger.Warn("Failed to initialize text backend, falling back to rule-based generation",
				"backend", primary.Name(),
				"error", err)
			primary = nil
		}
	}
	if primary == nil {
		primary = ruleBased
	}

	filter := textfilter.New(textfilter.ParseRating(cfg.ContentRating))

	logger.Info("Text generator configured",
		"provider", cfg.TextGenProvider,
		"backend", primary.Name(),
		"timeout", cfg.GenerateTimeout,
		"content_rating", filter.Rating())

	return NewGuardedGenerator(primary, ruleBased, cfg.GenerateTimeout, filter, logger)
}

// newBackend returns nil when the rule-based backend should be used.
func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) Backend {
	switch cfg.TextGenProvider {
	case config.ProviderRuleBased, "":
		return nil

	case config.ProviderOllama:
		return NewOllamaService(cfg.OllamaURL, cfg.ModelName, logger)

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("ANTHROPIC_API_KEY is not set, falling back to rule-based generation")
			return nil
		}
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, logger)

	case config.ProviderHuggingFace:
		if cfg.HuggingFaceAPIKey == "" {
			logger.Warn("HUGGINGFACE_API_KEY is not set, falling back to rule-based generation")
			return nil
		}
		return NewHuggingFaceService(cfg.HuggingFaceAPIKey, cfg.ModelName, logger)

	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set, falling back to rule-based generation")
			return nil
		}
		gemini, err := NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.ModelName, logger)
		if err != nil {
			logger.Warn("Failed to initialize Gemini, falling back to rule-based generation", "error", err)
			return nil
		}
		return gemini

	default:
		logger.Warn("Unknown text generation provider, falling back to rule-based generation",
			"provider", cfg.TextGenProvider)
		return nil
	}
}

// Close releases resources held by the primary backend.
func (g *GuardedGenerator) Close() error {
	if c, ok := g.primary.(Closer); ok {
		return c.Close()
	}
	return nil
}
