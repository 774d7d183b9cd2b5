package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jwebster45206/adventure-engine/pkg/engine"
	"github.com/jwebster45206/adventure-engine/pkg/textfilter"
)

// PlaceholderText is returned when no backend produced anything.
const PlaceholderText = "The world around you shimmers for a moment, and the way forward is uncertain."

// GuardedGenerator wraps a backend with a timeout, a fallback backend and a
// content filter. It never fails.
type GuardedGenerator struct {
	primary  Backend
	fallback Backend
	timeout  time.Duration
	filter   *textfilter.Filter
	logger   *slog.Logger
}

var _ engine.TextGenerator = (*GuardedGenerator)(nil)

// NewGuardedGenerator creates a guard around primary. fallback and filter
// may be nil.
func NewGuardedGenerator(primary, fallback Backend, timeout time.Duration, filter *textfilter.Filter, logger *slog.Logger) *GuardedGenerator {
	return &GuardedGenerator{
		primary:  primary,
		fallback: fallback,
		timeout:  timeout,
		filter:   filter,
		logger:   logger,
	}
}

// Primary returns the wrapped backend.
func (g *GuardedGenerator) Primary() Backend {
	return g.primary
}

func (g *GuardedGenerator) Generate(ctx context.Context, prompt string, maxLength int) string {
	text, err := g.complete(ctx, g.primary, prompt, maxLength)
	if err != nil {
		g.logger.Warn("Text generation failed, using fallback",
			"backend", g.primary.Name(),
			"timed_out", errors.Is(err, context.DeadlineExceeded),
			"error", err)

		text, err = g.tryFallback(ctx, prompt, maxLength)
		if err != nil {
			g.logger.Error("Fallback text generation failed", "error", err)
			text = PlaceholderText
		}
	}
	return g.filter.Apply(text)
}

func (g *GuardedGenerator) tryFallback(ctx context.Context, prompt string, maxLength int) (string, error) {
	if g.fallback == nil || g.fallback == g.primary {
		return "", errors.New("no fallback backend configured")
	}
	return g.complete(ctx, g.fallback, prompt, maxLength)
}

func (g *GuardedGenerator) complete(ctx context.Context, b Backend, prompt string, maxLength int) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := b.Complete(ctx, prompt, maxLength)
	if err == nil && ctx.Err() != nil {
		// Some backends return partial text after the deadline.
		err = ctx.Err()
	}
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyCompletion
	}

	g.logger.Debug("Text generated",
		"backend", b.Name(),
		"duration_ms", time.Since(start).Milliseconds(),
		"length", len(text))
	return text, nil
}
