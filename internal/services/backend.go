package services

import (
	"context"
	"errors"
)

var ErrEmptyCompletion = errors.New("backend returned no text")

// Backend is a text generation provider. Unlike engine.TextGenerator it
// reports failures; GuardedGenerator turns them into fallback prose.
type Backend interface {
	// Complete continues prompt with at most roughly maxLength tokens.
	Complete(ctx context.Context, prompt string, maxLength int) (string, error)

	// Name identifies the backend in logs.
	Name() string
}

// Initializer is implemented by backends that need a startup step, such as
// pulling a local model.
type Initializer interface {
	InitModel(ctx context.Context) error
}

// Closer is implemented by backends holding client resources.
type Closer interface {
	Close() error
}
