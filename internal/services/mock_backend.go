package services

import (
	"context"
	"sync"
)

// MockBackend is a mock implementation of Backend for testing
type MockBackend struct {
	CompleteFunc func(ctx context.Context, prompt string, maxLength int) (string, error)
	NameValue    string

	// Track calls for testing
	CompleteCalls []CompleteCall

	mu sync.Mutex // protects all fields above
}

type CompleteCall struct {
	Prompt    string
	MaxLength int
}

// NewMockBackend creates a mock that answers every prompt with text
func NewMockBackend(text string) *MockBackend {
	return &MockBackend{
		CompleteFunc: func(ctx context.Context, prompt string, maxLength int) (string, error) {
			return text, nil
		},
		NameValue: "mock",
	}
}

func (m *MockBackend) Name() string {
	if m.NameValue == "" {
		return "mock"
	}
	return m.NameValue
}

// Complete records the call and delegates to CompleteFunc
func (m *MockBackend) Complete(ctx context.Context, prompt string, maxLength int) (string, error) {
	m.mu.Lock()
	m.CompleteCalls = append(m.CompleteCalls, CompleteCall{Prompt: prompt, MaxLength: maxLength})
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, prompt, maxLength)
	}
	return "The story continues.", nil
}

// Calls returns a copy of the recorded calls
func (m *MockBackend) Calls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompleteCall(nil), m.CompleteCalls...)
}
