package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// MockSessionStore is an in-memory SessionStore for tests.
type MockSessionStore struct {
	mu        sync.RWMutex
	sessions  map[uuid.UUID]*state.PlayerState
	pingError error
	saveError error
}

var _ SessionStore = (*MockSessionStore)(nil)

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{
		sessions: make(map[uuid.UUID]*state.PlayerState),
	}
}

// SetPingSuccess configures the mock to succeed on ping
func (m *MockSessionStore) SetPingSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = nil
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockSessionStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every SaveSession call fail with err.
func (m *MockSessionStore) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

func (m *MockSessionStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockSessionStore) Close() error {
	return nil
}

func (m *MockSessionStore) SaveSession(ctx context.Context, id uuid.UUID, ps *state.PlayerState) error {
	if ps == nil {
		return errors.New("player state cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.sessions[id] = ps.Clone()
	return nil
}

func (m *MockSessionStore) LoadSession(ctx context.Context, id uuid.UUID) (*state.PlayerState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return ps.Clone(), nil
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are stored.
func (m *MockSessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MockLocker is an in-process Locker that fails fast when a game is held.
type MockLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
}

var _ Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker {
	return &MockLocker{held: make(map[uuid.UUID]bool)}
}

func (m *MockLocker) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[id] {
		return nil, ErrLockBusy
	}
	m.held[id] = true
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, id)
	}, nil
}

// MockSaveStore is an in-memory SaveStore for tests.
type MockSaveStore struct {
	mu    sync.RWMutex
	saves map[string]*state.PlayerState
}

var _ SaveStore = (*MockSaveStore)(nil)

func NewMockSaveStore() *MockSaveStore {
	return &MockSaveStore{saves: make(map[string]*state.PlayerState)}
}

func (m *MockSaveStore) Save(ctx context.Context, saveID string, ps *state.PlayerState) error {
	if err := ValidateSaveID(saveID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[saveID] = ps.Clone()
	return nil
}

func (m *MockSaveStore) Load(ctx context.Context, saveID string) (*state.PlayerState, error) {
	if err := ValidateSaveID(saveID); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ps, ok := m.saves[saveID]
	if !ok {
		return nil, &SaveError{SaveID: saveID, Err: ErrSaveNotFound}
	}
	return ps.Clone(), nil
}

func (m *MockSaveStore) List(ctx context.Context) ([]SaveSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	saves := make([]SaveSummary, 0, len(m.saves))
	for id, ps := range m.saves {
		saves = append(saves, summarize(id, ps))
	}
	sortSummaries(saves)
	return saves, nil
}

func (m *MockSaveStore) Close() error {
	return nil
}
