package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// SessionStore holds the live player state of running games.
type SessionStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	SaveSession(ctx context.Context, id uuid.UUID, ps *state.PlayerState) error
	// LoadSession returns nil, nil when the session does not exist.
	LoadSession(ctx context.Context, id uuid.UUID) (*state.PlayerState, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// Locker serializes turns for a single game.
type Locker interface {
	// Acquire blocks until the lock is held or the retry budget is spent.
	// The returned func releases the lock.
	Acquire(ctx context.Context, id uuid.UUID) (release func(), err error)
}

// SaveSummary is one row of the save listing.
type SaveSummary struct {
	SaveID         string    `json:"save_id"`
	PlayerName     string    `json:"player_name"`
	CharacterClass string    `json:"character_class"`
	Health         int       `json:"health"`
	Location       string    `json:"location"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SaveStore keeps named snapshots of player state that outlive sessions.
type SaveStore interface {
	Save(ctx context.Context, saveID string, ps *state.PlayerState) error
	Load(ctx context.Context, saveID string) (*state.PlayerState, error)
	List(ctx context.Context) ([]SaveSummary, error)
	Close() error
}

func summarize(saveID string, ps *state.PlayerState) SaveSummary {
	return SaveSummary{
		SaveID:         saveID,
		PlayerName:     ps.Name,
		CharacterClass: ps.Class.String(),
		Health:         ps.Health,
		Location:       ps.Location,
		UpdatedAt:      ps.UpdatedAt,
	}
}

// decodeSave parses a stored save and rejects states the game could never
// have written.
func decodeSave(saveID string, data []byte) (*state.PlayerState, error) {
	var ps state.PlayerState
	if err := json.Unmarshal(data, &ps); err != nil {
		return nil, &SaveError{SaveID: saveID, Err: fmt.Errorf("%w: %v", ErrSaveCorrupt, err)}
	}
	if err := ps.Validate(); err != nil {
		return nil, &SaveError{SaveID: saveID, Err: fmt.Errorf("%w: %v", ErrSaveCorrupt, err)}
	}
	return &ps, nil
}
