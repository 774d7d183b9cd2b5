// Package game is the turn API: it loads a player's session, runs the
// engine under the game lock, persists the result and announces it.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services/events"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/actor"
	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/engine"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

var (
	ErrInvalidSession = errors.New("no game in progress")
	ErrEmptyAction    = errors.New("action is required")
	ErrSessionBusy    = errors.New("another turn is in progress for this game")
)

const (
	DefaultPlayerName = "Adventurer"

	GameOverMessage = "Game over. Please start a new game."
	LoadedMessage   = "Game loaded successfully"
	deadMessage     = "You have fallen. Restart or load a saved game to continue."
)

// TurnResponse is a turn result addressed to one game.
type TurnResponse struct {
	GameID uuid.UUID `json:"game_id"`
	engine.TurnResult
}

// LoadResponse describes the session a save was loaded into.
type LoadResponse struct {
	GameID   uuid.UUID `json:"game_id"`
	Message  string    `json:"message"`
	Health   int       `json:"health"`
	Location string    `json:"location"`
}

// ClassSummary is what a player sees when picking a class.
type ClassSummary struct {
	Name          string   `json:"name"`
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	StartingItems []string `json:"starting_items"`
	ArmorClass    int      `json:"armor_class"`
}

type Service struct {
	engine    *engine.Engine
	sessions  storage.SessionStore
	saves     storage.SaveStore
	locker    storage.Locker
	publisher events.Publisher
	newRand   func() engine.Rand
	logger    *slog.Logger
}

func NewService(eng *engine.Engine, sessions storage.SessionStore, saves storage.SaveStore, locker storage.Locker, logger *slog.Logger) *Service {
	return &Service{
		engine:   eng,
		sessions: sessions,
		saves:    saves,
		locker:   locker,
		newRand: func() engine.Rand {
			return engine.NewRand(rand.Uint64())
		},
		logger: logger,
	}
}

// WithPublisher announces game events through p.
func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.publisher = p
	return s
}

// WithRandSource replaces the per-request random source.
func (s *Service) WithRandSource(newRand func() engine.Rand) *Service {
	s.newRand = newRand
	return s
}

// Tables returns the content the game is played with.
func (s *Service) Tables() *content.Tables {
	return s.engine.Tables()
}

// Classes lists the playable classes in their canonical order.
func (s *Service) Classes() []ClassSummary {
	tables := s.engine.Tables()
	summaries := make([]ClassSummary, 0, len(state.Classes()))
	for _, class := range state.Classes() {
		traits, ok := tables.Class(class.String())
		if !ok {
			continue
		}
		summaries = append(summaries, ClassSummary{
			Name:          class.String(),
			Strengths:     traits.Strengths,
			Weaknesses:    traits.Weaknesses,
			StartingItems: traits.StartingItems,
			ArmorClass:    traits.ArmorClass,
		})
	}
	return summaries
}

// StartGame creates a new session with a generated introduction. An empty
// name or class falls back to "Adventurer" the Warrior.
func (s *Service) StartGame(ctx context.Context, name, class string) (TurnResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultPlayerName
	}
	cc := state.ClassWarrior
	if strings.TrimSpace(class) != "" {
		parsed, err := state.ParseCharacterClass(class)
		if err != nil {
			return TurnResponse{}, err
		}
		cc = parsed
	}

	ps := state.NewPlayerState(name, cc)
	result, err := s.engine.Introduction(ctx, s.newRand(), ps)
	if err != nil {
		return TurnResponse{}, fmt.Errorf("failed to generate introduction: %w", err)
	}

	id := uuid.New()
	if err := s.sessions.SaveSession(ctx, id, ps); err != nil {
		return TurnResponse{}, fmt.Errorf("failed to store new game: %w", err)
	}

	s.logger.Info("Game started", "game_id", id, "player", name, "class", cc)
	s.publish(ctx, id, events.EventTypeGameStarted, map[string]any{
		"player_name":     name,
		"character_class": cc.String(),
	})

	return TurnResponse{GameID: id, TurnResult: result}, nil
}

// Act plays one action. "Restart" ends the session whether or not it
// exists; "Drink health potion" is the potion operation.
func (s *Service) Act(ctx context.Context, id uuid.UUID, action string) (TurnResponse, error) {
	action = strings.TrimSpace(action)

	switch action {
	case "":
		return TurnResponse{}, ErrEmptyAction
	case engine.ActionRestart:
		if err := s.End(ctx, id); err != nil {
			s.logger.Warn("Failed to end game on restart", "game_id", id, "error", err)
		}
		return TurnResponse{
			GameID: id,
			TurnResult: engine.TurnResult{
				Message: GameOverMessage,
				Health:  0,
				Choices: []string{},
			},
		}, nil
	case engine.ActionDrinkPotion:
		return s.UsePotion(ctx, id)
	}

	resp, ps, changed, err := s.withSession(ctx, id, func(ps *state.PlayerState) (engine.TurnResult, bool) {
		if ps.IsDead() {
			return deathResult(), false
		}
		return s.engine.ProcessAction(ctx, s.newRand(), ps, action), true
	})
	if err != nil || !changed {
		return resp, err
	}

	s.publish(ctx, id, events.EventTypeTurnCompleted, map[string]any{
		"action":   action,
		"health":   ps.Health,
		"location": ps.Location,
	})
	if ps.IsDead() {
		s.logger.Info("Player died", "game_id", id, "player", ps.Name)
		s.publish(ctx, id, events.EventTypePlayerDied, map[string]any{"player_name": ps.Name})
	}
	return resp, nil
}

// UsePotion drinks a health potion without advancing the story.
func (s *Service) UsePotion(ctx context.Context, id uuid.UUID) (TurnResponse, error) {
	resp, ps, changed, err := s.withSession(ctx, id, func(ps *state.PlayerState) (engine.TurnResult, bool) {
		if ps.IsDead() {
			return deathResult(), false
		}
		before := ps.CountItem(state.HealthPotion)
		result := s.engine.UsePotion(s.newRand(), ps)
		return result, ps.CountItem(state.HealthPotion) != before
	})
	if err != nil || !changed {
		return resp, err
	}

	s.publish(ctx, id, events.EventTypePotionUsed, map[string]any{"health": ps.Health})
	return resp, nil
}

// State returns the stored player state.
func (s *Service) State(ctx context.Context, id uuid.UUID) (*state.PlayerState, error) {
	ps, err := s.sessions.LoadSession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	if ps == nil {
		return nil, ErrInvalidSession
	}
	return ps, nil
}

// Character builds the character sheet for a session.
func (s *Service) Character(ctx context.Context, id uuid.UUID) (*actor.Character, error) {
	ps, err := s.State(ctx, id)
	if err != nil {
		return nil, err
	}
	return actor.NewCharacter(ps, s.engine.Tables())
}

// Save writes the session to the save store under a fresh save id.
func (s *Service) Save(ctx context.Context, id uuid.UUID) (string, error) {
	ps, err := s.State(ctx, id)
	if err != nil {
		return "", err
	}

	saveID := SaveID(ps.Name, s.newRand())
	if err := s.saves.Save(ctx, saveID, ps); err != nil {
		return "", err
	}

	s.logger.Info("Game saved", "game_id", id, "save_id", saveID)
	s.publish(ctx, id, events.EventTypeGameSaved, map[string]any{"save_id": saveID})
	return saveID, nil
}

// Load replaces a session with a saved game. A zero gameID starts a new
// session. Save store errors are returned unchanged.
func (s *Service) Load(ctx context.Context, saveID string, gameID uuid.UUID) (LoadResponse, error) {
	ps, err := s.saves.Load(ctx, saveID)
	if err != nil {
		return LoadResponse{}, err
	}

	if gameID == uuid.Nil {
		gameID = uuid.New()
	} else {
		release, err := s.acquire(ctx, gameID)
		if err != nil {
			return LoadResponse{}, err
		}
		defer release()
	}

	if err := s.sessions.SaveSession(ctx, gameID, ps); err != nil {
		return LoadResponse{}, fmt.Errorf("failed to store loaded game: %w", err)
	}

	s.logger.Info("Game loaded", "game_id", gameID, "save_id", saveID)
	s.publish(ctx, gameID, events.EventTypeGameLoaded, map[string]any{"save_id": saveID})

	return LoadResponse{
		GameID:   gameID,
		Message:  LoadedMessage,
		Health:   ps.Health,
		Location: ps.Location,
	}, nil
}

func (s *Service) ListSaves(ctx context.Context) ([]storage.SaveSummary, error) {
	return s.saves.List(ctx)
}

// End deletes the session. Ending a game that does not exist is not an
// error.
func (s *Service) End(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to end game: %w", err)
	}
	s.logger.Info("Game ended", "game_id", id)
	s.publish(ctx, id, events.EventTypeGameEnded, nil)
	return nil
}

// withSession runs fn on the stored state while holding the game lock. The
// state is written back only when fn reports a change.
func (s *Service) withSession(ctx context.Context, id uuid.UUID, fn func(ps *state.PlayerState) (engine.TurnResult, bool)) (TurnResponse, *state.PlayerState, bool, error) {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return TurnResponse{}, nil, false, err
	}
	defer release()

	ps, err := s.State(ctx, id)
	if err != nil {
		return TurnResponse{}, nil, false, err
	}

	result, changed := fn(ps)
	if changed {
		if err := s.sessions.SaveSession(ctx, id, ps); err != nil {
			return TurnResponse{}, nil, false, fmt.Errorf("failed to store game: %w", err)
		}
	}
	return TurnResponse{GameID: id, TurnResult: result}, ps, changed, nil
}

func (s *Service) acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrLockBusy) {
			return nil, ErrSessionBusy
		}
		return nil, fmt.Errorf("failed to lock game: %w", err)
	}
	return release, nil
}

func (s *Service) publish(ctx context.Context, id uuid.UUID, eventType events.EventType, data map[string]any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, id, eventType, data); err != nil {
		s.logger.Warn("Failed to publish game event", "game_id", id, "event_type", eventType, "error", err)
	}
}

func deathResult() engine.TurnResult {
	return engine.TurnResult{
		Message: deadMessage,
		Health:  0,
		Choices: engine.DeathChoices(),
	}
}

// SaveID is "{name}_{1000..9999}" with every character outside
// [A-Za-z0-9_-] in the name replaced by "_".
func SaveID(name string, rng engine.Rand) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	base := b.String()
	if base == "" {
		base = "player"
	}
	// Leave room for the suffix within the store's id length limit.
	if len(base) > 100 {
		base = base[:100]
	}
	return fmt.Sprintf("%s_%d", base, 1000+rng.IntN(9000))
}
