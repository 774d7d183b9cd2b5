package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeGameStarted   EventType = "game.started"
	EventTypeTurnCompleted EventType = "turn.completed"
	EventTypePotionUsed    EventType = "potion.used"
	EventTypePlayerDied    EventType = "player.died"
	EventTypeGameSaved     EventType = "game.saved"
	EventTypeGameLoaded    EventType = "game.loaded"
	EventTypeGameEnded     EventType = "game.ended"
)

// Event represents a generic event structure
type Event struct {
	Type   EventType      `json:"type"`
	GameID string         `json:"game_id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// Publisher is what the game service needs from a broadcaster.
type Publisher interface {
	Publish(ctx context.Context, gameID uuid.UUID, eventType EventType, data map[string]any) error
}

// Channel returns the pub/sub channel for a game.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Publish publishes an event to the game-specific channel
func (b *Broadcaster) Publish(ctx context.Context, gameID uuid.UUID, eventType EventType, data map[string]any) error {
	event := Event{
		Type:   eventType,
		GameID: gameID.String(),
		Data:   data,
	}
	channel := Channel(gameID)

	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event_type", eventType)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", eventType,
	)

	return nil
}

// Subscribe opens a subscription to a game's channel. Callers must close it.
func (b *Broadcaster) Subscribe(ctx context.Context, gameID uuid.UUID) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, Channel(gameID))
}
