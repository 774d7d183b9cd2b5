package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

const sessionKeyPrefix = "session:"

// NewRedisClient accepts either a redis:// URL or a bare host:port.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// RedisSessionStore keeps live sessions in Redis with a sliding TTL.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ SessionStore = (*RedisSessionStore)(nil)

func NewRedisSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Health and lifecycle methods

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisSessionStore) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Session operations

func (r *RedisSessionStore) SaveSession(ctx context.Context, id uuid.UUID, ps *state.PlayerState) error {
	if ps == nil {
		return errors.New("player state cannot be nil")
	}
	ps.UpdatedAt = time.Now()

	data, err := json.Marshal(ps)
	if err != nil {
		r.logger.Error("Failed to marshal session", "game_id", id, "error", err)
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+id.String(), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save session", "game_id", id, "error", err)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) LoadSession(ctx context.Context, id uuid.UUID) (*state.PlayerState, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Session not found", "game_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load session", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var ps state.PlayerState
	if err := json.Unmarshal(data, &ps); err != nil {
		r.logger.Error("Failed to unmarshal session", "game_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if err := ps.Validate(); err != nil {
		r.logger.Error("Stored session is invalid", "game_id", id, "error", err)
		return nil, fmt.Errorf("invalid session: %w", err)
	}
	return &ps, nil
}

func (r *RedisSessionStore) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKeyPrefix+id.String()).Err(); err != nil {
		r.logger.Error("Failed to delete session", "game_id", id, "error", err)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
