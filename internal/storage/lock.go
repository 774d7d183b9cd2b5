package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "game-lock:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// RedisLocker is a per-game mutex shared by every API replica.
type RedisLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

var _ Locker = (*RedisLocker)(nil)

const DefaultLockTTL = 60 * time.Second

func NewRedisLocker(client *redis.Client, logger *slog.Logger) *RedisLocker {
	return &RedisLocker{
		client:     client,
		ttl:        DefaultLockTTL,
		retries:    20,
		retryDelay: 100 * time.Millisecond,
		logger:     logger,
	}
}

// WithRetry overrides how long Acquire waits for a busy lock.
func (l *RedisLocker) WithRetry(retries int, delay time.Duration) *RedisLocker {
	l.retries = retries
	l.retryDelay = delay
	return l
}

// WithTTL sets how long a held lock survives a crashed holder. It must
// outlive the slowest turn; see config.Config.LockTTL.
func (l *RedisLocker) WithTTL(ttl time.Duration) *RedisLocker {
	if ttl > 0 {
		l.ttl = ttl
	}
	return l
}

// Acquire takes the game lock.
func (l *RedisLocker) Acquire(ctx context.Context, id uuid.UUID) (func(), error) {
	lockKey := lockKeyPrefix + id.String()
	token := uuid.NewString()

	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire game lock: %w", err)
		}
		if ok {
			return func() { l.release(lockKey, token) }, nil
		}
		if attempt >= l.retries {
			l.logger.Debug("Game lock busy", "game_id", id, "attempts", attempt+1)
			return nil, ErrLockBusy
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled while waiting for game lock: %w", ctx.Err())
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *RedisLocker) release(lockKey, token string) {
	// The request context may already be done.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client, []string{lockKey}, token).Err(); err != nil {
		l.logger.Error("Failed to release game lock", "lock_key", lockKey, "error", err)
	}
}
