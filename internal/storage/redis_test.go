package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewRedisClient(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{name: "bare address", url: "localhost:6379", wantAddr: "localhost:6379"},
		{name: "redis url", url: "redis://cache:6380/2", wantAddr: "cache:6380", wantDB: 2},
		{name: "bad scheme", url: "http://cache:6380", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRedisClient(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = client.Close() }()
			assert.Equal(t, tt.wantAddr, client.Options().Addr)
			assert.Equal(t, tt.wantDB, client.Options().DB)
		})
	}
}

func TestRedisSessionStore_RoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	ctx := context.Background()
	id := uuid.New()

	ps := state.NewPlayerState("Aria", state.ClassMage)
	ps.AddItem("spellbook")
	ps.MoveTo("village")
	before := ps.UpdatedAt

	require.NoError(t, store.SaveSession(ctx, id, ps))
	assert.False(t, ps.UpdatedAt.Before(before))
	assert.Equal(t, time.Hour, mr.TTL("session:"+id.String()))

	loaded, err := store.LoadSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "Aria", loaded.Name)
	assert.Equal(t, state.ClassMage, loaded.Class)
	assert.Equal(t, []string{"spellbook"}, loaded.Inventory)
	assert.True(t, loaded.VisitedLocations.Has("village"))

	require.NoError(t, store.DeleteSession(ctx, id))
	loaded, err = store.LoadSession(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisSessionStore_LoadMissing(t *testing.T) {
	client, _ := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())

	ps, err := store.LoadSession(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, ps)
}

func TestRedisSessionStore_LoadGarbage(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	id := uuid.New()
	require.NoError(t, mr.Set("session:"+id.String(), "{not json"))

	_, err := store.LoadSession(context.Background(), id)
	assert.Error(t, err)
}

func TestRedisSessionStore_LoadInvalidState(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	id := uuid.New()
	require.NoError(t, mr.Set("session:"+id.String(), `{"player_name":"Bo","character_class":"Rogue","health":500}`))

	ps, err := store.LoadSession(context.Background(), id)
	assert.Nil(t, ps)
	assert.ErrorIs(t, err, state.ErrInvalidState)
}

func TestRedisSessionStore_KeepsUnknownFields(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	id := uuid.New()
	raw := `{"player_name":"Bo","character_class":"Rogue","health":40,"inventory":[],"location":"village","history":[],"visited_locations":["village"],"quest_progress":{},"story_context":"","reputation":{"guild":2}}`
	require.NoError(t, mr.Set("session:"+id.String(), raw))

	ps, err := store.LoadSession(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(context.Background(), id, ps))

	stored, err := mr.Get("session:" + id.String())
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(stored), &fields))
	assert.JSONEq(t, `{"guild":2}`, string(fields["reputation"]))
}

func TestRedisSessionStore_Ping(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	ctx := context.Background()

	assert.NoError(t, store.Ping(ctx))
	assert.NoError(t, store.WaitForConnection(ctx))

	mr.Close()
	assert.Error(t, store.Ping(ctx))
}

func TestRedisSessionStore_WaitForConnectionCancelled(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	store := NewRedisSessionStore(client, time.Hour, testLogger())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := store.WaitForConnection(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
