package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRedisClient struct {
	store   map[string][]byte
	lastTTL time.Duration
	getErr  error
	setErr  error
}

func newMockRedis() *mockRedisClient {
	return &mockRedisClient{store: make(map[string][]byte)}
}

func (m *mockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if m.getErr != nil {
		cmd.SetErr(m.getErr)
		return cmd
	}
	v, ok := m.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(string(v))
	return cmd
}

func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	m.lastTTL = expiration
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	switch v := value.(type) {
	case []byte:
		m.store[key] = v
	case string:
		m.store[key] = []byte(v)
	}
	cmd.SetVal("OK")
	return cmd
}

func TestRedis_SaveAndLoad(t *testing.T) {
	client := newMockRedis()
	g := NewRedis(client, time.Second)
	ctx := context.Background()

	_, err := g.Load(ctx, user)
	require.ErrorIs(t, err, ErrNotFound)

	want := sampleSnapshot()
	require.NoError(t, g.Save(ctx, user, want))
	assert.Contains(t, client.store, "worktime:account:u1")
	assert.Zero(t, client.lastTTL, "account documents never expire")

	got, err := g.Load(ctx, user)
	require.NoError(t, err)
	assertSameSnapshot(t, want, got)
}

func TestRedis_ErrorsAreTransient(t *testing.T) {
	client := newMockRedis()
	client.getErr = errors.New("connection refused")
	client.setErr = errors.New("connection refused")
	g := NewRedis(client, 0)

	_, err := g.Load(context.Background(), user)
	assert.True(t, IsTransient(err))

	err = g.Save(context.Background(), user, sampleSnapshot())
	assert.True(t, IsTransient(err))
}

func TestRedis_CorruptDocument(t *testing.T) {
	client := newMockRedis()
	client.store["worktime:account:u1"] = []byte("{not json")

	_, err := NewRedis(client, 0).Load(context.Background(), user)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
}
