package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "worktime:account:"

// RedisClient is the subset of *redis.Client the gateway needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis stores one JSON document per user.
type Redis struct {
	client  RedisClient
	timeout time.Duration
}

func NewRedis(client RedisClient, timeout time.Duration) *Redis {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Redis{client: client, timeout: timeout}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (r *Redis) Load(ctx context.Context, id domain.Identity) (domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.Get(ctx, redisKey(id.UserID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, fmt.Errorf("redis account %s: %w", id.UserID, ErrNotFound)
		}
		return domain.Snapshot{}, fmt.Errorf("redis get: %w: %v", ErrUnavailable, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decoding redis document: %w", err)
	}
	return doc.Snapshot(), nil
}

func (r *Redis) Save(ctx context.Context, id domain.Identity, snap domain.Snapshot) error {
	payload, err := json.Marshal(NewDocument(snap))
	if err != nil {
		return fmt.Errorf("encoding redis document: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.client.Set(ctx, redisKey(id.UserID), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w: %v", ErrUnavailable, err)
	}
	return nil
}
