package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "sonde:session:"

// RedisStore keeps sessions in Redis so multiple server instances can
// share them. Expiry is delegated to key TTLs.
type RedisStore struct {
	client *redis.Client
	secret string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, secret string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, secret: secret, ttl: ttl}
}

var _ Store = (*RedisStore)(nil)

func (s *RedisStore) Create(ctx context.Context, state State) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	token, id := newToken(s.secret)
	if err := s.client.Set(ctx, redisKeyPrefix+id, payload, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Lookup(ctx context.Context, token string) (State, bool, error) {
	id, ok := tokenID(s.secret, token)
	if !ok {
		return State{}, false, nil
	}

	payload, err := s.client.Get(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var state State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return State{}, false, fmt.Errorf("failed to decode session: %w", err)
	}
	return state, true, nil
}

func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	id, ok := tokenID(s.secret, token)
	if !ok {
		return nil
	}
	if err := s.client.Del(ctx, redisKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}
