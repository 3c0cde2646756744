package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

const DefaultKey = "impactctl:session:token"

// RedisStore keeps the token under one key whose TTL follows the token's exp,
// so an expired token disappears on its own.
type RedisStore struct {
	client *redis.Client
	key    string
	clock  util.Clock
}

func NewRedisStore(client *redis.Client, key string, clock util.Clock) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, clock: clock}
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) SaveToken(ctx context.Context, token string) error {
	d := ttl(token, s.clock.Now())
	if d <= 0 {
		slog.Warn("⚠️ Refusing to store an expired token")
		return s.ClearToken(ctx)
	}
	if err := s.client.Set(ctx, s.key, token, d).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearToken(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del token: %w", err)
	}
	return nil
}

var _ ports.TokenStore = (*RedisStore)(nil)
