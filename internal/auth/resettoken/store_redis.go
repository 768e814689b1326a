package resettoken

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"gatepass/internal/platform/redis"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
)

const resetTokenKeyPrefix = "reset:token:"

// RedisStore is the distributed implementation: the TTL lives in Redis and
// GETDEL makes consumption atomic across instances.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, token string, registrantID id.RegistrantID, ttl time.Duration) error {
	key := resetTokenKeyPrefix + token
	return s.client.Set(ctx, key, registrantID.String(), ttl).Err()
}

func (s *RedisStore) Consume(ctx context.Context, token string) (id.RegistrantID, error) {
	key := resetTokenKeyPrefix + token
	raw, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return id.RegistrantID{}, sentinel.ErrExpired
	}
	if err != nil {
		return id.RegistrantID{}, err
	}
	registrantID, err := id.ParseRegistrantID(raw)
	if err != nil {
		return id.RegistrantID{}, sentinel.ErrExpired
	}
	return registrantID, nil
}
