package usercache

import (
	"context"
	"fmt"

	platformredis "wattgrid/internal/platform/redis"
	"wattgrid/pkg/domain"
)

const keyPrefix = "wattgrid:usercache:"

// RedisStore keeps the projection in Redis so it survives restarts.
type RedisStore struct {
	client *platformredis.Client
}

// NewRedis creates a Redis-backed user cache.
func NewRedis(client *platformredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(userID domain.UserID) string {
	return keyPrefix + userID.String()
}

func (s *RedisStore) Put(ctx context.Context, userID domain.UserID) error {
	if err := s.client.Set(ctx, key(userID), "1", 0).Err(); err != nil {
		return fmt.Errorf("put user cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) Exists(ctx context.Context, userID domain.UserID) (bool, error) {
	n, err := s.client.Client.Exists(ctx, key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("check user cache entry: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID domain.UserID) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return fmt.Errorf("delete user cache entry: %w", err)
	}
	return nil
}
