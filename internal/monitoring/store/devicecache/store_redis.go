package devicecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"wattgrid/internal/monitoring/models"
	platformredis "wattgrid/internal/platform/redis"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// RedisStore keeps the projection in Redis so replica restarts do not wait
// for a full sync-stream replay. Each replica uses its own key prefix
// because caches are replica-local.
type RedisStore struct {
	client *platformredis.Client
	prefix string
}

// NewRedis creates a Redis-backed device cache for one replica.
func NewRedis(client *platformredis.Client, replicaID int) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: fmt.Sprintf("wattgrid:devicecache:%d:", replicaID),
	}
}

type cacheWire struct {
	Name           string  `json:"name"`
	MaxConsumption float64 `json:"maxConsumption"`
	UserID         string  `json:"userId,omitempty"`
}

func (s *RedisStore) key(deviceID domain.DeviceID) string {
	return s.prefix + deviceID.String()
}

func (s *RedisStore) Put(ctx context.Context, entry *models.DeviceCacheEntry) error {
	existing, err := s.Get(ctx, entry.DeviceID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	wire := cacheWire{Name: entry.Name, MaxConsumption: entry.MaxConsumption}
	if existing != nil && existing.UserID != nil {
		wire.UserID = existing.UserID.String()
	}
	return s.write(ctx, entry.DeviceID, wire)
}

func (s *RedisStore) Get(ctx context.Context, deviceID domain.DeviceID) (*models.DeviceCacheEntry, error) {
	raw, err := s.client.Client.Get(ctx, s.key(deviceID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get device cache entry: %w", err)
	}
	var wire cacheWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("decode device cache entry: %w", err)
	}
	entry := &models.DeviceCacheEntry{
		DeviceID:       deviceID,
		Name:           wire.Name,
		MaxConsumption: wire.MaxConsumption,
	}
	if wire.UserID != "" {
		userID, err := domain.ParseUserID(wire.UserID)
		if err != nil {
			return nil, fmt.Errorf("decode device cache entry: %w", err)
		}
		entry.UserID = &userID
	}
	return entry, nil
}

func (s *RedisStore) SetUser(ctx context.Context, deviceID domain.DeviceID, userID *domain.UserID) error {
	existing, err := s.Get(ctx, deviceID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	wire := cacheWire{Name: existing.Name, MaxConsumption: existing.MaxConsumption}
	if userID != nil {
		wire.UserID = userID.String()
	}
	return s.write(ctx, deviceID, wire)
}

func (s *RedisStore) Delete(ctx context.Context, deviceID domain.DeviceID) error {
	if err := s.client.Del(ctx, s.key(deviceID)).Err(); err != nil {
		return fmt.Errorf("delete device cache entry: %w", err)
	}
	return nil
}

func (s *RedisStore) write(ctx context.Context, deviceID domain.DeviceID, wire cacheWire) error {
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode device cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(deviceID), payload, 0).Err(); err != nil {
		return fmt.Errorf("put device cache entry: %w", err)
	}
	return nil
}
