//go:build integration

package devicecache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattgrid/internal/monitoring/models"
	"wattgrid/internal/monitoring/store/devicecache"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
	"wattgrid/pkg/testutil/containers"
)

func TestRedisDeviceCache(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	store := devicecache.NewRedis(rc.Client, 1)
	ctx := context.Background()

	t.Run("put then get round-trips the entry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		deviceID := domain.NewDeviceID()
		require.NoError(t, store.Put(ctx, &models.DeviceCacheEntry{
			DeviceID: deviceID, Name: "meter", MaxConsumption: 10,
		}))

		entry, err := store.Get(ctx, deviceID)
		require.NoError(t, err)
		assert.Equal(t, "meter", entry.Name)
		assert.InDelta(t, 10.0, entry.MaxConsumption, 1e-9)
		assert.Nil(t, entry.UserID)
	})

	t.Run("refresh keeps the stored assignment", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		deviceID := domain.NewDeviceID()
		userID := domain.NewUserID()
		require.NoError(t, store.Put(ctx, &models.DeviceCacheEntry{
			DeviceID: deviceID, Name: "meter", MaxConsumption: 10,
		}))
		require.NoError(t, store.SetUser(ctx, deviceID, &userID))

		require.NoError(t, store.Put(ctx, &models.DeviceCacheEntry{
			DeviceID: deviceID, Name: "meter-2", MaxConsumption: 20,
		}))

		entry, err := store.Get(ctx, deviceID)
		require.NoError(t, err)
		assert.Equal(t, "meter-2", entry.Name)
		require.NotNil(t, entry.UserID)
		assert.Equal(t, userID, *entry.UserID)
	})

	t.Run("set user on unknown device is a no-op", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		deviceID := domain.NewDeviceID()
		userID := domain.NewUserID()
		require.NoError(t, store.SetUser(ctx, deviceID, &userID))
		_, err := store.Get(ctx, deviceID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("replicas do not see each other's entries", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		other := devicecache.NewRedis(rc.Client, 2)
		deviceID := domain.NewDeviceID()
		require.NoError(t, store.Put(ctx, &models.DeviceCacheEntry{
			DeviceID: deviceID, Name: "meter", MaxConsumption: 10,
		}))
		_, err := other.Get(ctx, deviceID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		deviceID := domain.NewDeviceID()
		require.NoError(t, store.Put(ctx, &models.DeviceCacheEntry{
			DeviceID: deviceID, Name: "meter", MaxConsumption: 10,
		}))
		require.NoError(t, store.Delete(ctx, deviceID))
		require.NoError(t, store.Delete(ctx, deviceID))
		_, err := store.Get(ctx, deviceID)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
