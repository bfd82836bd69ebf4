// Package devicecache persists the replica-local projection of devices and
// their current assignments.
package devicecache

import (
	"context"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
)

// Store is the device-cache contract. Get returns sentinel.ErrNotFound for
// unknown devices; writes are idempotent because the projection is rebuilt
// from redelivered events.
type Store interface {
	// Put inserts or refreshes the entry's name and threshold, keeping the
	// stored assignment.
	Put(ctx context.Context, entry *models.DeviceCacheEntry) error

	Get(ctx context.Context, deviceID domain.DeviceID) (*models.DeviceCacheEntry, error)

	// SetUser records the assignment; nil clears it. Unknown devices are a
	// no-op: the DEVICE_CREATED event may not have arrived yet.
	SetUser(ctx context.Context, deviceID domain.DeviceID, userID *domain.UserID) error

	Delete(ctx context.Context, deviceID domain.DeviceID) error
}
