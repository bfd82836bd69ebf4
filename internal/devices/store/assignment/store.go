// Package assignment persists device-to-user assignments.
package assignment

import (
	"context"

	"wattgrid/internal/devices/models"
	"wattgrid/pkg/domain"
)

// Store is the assignment persistence contract. A device holds at most one
// assignment; Replace enforces last-writer-wins. Bulk deletes are
// idempotent and succeed when nothing matches.
type Store interface {
	// Replace removes any existing assignment for the device and inserts
	// the new one atomically.
	Replace(ctx context.Context, a *models.Assignment) error

	// FindByDeviceID returns the device's current assignment, or
	// sentinel.ErrNotFound when the device is unassigned.
	FindByDeviceID(ctx context.Context, deviceID domain.DeviceID) (*models.Assignment, error)

	ListByUserID(ctx context.Context, userID domain.UserID) ([]*models.Assignment, error)

	DeleteByDeviceID(ctx context.Context, deviceID domain.DeviceID) error

	DeleteByUserID(ctx context.Context, userID domain.UserID) error
}
