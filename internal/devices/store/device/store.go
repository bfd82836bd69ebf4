// Package device persists Device rows.
package device

import (
	"context"

	"wattgrid/internal/devices/models"
	"wattgrid/pkg/domain"
)

// Store is the device persistence contract. Implementations return
// sentinel.ErrNotFound for missing rows.
type Store interface {
	Create(ctx context.Context, d *models.Device) error
	FindByID(ctx context.Context, id domain.DeviceID) (*models.Device, error)
	List(ctx context.Context) ([]*models.Device, error)
	Update(ctx context.Context, d *models.Device) error
	Delete(ctx context.Context, id domain.DeviceID) error
}
