// Package hourly persists hourly consumption rollups.
package hourly

import (
	"context"
	"time"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
)

// Store is the rollup persistence contract. Upsert keeps at most one row
// per (deviceId, hour): recomputed totals replace earlier ones, which makes
// window recomputation idempotent.
type Store interface {
	Upsert(ctx context.Context, row *models.HourlyConsumption) error

	// ListForDay returns the rows whose hour falls on the given UTC day,
	// ordered by hour.
	ListForDay(ctx context.Context, deviceID domain.DeviceID, day time.Time) ([]*models.HourlyConsumption, error)

	DeleteByDevice(ctx context.Context, deviceID domain.DeviceID) error
}
