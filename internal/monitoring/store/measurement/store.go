// Package measurement persists raw sensor samples.
package measurement

import (
	"context"
	"time"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
)

// Store is the raw-sample persistence contract. Insert returns
// sentinel.ErrConflict for a duplicate (deviceId, timestamp) pair, which is
// how redelivered samples are detected.
type Store interface {
	Insert(ctx context.Context, m *models.SensorMeasurement) error

	Exists(ctx context.Context, deviceID domain.DeviceID, ts time.Time) (bool, error)

	// SumForWindow totals the samples with from <= timestamp <= to and
	// reports how many samples contributed. Both bounds are inclusive, so
	// the boundary sample that closes an hour counts toward that hour.
	SumForWindow(ctx context.Context, deviceID domain.DeviceID, from, to time.Time) (total float64, count int, err error)

	DeleteByDevice(ctx context.Context, deviceID domain.DeviceID) error
}
