// Package models holds the telemetry aggregates and the device-cache
// projection.
package models

import (
	"time"

	"github.com/google/uuid"

	"wattgrid/pkg/domain"
)

// SensorMeasurement is one stored sample. Rows are append-only and unique
// per (DeviceID, Timestamp); redelivery must not create duplicates.
type SensorMeasurement struct {
	ID        domain.MeasurementID
	DeviceID  domain.DeviceID
	Timestamp time.Time
	Value     float64
}

// HourlyConsumption is the rollup of one device's samples for one hour.
// At most one row exists per (DeviceID, Hour); Hour is truncated to the
// hour in UTC.
type HourlyConsumption struct {
	ID        uuid.UUID
	DeviceID  domain.DeviceID
	Hour      time.Time
	Total     float64
	CreatedAt time.Time
}

// DeviceCacheEntry is the replica-local projection of a device and its
// current assignment, maintained from the sync stream. UserID is nil while
// the device is unassigned.
type DeviceCacheEntry struct {
	DeviceID       domain.DeviceID
	Name           string
	MaxConsumption float64
	UserID         *domain.UserID
}
