// Package models holds the device registry aggregates and the user-cache
// projection.
package models

import (
	"time"

	"wattgrid/pkg/domain"
)

// Device is the authoritative registry record for a metered device.
// MaxConsumption is the hourly kWh threshold above which the monitoring
// domain raises an alert; it must be positive.
type Device struct {
	ID             domain.DeviceID
	Name           string
	Description    string
	MaxConsumption float64
	CreatedAt      time.Time
}

// Assignment links a device to its current owner. A device has at most one
// assignment at a time; assigning replaces any prior row.
type Assignment struct {
	ID         domain.AssignmentID
	DeviceID   domain.DeviceID
	UserID     domain.UserID
	AssignedAt time.Time
}
