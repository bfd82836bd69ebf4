// Package service implements the device registry: authoritative device and
// assignment state, lifecycle event publication, and the user-cache
// projection maintained from the sync stream.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"wattgrid/internal/devices/models"
	"wattgrid/internal/devices/store/assignment"
	"wattgrid/internal/devices/store/device"
	"wattgrid/internal/devices/store/usercache"
	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// Service owns Device and Assignment rows plus the user-cache projection.
type Service struct {
	devices     device.Store
	assignments assignment.Store
	users       usercache.Store
	publisher   bus.Publisher
	logger      *slog.Logger
	metrics     *Metrics
}

// New wires the device registry service.
func New(devices device.Store, assignments assignment.Store, users usercache.Store, publisher bus.Publisher, logger *slog.Logger) *Service {
	return &Service{
		devices:     devices,
		assignments: assignments,
		users:       users,
		publisher:   publisher,
		logger:      logger,
		metrics:     newMetrics(),
	}
}

// CreateRequest carries the device registration payload.
type CreateRequest struct {
	Name           string
	Description    string
	MaxConsumption float64
}

func (r CreateRequest) validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "device name is required")
	}
	if r.MaxConsumption <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "maxConsumption must be positive")
	}
	return nil
}

// Create persists a device and announces it to the telemetry caches. Like
// registration in the identity domain, a failed publish rolls the local
// write back so no device exists that the caches will never hear about.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Device, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	d := &models.Device{
		ID:             domain.NewDeviceID(),
		Name:           req.Name,
		Description:    req.Description,
		MaxConsumption: req.MaxConsumption,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.devices.Create(ctx, d); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create device")
	}

	if err := s.publishSync(ctx, d.ID, events.NewDeviceCreated(d.ID, d.Name, d.MaxConsumption)); err != nil {
		if delErr := s.devices.Delete(ctx, d.ID); delErr != nil && !errors.Is(delErr, sentinel.ErrNotFound) {
			s.logger.Error("rollback of device failed after publish error", "device_id", d.ID, "error", delErr)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "publish DEVICE_CREATED")
	}

	s.metrics.devicesCreated.Inc()
	s.logger.Info("device created", "device_id", d.ID, "name", d.Name, "max_consumption", d.MaxConsumption)
	return d, nil
}

// Get returns a single device.
func (s *Service) Get(ctx context.Context, id domain.DeviceID) (*models.Device, error) {
	d, err := s.devices.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "device %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find device")
	}
	return d, nil
}

// List returns all devices ordered by name.
func (s *Service) List(ctx context.Context) ([]*models.Device, error) {
	out, err := s.devices.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list devices")
	}
	return out, nil
}

// UpdateRequest carries the mutable device fields.
type UpdateRequest struct {
	Name           string
	Description    string
	MaxConsumption float64
}

// Update changes device metadata and republishes DEVICE_CREATED so the
// telemetry caches pick up the new name and threshold.
func (s *Service) Update(ctx context.Context, id domain.DeviceID, req UpdateRequest) (*models.Device, error) {
	if err := (CreateRequest{Name: req.Name, MaxConsumption: req.MaxConsumption}).validate(); err != nil {
		return nil, err
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Name = req.Name
	d.Description = req.Description
	d.MaxConsumption = req.MaxConsumption
	if err := s.devices.Update(ctx, d); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "device %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update device")
	}

	if err := s.publishSync(ctx, d.ID, events.NewDeviceCreated(d.ID, d.Name, d.MaxConsumption)); err != nil {
		// The registry row is updated; caches catch up when the event can
		// be published again, so the request still succeeds.
		s.logger.Warn("publish DEVICE_CREATED after update failed", "device_id", d.ID, "error", err)
	}
	return d, nil
}

// Assign makes userID the device's owner, replacing any prior owner. The
// user must be present in the cache projection, meaning its provisioning
// saga completed.
func (s *Service) Assign(ctx context.Context, deviceID domain.DeviceID, userID domain.UserID) error {
	if _, err := s.Get(ctx, deviceID); err != nil {
		return err
	}
	known, err := s.users.Exists(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "check user cache")
	}
	if !known {
		return dErrors.Newf(dErrors.CodeNotFound, "user %s not found", userID)
	}

	a := &models.Assignment{
		ID:         domain.NewAssignmentID(),
		DeviceID:   deviceID,
		UserID:     userID,
		AssignedAt: time.Now().UTC(),
	}
	if err := s.assignments.Replace(ctx, a); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "replace assignment")
	}

	if err := s.publishSync(ctx, deviceID, events.NewDeviceAssigned(deviceID, userID)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "publish DEVICE_ASSIGNED")
	}
	s.metrics.assignments.Inc()
	s.logger.Info("device assigned", "device_id", deviceID, "user_id", userID)
	return nil
}

// Unassign clears the device's owner.
func (s *Service) Unassign(ctx context.Context, deviceID domain.DeviceID) error {
	if _, err := s.Get(ctx, deviceID); err != nil {
		return err
	}
	if err := s.assignments.DeleteByDeviceID(ctx, deviceID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete assignment")
	}

	if err := s.publishSync(ctx, deviceID, events.NewDeviceUnassigned(deviceID)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "publish DEVICE_UNASSIGNED")
	}
	s.metrics.unassignments.Inc()
	s.logger.Info("device unassigned", "device_id", deviceID)
	return nil
}

// Delete removes a device and its assignment and cascades removal of its
// telemetry state through DEVICE_DELETED.
func (s *Service) Delete(ctx context.Context, deviceID domain.DeviceID) error {
	if err := s.assignments.DeleteByDeviceID(ctx, deviceID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete assignment")
	}
	if err := s.devices.Delete(ctx, deviceID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "device %s not found", deviceID)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete device")
	}

	if err := s.publishSync(ctx, deviceID, events.NewDeviceDeleted(deviceID)); err != nil {
		// Authoritative delete already happened; cascade cleanup is
		// best-effort, like the user deletion saga.
		s.logger.Warn("publish DEVICE_DELETED failed, telemetry state not cascaded", "device_id", deviceID, "error", err)
	}
	s.metrics.devicesDeleted.Inc()
	s.logger.Info("device deleted", "device_id", deviceID)
	return nil
}

// ListByUser returns the devices currently assigned to a user.
func (s *Service) ListByUser(ctx context.Context, userID domain.UserID) ([]*models.Device, error) {
	assigned, err := s.assignments.ListByUserID(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list assignments")
	}
	out := make([]*models.Device, 0, len(assigned))
	for _, a := range assigned {
		d, err := s.devices.FindByID(ctx, a.DeviceID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				// Assignment outlived its device; skip the orphan.
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find device")
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Service) publishSync(ctx context.Context, deviceID domain.DeviceID, ev events.Sync) error {
	payload, err := ev.Encode()
	if err != nil {
		return err
	}
	return s.publisher.Publish(ctx, bus.TopicSync, []byte(deviceID.String()), payload)
}
