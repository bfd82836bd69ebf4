package service

import (
	"context"

	"wattgrid/internal/monitoring/models"
	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
)

// HandleSync maintains the replica's device-cache projection. Every replica
// consumes the full sync stream with its own group, so each keeps an
// independent, eventually-consistent copy.
func (s *Service) HandleSync(ctx context.Context, msg *bus.Message) error {
	ev, err := events.DecodeSync(msg.Value)
	if err != nil {
		s.logger.Error("dropping malformed sync event", "error", err)
		return nil
	}

	switch ev.EventType {
	case events.DeviceCreated:
		return s.handleDeviceCreated(ctx, ev)
	case events.DeviceAssigned:
		return s.handleDeviceAssigned(ctx, ev)
	case events.DeviceUnassigned:
		return s.handleDeviceUnassigned(ctx, ev)
	case events.DeviceDeleted:
		return s.handleDeviceDeleted(ctx, ev)
	default:
		// User lifecycle traffic is not this domain's concern.
		return nil
	}
}

// handleDeviceCreated inserts or refreshes the cache entry. Device updates
// ride the same event kind, so an existing entry keeps its assignment and
// only name and threshold change.
func (s *Service) handleDeviceCreated(ctx context.Context, ev events.Sync) error {
	deviceID, err := domain.ParseDeviceID(ev.DeviceID)
	if err != nil {
		s.logger.Error("DEVICE_CREATED without valid deviceId", "error", err)
		return nil
	}
	entry := &models.DeviceCacheEntry{
		DeviceID:       deviceID,
		Name:           ev.DeviceName,
		MaxConsumption: ev.MaxConsumption,
	}
	if err := s.cache.Put(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("device cache entry upserted",
		"device_id", deviceID, "name", ev.DeviceName, "max_consumption", ev.MaxConsumption)
	return nil
}

func (s *Service) handleDeviceAssigned(ctx context.Context, ev events.Sync) error {
	deviceID, err := domain.ParseDeviceID(ev.DeviceID)
	if err != nil {
		s.logger.Error("DEVICE_ASSIGNED without valid deviceId", "error", err)
		return nil
	}
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("DEVICE_ASSIGNED without valid userId", "device_id", deviceID, "error", err)
		return nil
	}
	if err := s.cache.SetUser(ctx, deviceID, &userID); err != nil {
		return err
	}
	s.logger.Info("device cache assignment set", "device_id", deviceID, "user_id", userID)
	return nil
}

func (s *Service) handleDeviceUnassigned(ctx context.Context, ev events.Sync) error {
	deviceID, err := domain.ParseDeviceID(ev.DeviceID)
	if err != nil {
		s.logger.Error("DEVICE_UNASSIGNED without valid deviceId", "error", err)
		return nil
	}
	if err := s.cache.SetUser(ctx, deviceID, nil); err != nil {
		return err
	}
	s.logger.Info("device cache assignment cleared", "device_id", deviceID)
	return nil
}

// handleDeviceDeleted removes the cache entry and cascades deletion of the
// device's telemetry state. The per-device lock keeps the cascade from
// interleaving with an in-flight measurement.
func (s *Service) handleDeviceDeleted(ctx context.Context, ev events.Sync) error {
	deviceID, err := domain.ParseDeviceID(ev.DeviceID)
	if err != nil {
		s.logger.Error("DEVICE_DELETED without valid deviceId", "error", err)
		return nil
	}

	unlock := s.lockDevice(deviceID)
	defer unlock()

	if err := s.cache.Delete(ctx, deviceID); err != nil {
		return err
	}
	if err := s.measurements.DeleteByDevice(ctx, deviceID); err != nil {
		return err
	}
	if err := s.hourly.DeleteByDevice(ctx, deviceID); err != nil {
		return err
	}
	s.logger.Info("device telemetry state deleted", "device_id", deviceID)
	return nil
}
