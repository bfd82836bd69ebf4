package service

import (
	"context"

	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
)

// HandleSync maintains the user-cache projection from the sync stream.
// Cache writes are idempotent, so redelivery is harmless; store errors
// propagate for redelivery.
func (s *Service) HandleSync(ctx context.Context, msg *bus.Message) error {
	ev, err := events.DecodeSync(msg.Value)
	if err != nil {
		s.logger.Error("dropping malformed sync event", "error", err)
		return nil
	}

	switch ev.EventType {
	case events.UserIDAssigned:
		return s.handleUserIDAssigned(ctx, ev)
	case events.UserCreateFailed:
		return s.handleUserCreateFailed(ctx, ev)
	case events.UserDeleted:
		return s.handleUserDeleted(ctx, ev)
	case events.DeviceCreated, events.DeviceAssigned, events.DeviceUnassigned, events.DeviceDeleted:
		// Own echoes.
		return nil
	default:
		s.logger.Debug("ignoring sync event", "event_type", ev.EventType)
		return nil
	}
}

// handleUserIDAssigned records the provisioned user as assignable.
func (s *Service) handleUserIDAssigned(ctx context.Context, ev events.Sync) error {
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("USER_ID_ASSIGNED without valid userId", "error", err)
		return nil
	}
	if err := s.users.Put(ctx, userID); err != nil {
		return err
	}
	s.metrics.cacheEntriesAdded.Inc()
	s.logger.Info("user cache entry added", "user_id", userID)
	return nil
}

// handleUserCreateFailed compensates: if the failed provisioning got far
// enough to name a user id, its cache entry is dropped.
func (s *Service) handleUserCreateFailed(ctx context.Context, ev events.Sync) error {
	if ev.UserID == "" {
		// Failure before any user id existed; the projection never saw it.
		return nil
	}
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("USER_CREATE_FAILED with invalid userId", "error", err)
		return nil
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.metrics.cacheEntriesGone.Inc()
	s.logger.Info("user cache entry rolled back", "user_id", userID)
	return nil
}

// handleUserDeleted removes the cache entry and every assignment the
// deleted user held.
func (s *Service) handleUserDeleted(ctx context.Context, ev events.Sync) error {
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("USER_DELETED without valid userId", "error", err)
		return nil
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.assignments.DeleteByUserID(ctx, userID); err != nil {
		return err
	}
	s.metrics.cacheEntriesGone.Inc()
	s.logger.Info("user removed from registry projections", "user_id", userID)
	return nil
}
