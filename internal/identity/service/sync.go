package service

import (
	"context"
	"errors"

	"wattgrid/internal/platform/bus"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// HandleSync processes the identity domain's view of the sync stream.
// Malformed payloads and stale references are acknowledged after logging:
// redelivering them can never succeed. Store failures propagate so the
// broker redelivers; every branch is idempotent under redelivery.
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
	case events.UserCreated:
		// Echo of our own publication.
		return nil
	default:
		s.logger.Debug("ignoring sync event", "event_type", ev.EventType)
		return nil
	}
}

// handleUserIDAssigned completes the saga: the PENDING credential becomes
// ACTIVE. Redelivery re-assigns the same user id, which the store treats as
// a no-op.
func (s *Service) handleUserIDAssigned(ctx context.Context, ev events.Sync) error {
	credID, err := domain.ParseCredentialID(ev.CredentialsID)
	if err != nil {
		s.logger.Error("USER_ID_ASSIGNED without valid credentialsId", "error", err)
		return nil
	}
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("USER_ID_ASSIGNED without valid userId", "credentials_id", credID, "error", err)
		return nil
	}

	if err := s.creds.AssignUserID(ctx, credID, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.logger.Warn("USER_ID_ASSIGNED for unknown credential", "credentials_id", credID)
			return nil
		}
		return err
	}
	s.metrics.registrationsActivated.Inc()
	s.logger.Info("credential activated", "credentials_id", credID, "user_id", userID)
	return nil
}

// handleUserCreateFailed compensates: the PENDING credential is deleted so
// the username becomes available again.
func (s *Service) handleUserCreateFailed(ctx context.Context, ev events.Sync) error {
	if ev.CredentialsID == "" {
		// Without a credentials id there is nothing for identity to
		// compensate.
		return nil
	}
	credID, err := domain.ParseCredentialID(ev.CredentialsID)
	if err != nil {
		s.logger.Error("USER_CREATE_FAILED with invalid credentialsId", "error", err)
		return nil
	}

	if err := s.creds.Delete(ctx, credID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// Already compensated on a previous delivery.
			return nil
		}
		return err
	}
	s.metrics.registrationsFailed.Inc()
	s.logger.Info("credential rolled back", "credentials_id", credID, "reason", ev.ErrorMessage)
	return nil
}

// handleUserDeleted removes the credential of a deleted user.
func (s *Service) handleUserDeleted(ctx context.Context, ev events.Sync) error {
	userID, err := domain.ParseUserID(ev.UserID)
	if err != nil {
		s.logger.Error("USER_DELETED without valid userId", "error", err)
		return nil
	}

	if err := s.creds.DeleteByUserID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return err
	}
	s.metrics.credentialsDeleted.Inc()
	s.logger.Info("credential deleted for user", "user_id", userID)
	return nil
}
