package service

import (
	"context"
	"errors"
	"time"

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/users/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// HandleSync processes the registry's view of the sync stream. The registry
// only acts on USER_CREATED; everything else on the topic is either its own
// echo or another domain's traffic.
func (s *Service) HandleSync(ctx context.Context, msg *bus.Message) error {
	ev, err := events.DecodeSync(msg.Value)
	if err != nil {
		s.logger.Error("dropping malformed sync event", "error", err)
		return nil
	}

	switch ev.EventType {
	case events.UserCreated:
		return s.handleUserCreated(ctx, ev)
	case events.UserIDAssigned, events.UserCreateFailed, events.UserDeleted:
		// Own echoes, or compensation the registry already performed.
		return nil
	default:
		s.logger.Debug("ignoring sync event", "event_type", ev.EventType)
		return nil
	}
}

// handleUserCreated is the registry's saga step: create the profile and
// reply USER_ID_ASSIGNED, or reply USER_CREATE_FAILED when the username is
// already taken. Redelivery is recognized by the credentials id recorded on
// the profile, so the success reply is simply re-published.
func (s *Service) handleUserCreated(ctx context.Context, ev events.Sync) error {
	credID, err := domain.ParseCredentialID(ev.CredentialsID)
	if err != nil {
		s.logger.Error("USER_CREATED without valid credentialsId", "error", err)
		return nil
	}

	if existing, err := s.profiles.FindByCredentialsID(ctx, credID); err == nil {
		// Redelivered event, or the first delivery's reply was lost.
		return s.replyAssigned(ctx, credID, existing.ID, existing.Username)
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}

	p := &models.UserProfile{
		ID:            domain.NewUserID(),
		CredentialsID: credID,
		Username:      ev.Username,
		Email:         ev.Email,
		FullName:      ev.FullName,
		Role:          ev.Role,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.profiles.CreateIfUsernameAvailable(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return s.replyFailed(ctx, credID, "username already taken")
		}
		return err
	}

	s.metrics.profilesCreated.Inc()
	s.logger.Info("profile created", "user_id", p.ID, "username", p.Username, "credentials_id", credID)
	return s.replyAssigned(ctx, credID, p.ID, p.Username)
}

func (s *Service) replyAssigned(ctx context.Context, credID domain.CredentialID, userID domain.UserID, username string) error {
	payload, err := events.NewUserIDAssigned(credID, userID, username).Encode()
	if err == nil {
		err = s.publisher.Publish(ctx, bus.TopicSync, []byte(credID.String()), payload)
	}
	if err != nil {
		// Redelivery will find the profile by credentials id and retry the
		// reply without creating a duplicate.
		return err
	}
	s.logger.Info("published USER_ID_ASSIGNED", "credentials_id", credID, "user_id", userID)
	return nil
}

func (s *Service) replyFailed(ctx context.Context, credID domain.CredentialID, reason string) error {
	payload, err := events.NewUserCreateFailed(credID, domain.UserID{}, reason).Encode()
	if err == nil {
		err = s.publisher.Publish(ctx, bus.TopicSync, []byte(credID.String()), payload)
	}
	if err != nil {
		return err
	}
	s.metrics.profilesRejected.Inc()
	s.logger.Info("published USER_CREATE_FAILED", "credentials_id", credID, "reason", reason)
	return nil
}
