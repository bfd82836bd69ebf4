// Package service implements the user registry: the authoritative
// UserProfile store, the registry's side of the provisioning saga, and the
// deletion saga trigger.
package service

import (
	"context"
	"errors"
	"log/slog"

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/users/models"
	"wattgrid/internal/users/store/profile"
	"wattgrid/pkg/domain"
	dErrors "wattgrid/pkg/domain-errors"
	"wattgrid/pkg/events"
	"wattgrid/pkg/platform/sentinel"
)

// Service owns UserProfile rows.
type Service struct {
	profiles  profile.Store
	publisher bus.Publisher
	logger    *slog.Logger
	metrics   *Metrics
}

// New wires the user registry service.
func New(profiles profile.Store, publisher bus.Publisher, logger *slog.Logger) *Service {
	return &Service{
		profiles:  profiles,
		publisher: publisher,
		logger:    logger,
		metrics:   newMetrics(),
	}
}

// Get returns a single profile.
func (s *Service) Get(ctx context.Context, id domain.UserID) (*models.UserProfile, error) {
	p, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "user %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "find profile")
	}
	return p, nil
}

// List returns all profiles ordered by username.
func (s *Service) List(ctx context.Context) ([]*models.UserProfile, error) {
	out, err := s.profiles.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list profiles")
	}
	return out, nil
}

// UpdateRequest carries the mutable profile fields.
type UpdateRequest struct {
	Email    string
	FullName string
}

// Update changes a profile's contact fields. Username and role are fixed at
// provisioning time.
func (s *Service) Update(ctx context.Context, id domain.UserID, req UpdateRequest) (*models.UserProfile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Email = req.Email
	p.FullName = req.FullName
	if err := s.profiles.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "user %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "update profile")
	}
	return p, nil
}

// Delete removes a profile and starts the deletion saga. The local delete
// is authoritative; the USER_DELETED publication is best-effort and a
// failure leaves downstream copies to be cleaned up manually, never the
// profile restored.
func (s *Service) Delete(ctx context.Context, id domain.UserID) error {
	if err := s.profiles.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeNotFound, "user %s not found", id)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete profile")
	}
	s.metrics.profilesDeleted.Inc()
	s.logger.Info("profile deleted", "user_id", id)

	payload, err := events.NewUserDeleted(id).Encode()
	if err == nil {
		err = s.publisher.Publish(ctx, bus.TopicSync, []byte(id.String()), payload)
	}
	if err != nil {
		s.logger.Warn("publish USER_DELETED failed, downstream copies not notified",
			"user_id", id, "error", err)
	}
	return nil
}
