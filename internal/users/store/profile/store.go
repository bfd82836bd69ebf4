// Package profile persists UserProfile rows.
package profile

import (
	"context"

	"wattgrid/internal/users/models"
	"wattgrid/pkg/domain"
)

// Store is the profile persistence contract. Implementations return
// sentinel.ErrNotFound for missing rows and sentinel.ErrConflict when a
// username is already taken; services translate those into domain errors.
type Store interface {
	// CreateIfUsernameAvailable inserts the profile atomically with the
	// username uniqueness check.
	CreateIfUsernameAvailable(ctx context.Context, profile *models.UserProfile) error

	FindByID(ctx context.Context, id domain.UserID) (*models.UserProfile, error)

	// FindByCredentialsID looks a profile up by the credential that
	// provisioned it. Used to recognize redelivered USER_CREATED events.
	FindByCredentialsID(ctx context.Context, credID domain.CredentialID) (*models.UserProfile, error)

	List(ctx context.Context) ([]*models.UserProfile, error)

	Update(ctx context.Context, profile *models.UserProfile) error

	Delete(ctx context.Context, id domain.UserID) error
}
