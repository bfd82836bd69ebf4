// Package credential stores identity credentials. Implementations return
// sentinel errors for infrastructure facts; the service translates them
// into coded domain errors.
package credential

import (
	"context"

	"wattgrid/internal/identity/models"
	"wattgrid/pkg/domain"
)

// Store is the credential persistence contract.
type Store interface {
	// CreateIfUsernameAvailable inserts the credential, returning
	// sentinel.ErrConflict when the username is already taken. The check
	// and insert are atomic so concurrent registrations cannot both win.
	CreateIfUsernameAvailable(ctx context.Context, cred *models.Credential) error

	FindByID(ctx context.Context, id domain.CredentialID) (*models.Credential, error)
	FindByUsername(ctx context.Context, username string) (*models.Credential, error)

	// AssignUserID transitions a PENDING credential to ACTIVE. Assigning
	// the same user id again is a no-op so event redelivery is safe.
	AssignUserID(ctx context.Context, id domain.CredentialID, userID domain.UserID) error

	// Delete removes a credential row. Used for saga compensation and for
	// rollback when the USER_CREATED publish fails.
	Delete(ctx context.Context, id domain.CredentialID) error

	// DeleteByUserID removes the credential of a deleted user. Returns
	// sentinel.ErrNotFound when no credential references the user, which
	// callers on the deletion path treat as already-done.
	DeleteByUserID(ctx context.Context, userID domain.UserID) error
}
