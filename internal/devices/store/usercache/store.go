// Package usercache persists the projection of known user ids maintained
// from the sync stream.
package usercache

import (
	"context"

	"wattgrid/pkg/domain"
)

// Store is the user-cache contract. All operations are idempotent: the
// projection is rebuilt from redelivered events, so Put on an existing
// entry and Delete on a missing one both succeed.
type Store interface {
	Put(ctx context.Context, userID domain.UserID) error
	Exists(ctx context.Context, userID domain.UserID) (bool, error)
	Delete(ctx context.Context, userID domain.UserID) error
}
