package models

import (
	"time"

	"wattgrid/pkg/domain"
)

// Role restricts what a credential may do once logged in.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleClient Role = "CLIENT"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleClient
}

// Credential is the identity domain's row for one account. It is created
// PENDING (UserID nil) when registration starts and becomes ACTIVE when the
// user registry assigns a user id. A credential that never receives a reply
// stays PENDING; login refuses it until the saga completes.
type Credential struct {
	ID           domain.CredentialID
	Username     string
	PasswordHash string
	Role         Role
	// UserID is nil until provisioning completes. It is the only link to
	// the user-registry domain.
	UserID    domain.UserID
	CreatedAt time.Time
}

// Active reports whether provisioning has completed for this credential.
func (c *Credential) Active() bool {
	return !c.UserID.IsNil()
}
