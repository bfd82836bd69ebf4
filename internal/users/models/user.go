// Package models holds the user registry aggregates.
package models

import (
	"time"

	"wattgrid/pkg/domain"
)

// UserProfile is the registry's record of a provisioned user. CredentialsID
// correlates the profile with the credential that started the provisioning
// saga, which makes event redelivery detectable.
type UserProfile struct {
	ID            domain.UserID
	CredentialsID domain.CredentialID
	Username      string
	Email         string
	FullName      string
	Role          string
	CreatedAt     time.Time
}
