// Package events defines the wire contract for all cross-domain
// propagation. Every domain consumes the shared sync stream and filters for
// the kinds it cares about; unknown kinds and absent optional fields must
// be tolerated, and a domain must ignore echoes of its own publications.
package events

import (
	"encoding/json"
	"fmt"

	"wattgrid/pkg/domain"
)

// Sync event kinds. The set is open-ended on the wire: consumers switch on
// the kinds they understand and drop the rest.
const (
	UserCreated      = "USER_CREATED"
	UserIDAssigned   = "USER_ID_ASSIGNED"
	UserCreateFailed = "USER_CREATE_FAILED"
	UserDeleted      = "USER_DELETED"
	DeviceCreated    = "DEVICE_CREATED"
	DeviceAssigned   = "DEVICE_ASSIGNED"
	DeviceUnassigned = "DEVICE_UNASSIGNED"
	DeviceDeleted    = "DEVICE_DELETED"
)

// Sync is the tagged union carried on the sync stream. Only the fields
// relevant to EventType are set; everything else stays at its zero value
// and is omitted from the wire form.
type Sync struct {
	EventType      string  `json:"eventType"`
	UserID         string  `json:"userId,omitempty"`
	CredentialsID  string  `json:"credentialsId,omitempty"`
	DeviceID       string  `json:"deviceId,omitempty"`
	Username       string  `json:"username,omitempty"`
	PasswordHash   string  `json:"password,omitempty"`
	Email          string  `json:"email,omitempty"`
	FullName       string  `json:"fullName,omitempty"`
	Role           string  `json:"role,omitempty"`
	DeviceName     string  `json:"deviceName,omitempty"`
	MaxConsumption float64 `json:"maxConsumption,omitempty"`
	ErrorMessage   string  `json:"errorMessage,omitempty"`
}

// NewUserCreated announces a PENDING credential awaiting a profile. The
// password travels as a bcrypt hash; plaintext never crosses the broker.
func NewUserCreated(credentialsID domain.CredentialID, username, passwordHash, email, fullName, role string) Sync {
	return Sync{
		EventType:     UserCreated,
		CredentialsID: credentialsID.String(),
		Username:      username,
		PasswordHash:  passwordHash,
		Email:         email,
		FullName:      fullName,
		Role:          role,
	}
}

// NewUserIDAssigned completes the provisioning saga for a credential.
func NewUserIDAssigned(credentialsID domain.CredentialID, userID domain.UserID, username string) Sync {
	return Sync{
		EventType:     UserIDAssigned,
		CredentialsID: credentialsID.String(),
		UserID:        userID.String(),
		Username:      username,
	}
}

// NewUserCreateFailed signals compensation. The same event serves two
// rollbacks: identity deletes the PENDING credential by credentialsID, and
// the devices domain drops its user-cache entry by userID when one is set.
func NewUserCreateFailed(credentialsID domain.CredentialID, userID domain.UserID, errorMessage string) Sync {
	ev := Sync{
		EventType:    UserCreateFailed,
		ErrorMessage: errorMessage,
	}
	if !credentialsID.IsNil() {
		ev.CredentialsID = credentialsID.String()
	}
	if !userID.IsNil() {
		ev.UserID = userID.String()
	}
	return ev
}

// NewUserDeleted starts best-effort downstream cleanup for a deleted user.
func NewUserDeleted(userID domain.UserID) Sync {
	return Sync{EventType: UserDeleted, UserID: userID.String()}
}

// NewDeviceCreated announces a device (or refreshed device metadata) to the
// telemetry caches.
func NewDeviceCreated(deviceID domain.DeviceID, deviceName string, maxConsumption float64) Sync {
	return Sync{
		EventType:      DeviceCreated,
		DeviceID:       deviceID.String(),
		DeviceName:     deviceName,
		MaxConsumption: maxConsumption,
	}
}

// NewDeviceAssigned records the current (single) owner of a device.
func NewDeviceAssigned(deviceID domain.DeviceID, userID domain.UserID) Sync {
	return Sync{EventType: DeviceAssigned, DeviceID: deviceID.String(), UserID: userID.String()}
}

// NewDeviceUnassigned clears the owner of a device.
func NewDeviceUnassigned(deviceID domain.DeviceID) Sync {
	return Sync{EventType: DeviceUnassigned, DeviceID: deviceID.String()}
}

// NewDeviceDeleted cascades removal of a device and its telemetry state.
func NewDeviceDeleted(deviceID domain.DeviceID) Sync {
	return Sync{EventType: DeviceDeleted, DeviceID: deviceID.String()}
}

// Encode serializes the event for publication.
func (s Sync) Encode() ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal sync event: %w", err)
	}
	return payload, nil
}

// DecodeSync parses a sync event, tolerating unknown fields.
func DecodeSync(payload []byte) (Sync, error) {
	var ev Sync
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Sync{}, fmt.Errorf("unmarshal sync event: %w", err)
	}
	return ev, nil
}
