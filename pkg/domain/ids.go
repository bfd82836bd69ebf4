package domain

import (
	"github.com/google/uuid"

	dErrors "wattgrid/pkg/domain-errors"
)

// Typed UUID wrappers for cross-domain identifiers. Correlation between
// domains happens only through these ids carried inside events, so the
// compiler must not allow a CredentialID where a UserID is expected.
type (
	// UserID identifies a user profile. It is assigned by the users domain
	// and echoed back to identity and devices through sync events.
	UserID uuid.UUID

	// CredentialID identifies a credential row in the identity domain. It is
	// the correlation id of the provisioning saga.
	CredentialID uuid.UUID

	// DeviceID identifies a device in the device registry and keys all
	// telemetry state derived from that device.
	DeviceID uuid.UUID

	// AssignmentID identifies a device-user assignment row.
	AssignmentID uuid.UUID

	// MeasurementID identifies a stored sensor measurement.
	MeasurementID uuid.UUID
)

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id CredentialID) String() string  { return uuid.UUID(id).String() }
func (id DeviceID) String() string      { return uuid.UUID(id).String() }
func (id AssignmentID) String() string  { return uuid.UUID(id).String() }
func (id MeasurementID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id DeviceID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id AssignmentID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MeasurementID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewCredentialID returns a fresh random CredentialID.
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }

// NewDeviceID returns a fresh random DeviceID.
func NewDeviceID() DeviceID { return DeviceID(uuid.New()) }

// NewAssignmentID returns a fresh random AssignmentID.
func NewAssignmentID() AssignmentID { return AssignmentID(uuid.New()) }

// NewMeasurementID returns a fresh random MeasurementID.
func NewMeasurementID() MeasurementID { return MeasurementID(uuid.New()) }

// parseUUID enforces the shared invariant: ids must be valid, non-empty,
// non-nil UUIDs. Rejection happens at trust boundaries so handlers never
// carry malformed ids into services.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return parsed, nil
}

// ParseUserID parses and validates a UserID from its string form.
func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseCredentialID parses and validates a CredentialID from its string form.
func ParseCredentialID(raw string) (CredentialID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return CredentialID{}, err
	}
	return CredentialID(parsed), nil
}

// ParseDeviceID parses and validates a DeviceID from its string form.
func ParseDeviceID(raw string) (DeviceID, error) {
	parsed, err := parseUUID(raw)
	if err != nil {
		return DeviceID{}, err
	}
	return DeviceID(parsed), nil
}
