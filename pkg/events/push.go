package events

import (
	"encoding/json"
	"fmt"
)

// Push message types routed to the notification domain.
const (
	PushAlert       = "ALERT"
	PushMeasurement = "MEASUREMENT"
)

// Routing keys on the push stream. Alerts are addressed to a user;
// measurement updates fan out to everyone watching the device.
const (
	RouteAlert       = "alert"
	RouteMeasurement = "measurement"
)

// Push is the outbound wire shape for real-time consumers. Data is a loose
// map because the dashboard contract is owned by the front end; the
// monitoring domain only guarantees type and addressing fields.
type Push struct {
	Type     string         `json:"type"`
	UserID   string         `json:"userId,omitempty"`
	DeviceID string         `json:"deviceId,omitempty"`
	Data     map[string]any `json:"data"`
}

// NewAlertPush addresses an alert payload to a single user.
func NewAlertPush(userID, deviceID string, data map[string]any) Push {
	return Push{Type: PushAlert, UserID: userID, DeviceID: deviceID, Data: data}
}

// NewMeasurementPush broadcasts an aggregate update for a device.
func NewMeasurementPush(deviceID string, data map[string]any) Push {
	return Push{Type: PushMeasurement, DeviceID: deviceID, Data: data}
}

// Encode serializes the push message for publication.
func (p Push) Encode() ([]byte, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal push message: %w", err)
	}
	return payload, nil
}

// DecodePush parses a push message from the wire.
func DecodePush(payload []byte) (Push, error) {
	var p Push
	if err := json.Unmarshal(payload, &p); err != nil {
		return Push{}, fmt.Errorf("unmarshal push message: %w", err)
	}
	return p, nil
}
