package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout is ISO-8601 at second precision, matching what the sensor
// fleet emits. Timestamps are interpreted as UTC.
const timestampLayout = "2006-01-02T15:04:05"

// Measurement is the wire shape on the raw and partitioned ingest streams.
// The router forwards it unchanged.
type Measurement struct {
	DeviceID         string
	Timestamp        time.Time
	MeasurementValue float64
}

type measurementWire struct {
	DeviceID         string  `json:"deviceId"`
	Timestamp        string  `json:"timestamp"`
	MeasurementValue float64 `json:"measurementValue"`
}

// MarshalJSON renders the timestamp at second precision.
func (m Measurement) MarshalJSON() ([]byte, error) {
	return json.Marshal(measurementWire{
		DeviceID:         m.DeviceID,
		Timestamp:        m.Timestamp.UTC().Format(timestampLayout),
		MeasurementValue: m.MeasurementValue,
	})
}

// UnmarshalJSON accepts second-precision ISO-8601, falling back to RFC 3339
// for producers that include an offset.
func (m *Measurement) UnmarshalJSON(payload []byte) error {
	var wire measurementWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return fmt.Errorf("unmarshal measurement: %w", err)
	}
	ts, err := time.Parse(timestampLayout, wire.Timestamp)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, wire.Timestamp)
		if err != nil {
			return fmt.Errorf("parse measurement timestamp %q: %w", wire.Timestamp, err)
		}
	}
	m.DeviceID = wire.DeviceID
	m.Timestamp = ts.UTC()
	m.MeasurementValue = wire.MeasurementValue
	return nil
}

// Encode serializes the measurement for publication.
func (m Measurement) Encode() ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal measurement: %w", err)
	}
	return payload, nil
}

// DecodeMeasurement parses a measurement from the wire.
func DecodeMeasurement(payload []byte) (Measurement, error) {
	var m Measurement
	if err := json.Unmarshal(payload, &m); err != nil {
		return Measurement{}, err
	}
	return m, nil
}
