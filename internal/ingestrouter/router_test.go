package ingestrouter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wattgrid/internal/platform/bus"
	"wattgrid/internal/platform/bus/memory"
	"wattgrid/internal/platform/logger"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/events"
)

func TestPartitionIsDeterministic(t *testing.T) {
	const replicas = 3
	for i := 0; i < 100; i++ {
		deviceID := domain.NewDeviceID().String()
		first := Partition(deviceID, replicas)
		assert.GreaterOrEqual(t, first, int32(0))
		assert.Less(t, first, int32(replicas))
		for j := 0; j < 5; j++ {
			assert.Equal(t, first, Partition(deviceID, replicas))
		}
	}
}

func TestPartitionCoversFullRange(t *testing.T) {
	const replicas = 3
	seen := make(map[int32]bool)
	for i := 0; i < 1000 && len(seen) < replicas; i++ {
		seen[Partition(domain.NewDeviceID().String(), replicas)] = true
	}
	assert.Len(t, seen, replicas, "every partition must be reachable")
}

func TestRouterKeepsDeviceOnOnePartition(t *testing.T) {
	mbus := memory.New()
	router := NewRouter(mbus, 3, logger.New("router-test"))

	deviceID := domain.NewDeviceID().String()
	for i := 0; i < 4; i++ {
		payload, err := events.Measurement{
			DeviceID:         deviceID,
			Timestamp:        time.Date(2026, time.March, 14, 10, i, 0, 0, time.UTC),
			MeasurementValue: 1.0,
		}.Encode()
		require.NoError(t, err)
		require.NoError(t, router.HandleRaw(context.Background(), &bus.Message{
			Topic: bus.TopicRawMeasurements,
			Value: payload,
		}))
	}

	routed := mbus.Published(bus.TopicMeasurements)
	require.Len(t, routed, 4)
	want := Partition(deviceID, 3)
	for _, msg := range routed {
		assert.Equal(t, want, msg.Partition)
		decoded, err := events.DecodeMeasurement(msg.Value)
		require.NoError(t, err)
		assert.Equal(t, deviceID, decoded.DeviceID, "payload is forwarded unchanged")
	}
}

func TestRouterDropsMalformedPayload(t *testing.T) {
	mbus := memory.New()
	router := NewRouter(mbus, 3, logger.New("router-test"))

	err := router.HandleRaw(context.Background(), &bus.Message{
		Topic: bus.TopicRawMeasurements,
		Value: []byte("not json"),
	})
	require.NoError(t, err, "malformed input cannot succeed on redelivery")
	assert.Empty(t, mbus.Published(bus.TopicMeasurements))
}
