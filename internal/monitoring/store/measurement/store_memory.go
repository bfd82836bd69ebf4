package measurement

import (
	"context"
	"sync"
	"time"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

type sampleKey struct {
	deviceID domain.DeviceID
	ts       time.Time
}

// InMemoryStore keeps samples keyed by (device, timestamp), which makes the
// uniqueness invariant structural.
type InMemoryStore struct {
	mu      sync.RWMutex
	samples map[sampleKey]*models.SensorMeasurement
}

// NewMemory creates an empty in-memory measurement store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{samples: make(map[sampleKey]*models.SensorMeasurement)}
}

func (s *InMemoryStore) Insert(_ context.Context, m *models.SensorMeasurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sampleKey{deviceID: m.DeviceID, ts: m.Timestamp.UTC()}
	if _, ok := s.samples[key]; ok {
		return sentinel.ErrConflict
	}
	copied := *m
	s.samples[key] = &copied
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, deviceID domain.DeviceID, ts time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.samples[sampleKey{deviceID: deviceID, ts: ts.UTC()}]
	return ok, nil
}

func (s *InMemoryStore) SumForWindow(_ context.Context, deviceID domain.DeviceID, from, to time.Time) (float64, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		total float64
		count int
	)
	for key, m := range s.samples {
		if key.deviceID != deviceID {
			continue
		}
		if key.ts.Before(from) || key.ts.After(to) {
			continue
		}
		total += m.Value
		count++
	}
	return total, count, nil
}

func (s *InMemoryStore) DeleteByDevice(_ context.Context, deviceID domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.samples {
		if key.deviceID == deviceID {
			delete(s.samples, key)
		}
	}
	return nil
}
