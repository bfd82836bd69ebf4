package hourly

import (
	"context"
	"sort"
	"sync"
	"time"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
)

type rowKey struct {
	deviceID domain.DeviceID
	hour     time.Time
}

// InMemoryStore keeps rollups keyed by (device, hour).
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[rowKey]*models.HourlyConsumption
}

// NewMemory creates an empty in-memory rollup store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[rowKey]*models.HourlyConsumption)}
}

func (s *InMemoryStore) Upsert(_ context.Context, row *models.HourlyConsumption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rowKey{deviceID: row.DeviceID, hour: row.Hour.UTC()}
	if existing, ok := s.rows[key]; ok {
		existing.Total = row.Total
		return nil
	}
	copied := *row
	s.rows[key] = &copied
	return nil
}

func (s *InMemoryStore) ListForDay(_ context.Context, deviceID domain.DeviceID, day time.Time) ([]*models.HourlyConsumption, error) {
	dayStart := day.UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.HourlyConsumption
	for key, row := range s.rows {
		if key.deviceID != deviceID {
			continue
		}
		if key.hour.Before(dayStart) || !key.hour.Before(dayEnd) {
			continue
		}
		copied := *row
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour.Before(out[j].Hour) })
	return out, nil
}

func (s *InMemoryStore) DeleteByDevice(_ context.Context, deviceID domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.rows {
		if key.deviceID == deviceID {
			delete(s.rows, key)
		}
	}
	return nil
}
