package device

import (
	"context"
	"sort"
	"sync"

	"wattgrid/internal/devices/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps devices in a map, enforcing the same contract as the
// Postgres store.
type InMemoryStore struct {
	mu      sync.RWMutex
	devices map[domain.DeviceID]*models.Device
}

// NewMemory creates an empty in-memory device store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{devices: make(map[domain.DeviceID]*models.Device)}
}

func (s *InMemoryStore) Create(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *d
	s.devices[d.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.DeviceID) (*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.devices[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, d *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[d.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *d
	s.devices[d.ID] = &copied
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.devices, id)
	return nil
}
