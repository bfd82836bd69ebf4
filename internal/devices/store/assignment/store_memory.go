package assignment

import (
	"context"
	"sync"

	"wattgrid/internal/devices/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps assignments keyed by device id, which makes the
// one-assignment-per-device invariant structural.
type InMemoryStore struct {
	mu       sync.RWMutex
	byDevice map[domain.DeviceID]*models.Assignment
}

// NewMemory creates an empty in-memory assignment store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{byDevice: make(map[domain.DeviceID]*models.Assignment)}
}

func (s *InMemoryStore) Replace(_ context.Context, a *models.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *a
	s.byDevice[a.DeviceID] = &copied
	return nil
}

func (s *InMemoryStore) FindByDeviceID(_ context.Context, deviceID domain.DeviceID) (*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byDevice[deviceID]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByUserID(_ context.Context, userID domain.UserID) ([]*models.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Assignment
	for _, a := range s.byDevice {
		if a.UserID == userID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteByDeviceID(_ context.Context, deviceID domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byDevice, deviceID)
	return nil
}

func (s *InMemoryStore) DeleteByUserID(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.byDevice {
		if a.UserID == userID {
			delete(s.byDevice, id)
		}
	}
	return nil
}
