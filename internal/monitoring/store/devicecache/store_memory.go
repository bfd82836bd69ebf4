package devicecache

import (
	"context"
	"sync"

	"wattgrid/internal/monitoring/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps the projection in a map.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.DeviceID]*models.DeviceCacheEntry
}

// NewMemory creates an empty in-memory device cache.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.DeviceID]*models.DeviceCacheEntry)}
}

func (s *InMemoryStore) Put(_ context.Context, entry *models.DeviceCacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *entry
	if existing, ok := s.entries[entry.DeviceID]; ok {
		copied.UserID = existing.UserID
	}
	s.entries[entry.DeviceID] = &copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, deviceID domain.DeviceID) (*models.DeviceCacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if entry, ok := s.entries[deviceID]; ok {
		copied := *entry
		if entry.UserID != nil {
			uid := *entry.UserID
			copied.UserID = &uid
		}
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SetUser(_ context.Context, deviceID domain.DeviceID, userID *domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[deviceID]
	if !ok {
		return nil
	}
	if userID == nil {
		entry.UserID = nil
		return nil
	}
	uid := *userID
	entry.UserID = &uid
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, deviceID domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, deviceID)
	return nil
}
