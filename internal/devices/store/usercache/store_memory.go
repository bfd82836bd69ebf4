package usercache

import (
	"context"
	"sync"

	"wattgrid/pkg/domain"
)

// InMemoryStore keeps the projection in a set.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[domain.UserID]struct{}
}

// NewMemory creates an empty in-memory user cache.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{users: make(map[domain.UserID]struct{})}
}

func (s *InMemoryStore) Put(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = struct{}{}
	return nil
}

func (s *InMemoryStore) Exists(_ context.Context, userID domain.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[userID]
	return ok, nil
}

func (s *InMemoryStore) Delete(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	return nil
}
