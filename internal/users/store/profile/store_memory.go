package profile

import (
	"context"
	"sort"
	"strings"
	"sync"

	"wattgrid/internal/users/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps profiles in a map, enforcing the same contract as the
// Postgres store.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[domain.UserID]*models.UserProfile
}

// NewMemory creates an empty in-memory profile store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[domain.UserID]*models.UserProfile)}
}

func (s *InMemoryStore) CreateIfUsernameAvailable(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Username, profile.Username) {
			return sentinel.ErrConflict
		}
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.UserID) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByCredentialsID(_ context.Context, credID domain.CredentialID) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.CredentialsID == credID {
			copied := *p
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.UserProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *InMemoryStore) Update(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.ID]; !ok {
		return sentinel.ErrNotFound
	}
	copied := *profile
	s.profiles[profile.ID] = &copied
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, id)
	return nil
}
