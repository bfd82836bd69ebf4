package credential

import (
	"context"
	"strings"
	"sync"

	"wattgrid/internal/identity/models"
	"wattgrid/pkg/domain"
	"wattgrid/pkg/platform/sentinel"
)

// InMemoryStore keeps credentials in a map. Used by unit tests and local
// development; it enforces the same contract as the Postgres store.
type InMemoryStore struct {
	mu    sync.RWMutex
	creds map[domain.CredentialID]*models.Credential
}

// NewMemory creates an empty in-memory credential store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{creds: make(map[domain.CredentialID]*models.Credential)}
}

func (s *InMemoryStore) CreateIfUsernameAvailable(_ context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.creds {
		if strings.EqualFold(existing.Username, cred.Username) {
			return sentinel.ErrConflict
		}
	}
	copied := *cred
	s.creds[cred.ID] = &copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.creds[id]; ok {
		copied := *cred
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, cred := range s.creds {
		if strings.EqualFold(cred.Username, username) {
			copied := *cred
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) AssignUserID(_ context.Context, id domain.CredentialID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	cred.UserID = userID
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.CredentialID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.creds, id)
	return nil
}

func (s *InMemoryStore) DeleteByUserID(_ context.Context, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cred := range s.creds {
		if cred.UserID == userID {
			delete(s.creds, id)
			return nil
		}
	}
	return sentinel.ErrNotFound
}
