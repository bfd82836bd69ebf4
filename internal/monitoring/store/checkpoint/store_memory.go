package checkpoint

import (
	"context"
	"sync"
)

type partitionKey struct {
	topic     string
	partition int32
}

// InMemoryStore keeps checkpoints for the process lifetime only. Replicas
// without Postgres fall back to it and accept the full replay on restart.
type InMemoryStore struct {
	mu      sync.RWMutex
	offsets map[partitionKey]int64
}

// NewMemory creates an empty in-memory checkpoint store.
func NewMemory() *InMemoryStore {
	return &InMemoryStore{offsets: make(map[partitionKey]int64)}
}

func (s *InMemoryStore) Load(_ context.Context, topic string, partition int32) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next, ok := s.offsets[partitionKey{topic: topic, partition: partition}]
	return next, ok, nil
}

func (s *InMemoryStore) Save(_ context.Context, topic string, partition int32, next int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets[partitionKey{topic: topic, partition: partition}] = next
	return nil
}
