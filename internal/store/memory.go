package store

import (
	"context"
	"sync"

	"github.com/nvandessel/penney/internal/simulation"
)

// MemoryStateStore implements StateStore in process memory.
// Useful for testing and for dry runs.
type MemoryStateStore struct {
	mu    sync.Mutex
	state simulation.State
	saves int
}

// NewMemoryStateStore creates an empty in-memory store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

// Location implements StateStore.
func (s *MemoryStateStore) Location() string {
	return "memory"
}

// Load implements StateStore.
func (s *MemoryStateStore) Load(ctx context.Context) (simulation.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

// Save implements StateStore.
func (s *MemoryStateStore) Save(ctx context.Context, state simulation.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryStateStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Close implements StateStore.
func (s *MemoryStateStore) Close() error {
	return nil
}
