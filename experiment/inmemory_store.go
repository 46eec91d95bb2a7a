package experiment

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// InMemoryStore implements Store using an in-memory map. Thread-safe
// with an RWMutex; useful for tests and for running the server without
// a database.
type InMemoryStore struct {
	experiments map[string]*Experiment
	mu          sync.RWMutex
}

// NewInMemoryStore creates a new in-memory experiment store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		experiments: make(map[string]*Experiment),
	}
}

// Add inserts a new experiment, enforcing unique IDs and stamping the
// timestamps.
func (s *InMemoryStore) Add(e *Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.experiments[e.ID]; exists {
		return fmt.Errorf("experiment with ID %s already exists", e.ID)
	}

	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	stored := *e
	s.experiments[e.ID] = &stored
	return nil
}

// Get retrieves an experiment by ID.
func (s *InMemoryStore) Get(id string) (*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.experiments[id]
	if !exists {
		return nil, fmt.Errorf("experiment with ID %s not found", id)
	}
	found := *e
	return &found, nil
}

// List returns all experiments, newest first.
func (s *InMemoryStore) List() ([]*Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		found := *e
		out = append(out, &found)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces an existing experiment's design, preserving its
// original CreatedAt.
func (s *InMemoryStore) Update(e *Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.experiments[e.ID]
	if !exists {
		return fmt.Errorf("experiment with ID %s not found", e.ID)
	}

	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now()
	stored := *e
	s.experiments[e.ID] = &stored
	return nil
}

// Delete removes an experiment from the store.
func (s *InMemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.experiments[id]; !exists {
		return fmt.Errorf("experiment with ID %s not found", id)
	}

	delete(s.experiments, id)
	return nil
}
