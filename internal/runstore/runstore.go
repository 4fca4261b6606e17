// Package runstore keeps completed and in-flight workflow runs in memory.
// Runs live only for the life of the process; there is no durable storage.
package runstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/opensource-finance/kestrel/internal/domain"
)

var ErrNotFound = errors.New("run not found")

// Store holds workflow runs keyed by run ID.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*domain.WorkflowRun
}

// New creates an empty store.
func New() *Store {
	return &Store{runs: make(map[string]*domain.WorkflowRun)}
}

// Save stores or replaces a run.
func (s *Store) Save(_ context.Context, run *domain.WorkflowRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// Get returns the run with the given ID.
func (s *Store) Get(_ context.Context, id string) (*domain.WorkflowRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return run, nil
}

// List returns all runs, newest first.
func (s *Store) List(_ context.Context) ([]*domain.WorkflowRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.WorkflowRun, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// Len returns the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
