package inmemory

import (
	"context"
	"fmt"
	"sync"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/store"
)

// Store keeps datasets in process memory. Data is lost on restart.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
}

// NewStore creates an empty in-memory dataset store.
func NewStore() *Store {
	return &Store{
		datasets: make(map[string]*domain.Dataset),
	}
}

// Save stores a deep copy of ds under id.
func (s *Store) Save(ctx context.Context, id string, ds *domain.Dataset) error {
	if id == "" {
		return fmt.Errorf("dataset ID is required")
	}
	if ds == nil {
		return fmt.Errorf("dataset %s is nil", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.datasets[id] = ds.Clone()
	return nil
}

// Get returns a deep copy so callers can mutate freely.
func (s *Store) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, exists := s.datasets[id]
	if !exists {
		return nil, fmt.Errorf("get dataset %s: %w", id, store.ErrNotFound)
	}
	return ds.Clone(), nil
}

// Len reports how many datasets are held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

var _ store.Store = (*Store)(nil)
