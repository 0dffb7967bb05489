package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/store"
)

// Store persists every dataset in one JSON document on disk. The whole
// document is rewritten on each save via a temp file and rename.
type Store struct {
	mu       sync.Mutex
	path     string
	datasets map[string]*domain.Dataset
}

// Open loads path if it exists. A missing or blank file starts empty.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		datasets: make(map[string]*domain.Dataset),
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore.Open: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(content, &s.datasets); err != nil {
		return nil, fmt.Errorf("filestore.Open: decode %s: %w", path, err)
	}
	if s.datasets == nil {
		s.datasets = make(map[string]*domain.Dataset)
	}
	return s, nil
}

// Save writes ds under id and flushes the document to disk.
func (s *Store) Save(ctx context.Context, id string, ds *domain.Dataset) error {
	if id == "" {
		return fmt.Errorf("dataset ID is required")
	}
	if ds == nil {
		return fmt.Errorf("dataset %s is nil", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.datasets[id]
	s.datasets[id] = ds.Clone()
	if err := s.flushLocked(); err != nil {
		if existed {
			s.datasets[id] = prev
		} else {
			delete(s.datasets, id)
		}
		return err
	}
	return nil
}

// Get returns a deep copy of the dataset stored under id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, exists := s.datasets[id]
	if !exists {
		return nil, fmt.Errorf("get dataset %s: %w", id, store.ErrNotFound)
	}
	return ds.Clone(), nil
}

// IDs returns every stored dataset id in sorted order.
func (s *Store) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.datasets))
	for id := range s.datasets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) flushLocked() error {
	payload, err := json.MarshalIndent(s.datasets, "", "  ")
	if err != nil {
		return fmt.Errorf("filestore: encode datasets: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("filestore: create dir: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return fmt.Errorf("filestore: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("filestore: replace data file: %w", err)
	}
	return nil
}

var _ store.Store = (*Store)(nil)
