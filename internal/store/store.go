package store

import (
	"context"
	"errors"

	"github.com/dvloznov/moneymagic/internal/domain"
)

// ErrNotFound is returned when no dataset exists under the requested id.
var ErrNotFound = errors.New("dataset not found")

// Store persists datasets keyed by an opaque id. Save overwrites; callers
// needing read-modify-write atomicity serialize above the store.
//
//go:generate mockgen -destination=mocks/mock_store.go -source=store.go Store
type Store interface {
	Save(ctx context.Context, id string, ds *domain.Dataset) error
	Get(ctx context.Context, id string) (*domain.Dataset, error)
}
