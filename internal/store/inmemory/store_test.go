package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dvloznov/moneymagic/internal/domain"
	"github.com/dvloznov/moneymagic/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	ds := &domain.Dataset{Transactions: []domain.Transaction{{TxID: "a", Merchant: "Netflix"}}}
	require.NoError(t, s.Save(ctx, "id-1", ds))

	got, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", got.Transactions[0].Merchant)
	assert.Equal(t, 1, s.Len())
}

func TestStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	ds := &domain.Dataset{Transactions: []domain.Transaction{{TxID: "a", Merchant: "Netflix"}}}
	require.NoError(t, s.Save(ctx, "id-1", ds))
	ds.Transactions[0].Merchant = "changed after save"

	got, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	got.Transactions[0].Merchant = "changed after get"

	again, err := s.Get(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "Netflix", again.Transactions[0].Merchant)
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Get(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	assert.Error(t, s.Save(ctx, "", &domain.Dataset{}))
	assert.Error(t, s.Save(ctx, "x", nil))
}

func TestStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Save(ctx, "shared", &domain.Dataset{})
			_, _ = s.Get(ctx, "shared")
		}()
	}
	wg.Wait()

	_, err := s.Get(ctx, "shared")
	assert.NoError(t, err)
}
