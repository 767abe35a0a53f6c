package badger

import (
	"context"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// RateStateRepository implements storage.RateStateRepository for BadgerDB.
type RateStateRepository struct {
	backend *Backend
}

var _ storage.RateStateRepository = (*RateStateRepository)(nil)

// NewRateStateRepository creates a new RateStateRepository.
func NewRateStateRepository(backend *Backend) *RateStateRepository {
	return &RateStateRepository{backend: backend}
}

// Close closes the repository.
func (r *RateStateRepository) Close() error {
	return nil
}

// GetRateState retrieves the state for a domain.
func (r *RateStateRepository) GetRateState(ctx context.Context, domain string) (*core.DomainRateState, error) {
	var state *core.DomainRateState
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRateStateKey(domain))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			state, err = storage.UnmarshalRateState(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// PutRateState upserts the state for a domain.
func (r *RateStateRepository) PutRateState(ctx context.Context, state *core.DomainRateState) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeRateStateKey(state.Domain), storage.MarshalRateState(state)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
