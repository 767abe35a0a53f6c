package badger

import (
	"context"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// ValidationRepository implements storage.ValidationRepository for BadgerDB.
// Expiry leans on badger's native entry TTL, so an expired verdict is simply
// a missing key.
type ValidationRepository struct {
	backend *Backend
}

var _ storage.ValidationRepository = (*ValidationRepository)(nil)

// NewValidationRepository creates a new ValidationRepository.
func NewValidationRepository(backend *Backend) *ValidationRepository {
	return &ValidationRepository{backend: backend}
}

// Close closes the repository.
func (r *ValidationRepository) Close() error {
	return nil
}

// GetVerdict retrieves a cached verdict.
func (r *ValidationRepository) GetVerdict(ctx context.Context, sourceID core.ID) (*core.Verdict, error) {
	var verdict *core.Verdict
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeVerdictKey(sourceID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			verdict, err = storage.UnmarshalVerdict(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return verdict, nil
}

// PutVerdict caches a verdict with the given time-to-live.
func (r *ValidationRepository) PutVerdict(ctx context.Context, verdict *core.Verdict, ttl time.Duration) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry := badger.NewEntry(makeVerdictKey(verdict.SourceID), storage.MarshalVerdict(verdict))
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		if err := tx.SetEntry(entry); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
