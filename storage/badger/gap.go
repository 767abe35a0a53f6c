package badger

import (
	"context"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// GapRepository implements storage.GapRepository for BadgerDB.
type GapRepository struct {
	backend *Backend
}

var _ storage.GapRepository = (*GapRepository)(nil)

// NewGapRepository creates a new GapRepository.
func NewGapRepository(backend *Backend) *GapRepository {
	return &GapRepository{backend: backend}
}

// Close closes the repository.
func (r *GapRepository) Close() error {
	return nil
}

// GetGap retrieves the gap record for a topic key.
func (r *GapRepository) GetGap(ctx context.Context, topicKey string) (*core.GapRequest, error) {
	var gap *core.GapRequest
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeGapRequestKey(topicKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			gap, err = storage.UnmarshalGapRequest(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return gap, nil
}

// PutGap upserts a gap record by its topic key.
func (r *GapRepository) PutGap(ctx context.Context, gap *core.GapRequest) error {
	if _, err := core.NormalizeTopicKey(gap.TopicKey); err != nil {
		return err
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeGapRequestKey(gap.TopicKey), storage.MarshalGapRequest(gap)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
