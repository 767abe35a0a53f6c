package badger

import (
	"context"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// AtomRepository implements storage.AtomRepository for BadgerDB.
type AtomRepository struct {
	backend *Backend
}

var _ storage.AtomRepository = (*AtomRepository)(nil)

// NewAtomRepository creates a new AtomRepository.
func NewAtomRepository(backend *Backend) *AtomRepository {
	return &AtomRepository{backend: backend}
}

// Close closes the repository.
func (r *AtomRepository) Close() error {
	return nil
}

// GetAtom retrieves an atom by its content ID.
func (r *AtomRepository) GetAtom(ctx context.Context, id core.ID) (*core.Atom, error) {
	var atom *core.Atom
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeAtomKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			atom, err = storage.UnmarshalAtom(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return atom, nil
}

// GetAtomsBySession retrieves the atoms created during one session by
// resolving the session index to the primary atom records.
func (r *AtomRepository) GetAtomsBySession(ctx context.Context, sessionID string) ([]*core.Atom, error) {
	var atoms []*core.Atom
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeAtomSessionPrefix(sessionID)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)

		var ids []core.ID
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			id, err := atomIDFromSessionKey(key, sessionID)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		iter.Close()

		for _, id := range ids {
			item, err := tx.Get(makeAtomKey(id))
			if err != nil {
				if err == badger.ErrKeyNotFound {
					// Index entry outlived its record; skip.
					continue
				}
				return err
			}
			err = item.Value(func(val []byte) error {
				atom, err := storage.UnmarshalAtom(val)
				if err != nil {
					return err
				}
				atoms = append(atoms, atom)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return atoms, nil
}
