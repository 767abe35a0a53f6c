package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

const defaultMaxAttempts = 3

// QueueRepository implements storage.QueueRepository for BadgerDB.
// The claim mutex keeps enqueue/claim/complete strictly serial, which is what
// guarantees each entry is handed to exactly one worker on a single node.
type QueueRepository struct {
	backend     *Backend
	mu          sync.Mutex
	maxAttempts int
	now         func() time.Time
}

var _ storage.QueueRepository = (*QueueRepository)(nil)

// QueueOption configures a QueueRepository.
type QueueOption func(*QueueRepository)

// WithQueueClock sets the clock, letting tests drive queue timestamps.
func WithQueueClock(now func() time.Time) QueueOption {
	return func(r *QueueRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithMaxAttempts sets the retry cap before an entry is permanently failed.
func WithMaxAttempts(n int) QueueOption {
	return func(r *QueueRepository) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// NewQueueRepository creates a new QueueRepository.
func NewQueueRepository(backend *Backend, opts ...QueueOption) *QueueRepository {
	r := &QueueRepository{
		backend:     backend,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close closes the repository.
func (r *QueueRepository) Close() error {
	return nil
}

// Enqueue inserts a new pending entry or merges with the existing non-terminal
// entry for the same SourceID, keeping the higher priority.
func (r *QueueRepository) Enqueue(ctx context.Context, entry *core.QueueEntry) (merged bool, err error) {
	if err := core.ValidateQueueEntry(entry); err != nil {
		return false, err
	}
	if entry.SourceID == 0 {
		entry.SourceID = core.IDFromContent(entry.Source)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := getQueueEntry(tx, entry.SourceID)
		if err != nil && err != storage.ErrNotFound {
			return err
		}

		if existing != nil && !existing.Status.Terminal() {
			// Merge: keep the higher priority, reindex if still pending.
			merged = true
			if entry.Priority > existing.Priority {
				if existing.Status == core.QueuePending {
					if err := tx.Delete(makeQueuePriorityKey(existing.Priority, existing.QueuedAt, existing.SourceID)); err != nil {
						return err
					}
					if err := tx.Set(makeQueuePriorityKey(entry.Priority, existing.QueuedAt, existing.SourceID), nil); err != nil {
						return err
					}
				}
				existing.Priority = entry.Priority
				if err := tx.Set(makeQueueEntryKey(existing.SourceID), storage.MarshalQueueEntry(existing)); err != nil {
					return err
				}
			}
			*entry = *existing
			return tx.Commit()
		}

		// Fresh entry. A terminal predecessor is overwritten, which starts a
		// new processing cycle with a reset attempt counter.
		entry.Status = core.QueuePending
		entry.Attempts = 0
		entry.QueuedAt = r.now().UTC()
		entry.StartedAt = time.Time{}
		entry.CompletedAt = time.Time{}

		if err := tx.Set(makeQueueEntryKey(entry.SourceID), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		if err := tx.Set(makeQueuePriorityKey(entry.Priority, entry.QueuedAt, entry.SourceID), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	return merged, err
}

// Claim atomically transitions up to batch pending entries to processing.
// Iterating the priority index forward yields highest priority first and
// FIFO among equal priorities.
func (r *QueueRepository) Claim(ctx context.Context, batch int) ([]*core.QueueEntry, error) {
	if batch < 1 {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var claimed []*core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queuePriorityPrefix + ":")
		iter := tx.NewIterator(opts)

		var indexKeys [][]byte
		for iter.Rewind(); iter.Valid() && len(claimed) < batch; iter.Next() {
			id, err := queueIDFromPriorityKey(iter.Item().Key())
			if err != nil {
				continue
			}
			entry, err := getQueueEntry(tx, id)
			if err != nil {
				return err
			}
			if entry.Status != core.QueuePending {
				continue
			}
			entry.Status = core.QueueProcessing
			entry.StartedAt = r.now().UTC()
			claimed = append(claimed, entry)
			indexKeys = append(indexKeys, iter.Item().KeyCopy(nil))
		}
		iter.Close()

		for i, entry := range claimed {
			if err := tx.Set(makeQueueEntryKey(entry.SourceID), storage.MarshalQueueEntry(entry)); err != nil {
				return err
			}
			if err := tx.Delete(indexKeys[i]); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// Release returns a claimed entry to pending without counting an attempt.
func (r *QueueRepository) Release(ctx context.Context, sourceID core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := getQueueEntry(tx, sourceID)
		if err != nil {
			return err
		}
		if entry.Status != core.QueueProcessing {
			return storage.ErrNotClaimed
		}

		entry.Status = core.QueuePending
		entry.StartedAt = time.Time{}
		if err := tx.Set(makeQueueEntryKey(sourceID), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		if err := tx.Set(makeQueuePriorityKey(entry.Priority, entry.QueuedAt, sourceID), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Complete sets the terminal status for a claimed entry. A failed run
// re-queues the entry until the attempt cap is reached.
func (r *QueueRepository) Complete(ctx context.Context, sourceID core.ID, succeeded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.backend.WithTx(func(tx *badger.Txn) error {
		entry, err := getQueueEntry(tx, sourceID)
		if err != nil {
			return err
		}
		if entry.Status != core.QueueProcessing {
			return storage.ErrNotClaimed
		}

		entry.Attempts++
		switch {
		case succeeded:
			entry.Status = core.QueueCompleted
			entry.CompletedAt = r.now().UTC()
		case entry.Attempts >= r.maxAttempts:
			entry.Status = core.QueueFailed
			entry.CompletedAt = r.now().UTC()
		default:
			entry.Status = core.QueuePending
			entry.StartedAt = time.Time{}
			if err := tx.Set(makeQueuePriorityKey(entry.Priority, entry.QueuedAt, sourceID), nil); err != nil {
				return err
			}
		}

		if err := tx.Set(makeQueueEntryKey(sourceID), storage.MarshalQueueEntry(entry)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetEntry retrieves an entry by source ID.
func (r *QueueRepository) GetEntry(ctx context.Context, sourceID core.ID) (*core.QueueEntry, error) {
	var entry *core.QueueEntry
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		entry, err = getQueueEntry(tx, sourceID)
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PendingRank returns the 1-based claim-order position of a pending entry.
func (r *QueueRepository) PendingRank(ctx context.Context, sourceID core.ID) (int, error) {
	rank := 0
	found := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(queuePriorityPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id, err := queueIDFromPriorityKey(iter.Item().Key())
			if err != nil {
				continue
			}
			rank++
			if id == sourceID {
				found = true
				return nil
			}
		}
		return nil
	}, false)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, storage.ErrNotFound
	}
	return rank, nil
}

// getQueueEntry reads an entry within a transaction.
func getQueueEntry(tx *badger.Txn, id core.ID) (*core.QueueEntry, error) {
	item, err := tx.Get(makeQueueEntryKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	var entry *core.QueueEntry
	err = item.Value(func(val []byte) error {
		var err error
		entry, err = storage.UnmarshalQueueEntry(val)
		return err
	})
	return entry, err
}

// queueIDFromPriorityKey extracts the source ID from a priority index key.
func queueIDFromPriorityKey(key []byte) (core.ID, error) {
	prefix := []byte(queuePriorityPrefix + ":")
	if !bytes.HasPrefix(key, prefix) || len(key) != len(prefix)+24 {
		return 0, storage.ErrTruncatedData
	}
	return core.ID(binary.BigEndian.Uint64(key[len(prefix)+16:])), nil
}
