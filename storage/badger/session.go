package badger

import (
	"context"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// SessionRepository implements storage.SessionRepository for BadgerDB.
// Reads target whatever the Store wrote; this type has no write methods.
type SessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*SessionRepository)(nil)

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(backend *Backend) *SessionRepository {
	return &SessionRepository{backend: backend}
}

// Close closes the repository.
func (r *SessionRepository) Close() error {
	return nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*core.IngestionSession, error) {
	var session *core.IngestionSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSessionKey(sessionID))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			session, err = storage.UnmarshalSession(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetTraces retrieves all traces for a session in recording order. The trace
// keys embed the start timestamp, so a forward prefix scan is already ordered.
func (r *SessionRepository) GetTraces(ctx context.Context, sessionID string) ([]*core.AgentTrace, error) {
	var traces []*core.AgentTrace
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTraceSessionPrefix(sessionID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				trace, err := storage.UnmarshalTrace(val)
				if err != nil {
					return err
				}
				traces = append(traces, trace)
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
	return traces, nil
}
