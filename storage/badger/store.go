// Copyright 2025 Atomforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// Store is the primary-tier storage.RecordStore backed by BadgerDB.
// It shares a Backend with the read repositories, so everything written here
// is immediately visible to them.
type Store struct {
	backend *Backend
}

var _ storage.RecordStore = (*Store)(nil)

// NewStore creates a record store on top of an open backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Name identifies the tier in logs and degraded-write reporting.
func (s *Store) Name() string {
	return "badger"
}

// Close closes the store. The shared backend is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// Ping reports whether the backend can serve a transaction.
func (s *Store) Ping(ctx context.Context) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		return nil
	}, false)
}

// WriteSession upserts a session record by session ID.
func (s *Store) WriteSession(ctx context.Context, session *core.IngestionSession) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeSessionKey(session.SessionID), storage.MarshalSession(session)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// WriteTrace appends a trace record under its session.
func (s *Store) WriteTrace(ctx context.Context, trace *core.AgentTrace) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeTraceKey(trace.SessionID, trace.StartedAt, trace.TraceID)
		if err := tx.Set(key, storage.MarshalTrace(trace)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// WriteAtom upserts an atom by content ID and maintains the session index.
func (s *Store) WriteAtom(ctx context.Context, atom *core.Atom) error {
	if err := core.ValidateAtom(atom); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAtomKey(atom.Id), storage.MarshalAtom(atom)); err != nil {
			return err
		}
		if err := tx.Set(makeAtomSessionKey(atom.SessionID, atom.Id), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// WriteMetric folds a metric record into its (granularity, bucket) slot.
func (s *Store) WriteMetric(ctx context.Context, record *core.MetricRecord) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeMetricKey(record.Granularity, record.Bucket)
		merged := *record
		item, err := tx.Get(key)
		switch {
		case err == badger.ErrKeyNotFound:
			// First write into the bucket.
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				existing, err := storage.UnmarshalMetric(val)
				if err != nil {
					return err
				}
				existing.Fold(record)
				merged = *existing
				return nil
			})
			if err != nil {
				return err
			}
		}
		if err := tx.Set(key, storage.MarshalMetric(&merged)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
