package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/dgraph-io/badger/v4"
)

// MetricsRepository implements storage.MetricsRepository for BadgerDB.
type MetricsRepository struct {
	backend *Backend
}

var _ storage.MetricsRepository = (*MetricsRepository)(nil)

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(backend *Backend) *MetricsRepository {
	return &MetricsRepository{backend: backend}
}

// Close closes the repository.
func (r *MetricsRepository) Close() error {
	return nil
}

// GetMetric retrieves one bucket.
func (r *MetricsRepository) GetMetric(ctx context.Context, gran core.Granularity, bucket time.Time) (*core.MetricRecord, error) {
	var record *core.MetricRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeMetricKey(gran, bucket))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalMetric(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// RangeMetrics retrieves buckets with from <= Bucket < to, ordered by bucket.
// Bucket timestamps are BigEndian in the key, so a forward seek from the
// lower bound walks the range in order.
func (r *MetricsRepository) RangeMetrics(ctx context.Context, gran core.Granularity, from, to time.Time) ([]*core.MetricRecord, error) {
	var records []*core.MetricRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeMetricPrefix(gran)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		start := makeMetricKey(gran, from)
		end := makeMetricKey(gran, to)
		for iter.Seek(start); iter.Valid(); iter.Next() {
			if bytes.Compare(iter.Item().Key(), end) >= 0 {
				break
			}
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalMetric(val)
				if err != nil {
					return err
				}
				records = append(records, record)
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
	return records, nil
}
