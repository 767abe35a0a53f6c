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

package metrics

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// metricSink is the narrow write surface the aggregator needs.
type metricSink interface {
	WriteMetric(ctx context.Context, record *core.MetricRecord) (degraded bool, err error)
}

var _ metricSink = (*storage.Manager)(nil)

// AggregatorConfig bounds the event buffer and the flush cadence.
type AggregatorConfig struct {
	// BufferSize is the capacity of the in-memory event queue. Events
	// arriving while the buffer is full are dropped and counted.
	// Default: 256.
	BufferSize int

	// FlushCount triggers a flush once this many events accumulate.
	// Default: 50.
	FlushCount int

	// FlushInterval triggers a flush even when the batch is small.
	// Default: 5s.
	FlushInterval time.Duration
}

// DefaultAggregatorConfig returns the production flush settings.
func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		BufferSize:    256,
		FlushCount:    50,
		FlushInterval: 5 * time.Second,
	}
}

// Validate checks the configuration for usability.
func (c *AggregatorConfig) Validate() error {
	if c.BufferSize <= 0 {
		return errors.New("aggregator config: BufferSize must be positive")
	}
	if c.FlushCount <= 0 {
		return errors.New("aggregator config: FlushCount must be positive")
	}
	if c.FlushInterval <= 0 {
		return errors.New("aggregator config: FlushInterval must be positive")
	}
	return nil
}

// Aggregator folds completed-session events into per-minute realtime metric
// buckets. Ingestion only pays for a channel send; the durable writes happen
// on a background consumer that flushes when the batch reaches FlushCount
// records or FlushInterval elapses, whichever comes first.
type Aggregator struct {
	sink      metricSink
	config    AggregatorConfig
	events    chan core.SessionEvent
	dropped   atomic.Int64
	logger    *slog.Logger
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithAggregatorConfig replaces the default flush settings.
func WithAggregatorConfig(config AggregatorConfig) AggregatorOption {
	return func(a *Aggregator) {
		a.config = config
	}
}

// WithAggregatorLogger sets a custom logger.
func WithAggregatorLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates a metrics aggregator writing through the storage
// manager. Call Start to launch the consumer and Close to drain it.
func NewAggregator(sink metricSink, opts ...AggregatorOption) (*Aggregator, error) {
	a := &Aggregator{
		sink:   sink,
		config: DefaultAggregatorConfig(),
		logger: slog.Default().With("component", "metrics"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.config.Validate(); err != nil {
		return nil, err
	}
	a.events = make(chan core.SessionEvent, a.config.BufferSize)
	return a, nil
}

// SessionCompleted accepts one completed-session event. Never blocks: when
// the buffer is full the event is dropped and counted.
func (a *Aggregator) SessionCompleted(event core.SessionEvent) {
	select {
	case a.events <- event:
	default:
		a.dropped.Add(1)
		a.logger.Warn("metrics buffer full, event dropped",
			"session_id", event.SessionID)
	}
}

// Dropped reports how many events were lost to a full buffer.
func (a *Aggregator) Dropped() int64 {
	return a.dropped.Load()
}

// Start launches the background consumer.
func (a *Aggregator) Start() {
	a.startOnce.Do(func() {
		go a.loop()
	})
}

// Close drains the buffer, flushes the final batch and stops the consumer.
func (a *Aggregator) Close() error {
	a.closeOnce.Do(func() {
		close(a.stop)
		a.startOnce.Do(func() { close(a.done) }) // never started
		select {
		case <-a.done:
		case <-time.After(5 * time.Second):
			a.logger.Warn("metrics consumer did not drain in time")
		}
	})
	return nil
}

func (a *Aggregator) loop() {
	defer close(a.done)

	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]core.SessionEvent, 0, a.config.FlushCount)
	for {
		select {
		case event := <-a.events:
			batch = append(batch, event)
			if len(batch) >= a.config.FlushCount {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			for {
				select {
				case event := <-a.events:
					batch = append(batch, event)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				a.flush(batch)
			}
			return
		}
	}
}

// flush folds the batch into per-minute buckets and writes each through the
// sink. Write failures are logged; the manager already degrades to the
// failover log before erroring.
func (a *Aggregator) flush(batch []core.SessionEvent) {
	buckets := make(map[time.Time]*core.MetricRecord)
	for _, event := range batch {
		record := recordFromEvent(event)
		if existing, ok := buckets[record.Bucket]; ok {
			existing.Fold(record)
			continue
		}
		buckets[record.Bucket] = record
	}

	ordered := make([]*core.MetricRecord, 0, len(buckets))
	for _, record := range buckets {
		ordered = append(ordered, record)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Bucket.Before(ordered[j].Bucket)
	})

	ctx := context.Background()
	for _, record := range ordered {
		if _, err := a.sink.WriteMetric(ctx, record); err != nil {
			a.logger.Error("metric flush failed",
				"bucket", record.Bucket, "err", err)
		}
	}
}

// recordFromEvent converts one session outcome into a single-session
// realtime record keyed by the minute it completed in.
func recordFromEvent(event core.SessionEvent) *core.MetricRecord {
	record := &core.MetricRecord{
		Bucket:          event.CompletedAt.UTC().Truncate(time.Minute),
		Granularity:     core.GranularityRealtime,
		Sessions:        1,
		AtomsCreated:    event.AtomsCreated,
		AtomsFailed:     event.AtomsFailed,
		TotalDurationMs: event.DurationMs,
	}
	switch event.Status {
	case core.SessionSuccess:
		record.Succeeded = 1
	case core.SessionPartial:
		record.Partial = 1
	default:
		record.Failed = 1
	}
	return record
}
