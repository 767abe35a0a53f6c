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
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// Rollup derives hourly buckets from realtime ones and daily buckets from
// hourly ones. Only completed periods are rolled; the watermark is the most
// recent bucket already present at the coarser granularity, so re-running
// never double-counts.
type Rollup struct {
	metrics   storage.MetricsRepository
	sink      metricSink
	interval  time.Duration
	now       func() time.Time
	logger    *slog.Logger
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// RollupOption configures a Rollup.
type RollupOption func(*Rollup)

// WithRollupInterval sets how often the job runs. Default: 10 minutes.
func WithRollupInterval(d time.Duration) RollupOption {
	return func(r *Rollup) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRollupClock sets the clock. Intended for tests.
func WithRollupClock(now func() time.Time) RollupOption {
	return func(r *Rollup) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRollup creates the rollup job. Reads come straight from the primary
// metrics repository; writes go through the storage manager like any other
// record.
func NewRollup(metrics storage.MetricsRepository, sink metricSink, opts ...RollupOption) *Rollup {
	r := &Rollup{
		metrics:  metrics,
		sink:     sink,
		interval: 10 * time.Minute,
		now:      time.Now,
		logger:   slog.Default().With("component", "rollup"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the periodic job.
func (r *Rollup) Start() {
	r.startOnce.Do(func() {
		go r.loop()
	})
}

// Close stops the periodic job.
func (r *Rollup) Close() error {
	r.closeOnce.Do(func() {
		close(r.stop)
		r.startOnce.Do(func() { close(r.done) }) // never started
		<-r.done
	})
	return nil
}

func (r *Rollup) loop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RunOnce(context.Background()); err != nil {
				r.logger.Error("rollup run failed", "err", err)
			}
		case <-r.stop:
			return
		}
	}
}

// RunOnce rolls all completed periods up one level: realtime into hourly,
// then hourly into daily.
func (r *Rollup) RunOnce(ctx context.Context) error {
	if err := r.rollLevel(ctx, core.GranularityRealtime, core.GranularityHourly, time.Hour); err != nil {
		return fmt.Errorf("hourly rollup: %w", err)
	}
	if err := r.rollLevel(ctx, core.GranularityHourly, core.GranularityDaily, 24*time.Hour); err != nil {
		return fmt.Errorf("daily rollup: %w", err)
	}
	return nil
}

// epochFloor is the lower bound for watermark scans. The zero time.Time
// encodes to a negative microsecond count and would break key ordering.
var epochFloor = time.Unix(0, 0).UTC()

func (r *Rollup) rollLevel(ctx context.Context, from, to core.Granularity, span time.Duration) error {
	now := r.now().UTC()
	end := now.Truncate(span) // current incomplete period stays out

	start, ok, err := r.nextPeriod(ctx, from, to, span, end)
	if err != nil || !ok {
		return err
	}

	for period := start; period.Before(end); period = period.Add(span) {
		sources, err := r.metrics.RangeMetrics(ctx, from, period, period.Add(span))
		if err != nil {
			return err
		}
		if len(sources) == 0 {
			continue
		}

		record := &core.MetricRecord{Bucket: period, Granularity: to}
		for _, source := range sources {
			record.Fold(source)
		}
		if _, err := r.sink.WriteMetric(ctx, record); err != nil {
			return err
		}
		r.logger.Debug("rolled up period",
			"granularity", to.String(), "bucket", period, "sessions", record.Sessions)
	}
	return nil
}

// nextPeriod returns the first period that still needs rolling: the one
// after the newest existing coarse bucket, or the period of the earliest
// fine-grained bucket when no coarse bucket exists yet.
func (r *Rollup) nextPeriod(ctx context.Context, from, to core.Granularity, span time.Duration, end time.Time) (time.Time, bool, error) {
	coarse, err := r.metrics.RangeMetrics(ctx, to, epochFloor, end.Add(span))
	if err != nil {
		return time.Time{}, false, err
	}
	if len(coarse) > 0 {
		return coarse[len(coarse)-1].Bucket.Add(span), true, nil
	}

	fine, err := r.metrics.RangeMetrics(ctx, from, epochFloor, end)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(fine) == 0 {
		return time.Time{}, false, nil
	}
	return fine[0].Bucket.Truncate(span), true, nil
}
