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

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/ingestion"
	"github.com/atomforge/atomforge/queue"
	"github.com/atomforge/atomforge/ratelimit"
)

// sessionRunner is the slice of the pipeline the scheduler drives.
type sessionRunner interface {
	Run(ctx context.Context, entry *core.QueueEntry) (*core.IngestionSession, error)
}

var _ sessionRunner = (*ingestion.Runner)(nil)

// Config holds scheduling settings.
type Config struct {
	// Workers is the fixed worker pool size. Default: 10.
	Workers int

	// PollInterval is the idle wait between claim attempts when the
	// backlog is empty or throttled. Default: 1s.
	PollInterval time.Duration

	// FailureThreshold is the number of consecutive transient failures
	// for one domain before it is blocked. Default: 3.
	FailureThreshold int

	// BlockDuration is how long a misbehaving domain stays blocked.
	// Default: 5m.
	BlockDuration time.Duration
}

// DefaultConfig returns the production scheduling settings.
func DefaultConfig() Config {
	return Config{
		Workers:          10,
		PollInterval:     time.Second,
		FailureThreshold: 3,
		BlockDuration:    5 * time.Minute,
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.New("scheduler config: Workers must be at least 1")
	}
	if c.PollInterval <= 0 {
		return errors.New("scheduler config: PollInterval must be positive")
	}
	if c.FailureThreshold < 1 {
		return errors.New("scheduler config: FailureThreshold must be at least 1")
	}
	if c.BlockDuration <= 0 {
		return errors.New("scheduler config: BlockDuration must be positive")
	}
	return nil
}

// Scheduler claims queue entries and runs pipeline sessions on a fixed-size
// worker pool. Claims are atomic, so each entry is processed by exactly one
// worker; per-domain spacing is enforced before a claim is handed to a
// worker, and entries that are not yet allowed to run are released back to
// pending without counting an attempt.
type Scheduler struct {
	queue   *queue.Queue
	limiter *ratelimit.Limiter
	runner  sessionRunner
	pool    *ants.Pool
	config  Config
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	failures map[string]int

	inflight  sync.WaitGroup
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig replaces the default settings.
func WithConfig(config Config) Option {
	return func(s *Scheduler) {
		s.config = config
	}
}

// WithClock sets the clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Scheduler. Call Start to begin claiming and Close for a
// graceful stop that waits for in-flight sessions.
func New(q *queue.Queue, limiter *ratelimit.Limiter, runner sessionRunner, opts ...Option) (*Scheduler, error) {
	if q == nil || limiter == nil || runner == nil {
		return nil, errors.New("scheduler: queue, limiter and runner are required")
	}

	s := &Scheduler{
		queue:    q,
		limiter:  limiter,
		runner:   runner,
		config:   DefaultConfig(),
		now:      time.Now,
		logger:   slog.Default().With("component", "scheduler"),
		failures: make(map[string]int),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(s.config.Workers)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Start launches the claim loop.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		go s.loop()
	})
}

// Close stops claiming, waits for in-flight sessions and releases the pool.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.startOnce.Do(func() { close(s.done) }) // never started
		<-s.done
		s.inflight.Wait()
		s.pool.Release()
	})
	return nil
}

func (s *Scheduler) loop() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		dispatched, err := s.Poll(context.Background())
		if err != nil {
			s.logger.Error("claim poll failed", "err", err)
		}
		if dispatched == 0 {
			select {
			case <-s.stop:
				return
			case <-time.After(s.config.PollInterval):
			}
		}
	}
}

// Poll claims up to the free worker capacity and dispatches what the rate
// limiter allows. Returns the number of sessions handed to workers.
func (s *Scheduler) Poll(ctx context.Context) (int, error) {
	free := s.pool.Free()
	if free < 1 {
		return 0, nil
	}

	entries, err := s.queue.Claim(ctx, free)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, entry := range entries {
		domain := ratelimit.Domain(entry.Source)

		allowed, err := s.limiter.MayDequeue(ctx, domain)
		if err != nil {
			s.logger.Warn("rate check failed", "domain", domain, "err", err)
		}
		if !allowed {
			// Not this entry's turn yet: back to pending without
			// counting an attempt.
			if rerr := s.queue.Release(ctx, entry.SourceID); rerr != nil {
				s.logger.Error("release failed",
					"source_id", uint64(entry.SourceID), "err", rerr)
			}
			continue
		}
		if err := s.limiter.RecordRequest(ctx, domain); err != nil {
			s.logger.Warn("rate state update failed", "domain", domain, "err", err)
		}

		s.inflight.Add(1)
		if err := s.pool.Submit(func() {
			defer s.inflight.Done()
			s.process(entry, domain)
		}); err != nil {
			s.inflight.Done()
			if rerr := s.queue.Release(ctx, entry.SourceID); rerr != nil {
				s.logger.Error("release failed",
					"source_id", uint64(entry.SourceID), "err", rerr)
			}
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

// process runs one session and records the queue outcome. A session is
// "succeeded" for retry purposes when no stage aborted it; partial results
// complete the entry.
func (s *Scheduler) process(entry *core.QueueEntry, domain string) {
	ctx := context.Background()

	_, runErr := s.runner.Run(ctx, entry)
	if cerr := s.queue.Complete(ctx, entry.SourceID, runErr == nil); cerr != nil {
		s.logger.Error("complete failed",
			"source_id", uint64(entry.SourceID), "err", cerr)
	}

	if errors.Is(runErr, ingestion.ErrTransient) {
		s.noteTransientFailure(ctx, domain)
		return
	}
	s.clearFailures(domain)
}

// noteTransientFailure counts consecutive network failures per domain and
// blocks the domain once the threshold is reached. A blocked domain's
// pending entries stay queued until the block expires.
func (s *Scheduler) noteTransientFailure(ctx context.Context, domain string) {
	if domain == ratelimit.LocalDomain {
		return
	}

	s.mu.Lock()
	s.failures[domain]++
	count := s.failures[domain]
	if count >= s.config.FailureThreshold {
		delete(s.failures, domain)
	}
	s.mu.Unlock()

	if count < s.config.FailureThreshold {
		return
	}

	until := s.now().Add(s.config.BlockDuration)
	if err := s.limiter.Block(ctx, domain, until); err != nil {
		s.logger.Error("domain block failed", "domain", domain, "err", err)
		return
	}
	s.logger.Warn("domain blocked after repeated failures",
		"domain", domain, "until", until)
}

func (s *Scheduler) clearFailures(domain string) {
	s.mu.Lock()
	delete(s.failures, domain)
	s.mu.Unlock()
}
