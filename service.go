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

package atomforge

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/atomforge/atomforge/ai"
	"github.com/atomforge/atomforge/ai/openai"
	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/ingestion"
	"github.com/atomforge/atomforge/metrics"
	"github.com/atomforge/atomforge/notify"
	"github.com/atomforge/atomforge/queue"
	"github.com/atomforge/atomforge/ratelimit"
	"github.com/atomforge/atomforge/scheduler"
	"github.com/atomforge/atomforge/storage"
	"github.com/atomforge/atomforge/storage/badger"
	"github.com/atomforge/atomforge/storage/sqlite"
)

// Config assembles the settings of every component. Zero values fall back
// to each component's defaults.
type Config struct {
	// DataDir is the root directory for all local state: the badger
	// primary store, the sqlite archive tier and the failover log.
	DataDir string

	// InMemory runs the primary store without a disk footprint and skips
	// the archive tier. Intended for tests.
	InMemory bool

	// WebhookURL enables outbound notifications when non-empty.
	WebhookURL string

	AI         *ai.Config
	Runner     ingestion.RunnerConfig
	Validator  ingestion.ValidatorConfig
	RateLimit  ratelimit.Config
	Aggregator metrics.AggregatorConfig
	Dispatcher notify.DispatcherConfig
	Scheduler  scheduler.Config
}

// DefaultConfig returns the production assembly settings.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:    dataDir,
		AI:         ai.DefaultConfig(),
		Runner:     ingestion.DefaultRunnerConfig(),
		Validator:  ingestion.DefaultValidatorConfig(),
		RateLimit:  ratelimit.DefaultConfig(),
		Aggregator: metrics.DefaultAggregatorConfig(),
		Dispatcher: notify.DefaultDispatcherConfig(),
		Scheduler:  scheduler.DefaultConfig(),
	}
}

// Service wires the whole ingestion system together: the durable queue and
// gap collector feeding it, the pipeline runner, tiered storage, metrics
// and notifications, and the scheduler that drives everything.
type Service struct {
	backend    *badger.Backend
	queueRepo  storage.QueueRepository
	gapRepo    storage.GapRepository
	metricRepo storage.MetricsRepository
	validation storage.ValidationRepository
	rateStates storage.RateStateRepository

	archive    *sqlite.Store
	manager    *storage.Manager
	provider   ai.Provider
	queue      *queue.Queue
	collector  *queue.Collector
	limiter    *ratelimit.Limiter
	runner     *ingestion.Runner
	aggregator *metrics.Aggregator
	rollup     *metrics.Rollup
	dispatcher *notify.Dispatcher
	scheduler  *scheduler.Scheduler

	logger *slog.Logger
}

// New assembles a Service from the configuration. Nothing runs until Start
// is called.
func New(config Config) (*Service, error) {
	logger := slog.Default().With("component", "service")

	badgerPath := ""
	if !config.InMemory {
		badgerPath = filepath.Join(config.DataDir, "badger")
	}
	backend, err := badger.OpenBackend(badgerPath, config.InMemory)
	if err != nil {
		return nil, err
	}

	s := &Service{
		backend:    backend,
		queueRepo:  badger.NewQueueRepository(backend),
		gapRepo:    badger.NewGapRepository(backend),
		metricRepo: badger.NewMetricsRepository(backend),
		validation: badger.NewValidationRepository(backend),
		rateStates: badger.NewRateStateRepository(backend),
		logger:     logger,
	}

	tiers := []storage.RecordStore{badger.NewStore(backend)}
	if !config.InMemory {
		archive, err := sqlite.Open(filepath.Join(config.DataDir, "archive.db"))
		if err != nil {
			backend.Close()
			return nil, err
		}
		s.archive = archive
		tiers = append(tiers, archive)
	}

	faillog, err := storage.NewFailoverLog(filepath.Join(config.DataDir, "failover.log"))
	if err != nil {
		s.closePartial()
		return nil, err
	}
	s.manager = storage.NewManager(faillog, tiers)

	aiConfig := config.AI
	if aiConfig == nil {
		aiConfig = ai.DefaultConfig()
	}
	s.provider, err = openai.NewProvider(aiConfig)
	if err != nil {
		s.closePartial()
		return nil, err
	}

	s.queue = queue.New(s.queueRepo)
	s.collector, err = queue.NewCollector(s.gapRepo, s.queue)
	if err != nil {
		s.closePartial()
		return nil, err
	}
	s.limiter, err = ratelimit.New(s.rateStates, ratelimit.WithConfig(config.RateLimit))
	if err != nil {
		s.closePartial()
		return nil, err
	}

	s.aggregator, err = metrics.NewAggregator(s.manager,
		metrics.WithAggregatorConfig(config.Aggregator))
	if err != nil {
		s.closePartial()
		return nil, err
	}
	s.rollup = metrics.NewRollup(s.metricRepo, s.manager)

	sinks := []ingestion.RunnerOption{ingestion.WithEventSink(s.aggregator)}
	if config.WebhookURL != "" {
		s.dispatcher, err = notify.NewDispatcher(
			notify.NewWebhookSender(config.WebhookURL),
			notify.WithDispatcherConfig(config.Dispatcher))
		if err != nil {
			s.closePartial()
			return nil, err
		}
		sinks = append(sinks, ingestion.WithEventSink(s.dispatcher))
	}

	validator, err := ingestion.NewValidator(s.validation,
		ingestion.WithValidatorConfig(config.Validator))
	if err != nil {
		s.closePartial()
		return nil, err
	}
	s.runner, err = ingestion.NewRunner(
		ingestion.NewAcquirer(),
		validator,
		ingestion.NewTracer(s.manager),
		s.provider,
		s.manager,
		append(sinks, ingestion.WithRunnerConfig(config.Runner))...,
	)
	if err != nil {
		s.closePartial()
		return nil, err
	}

	s.scheduler, err = scheduler.New(s.queue, s.limiter, s.runner,
		scheduler.WithConfig(config.Scheduler))
	if err != nil {
		s.closePartial()
		return nil, err
	}

	return s, nil
}

// Start launches the background machinery: storage health checks, metric
// flushing and rollups, notification delivery and the claim loop.
func (s *Service) Start() {
	s.manager.Start()
	s.aggregator.Start()
	s.rollup.Start()
	if s.dispatcher != nil {
		s.dispatcher.Start()
	}
	s.scheduler.Start()
	s.logger.Info("service started")
}

// Close shuts everything down in dependency order: stop claiming first,
// then drain the event consumers, then close storage.
func (s *Service) Close() error {
	if s.scheduler != nil {
		s.scheduler.Close()
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.rollup != nil {
		s.rollup.Close()
	}
	if s.aggregator != nil {
		s.aggregator.Close()
	}
	return s.closePartial()
}

// closePartial tears down storage and the AI provider. Safe on a partially
// constructed service.
func (s *Service) closePartial() error {
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Error("error closing AI provider", "err", err)
		}
	}

	var firstErr error
	if s.manager != nil {
		// Closes the tiers, including the sqlite archive.
		if err := s.manager.Close(); err != nil {
			firstErr = err
		}
	} else if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			firstErr = err
		}
	}

	s.queueRepo.Close()
	s.gapRepo.Close()
	s.metricRepo.Close()
	s.validation.Close()
	s.rateStates.Close()

	if err := s.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Enqueue submits a source for ingestion and reports its claim-order rank.
func (s *Service) Enqueue(ctx context.Context, source string, priority float64) (queue.Ack, error) {
	return s.queue.Enqueue(ctx, source, priority)
}

// RecordGap registers one low-coverage query signal.
func (s *Service) RecordGap(ctx context.Context, topicKey string, confidence float64) (*core.GapRequest, error) {
	return s.collector.RecordGap(ctx, topicKey, confidence)
}

// Reconcile replays the failover log into the healthiest storage tier.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	return s.manager.Reconcile(ctx)
}

// Metrics exposes the metric buckets for reporting.
func (s *Service) Metrics() storage.MetricsRepository {
	return s.metricRepo
}

// Queue exposes the backlog for inspection.
func (s *Service) Queue() *queue.Queue {
	return s.queue
}
