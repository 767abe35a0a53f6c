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

package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atomforge/atomforge/ai"
	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// EventSink consumes completed-session events. The metrics aggregator and
// the notification dispatcher both implement it.
type EventSink interface {
	SessionCompleted(event core.SessionEvent)
}

// RunnerConfig bounds a single pipeline run.
type RunnerConfig struct {
	// SessionCeiling is the hard wall-clock limit for one session. A run
	// that exceeds it is marked failed with the timeout stage; atoms
	// written before the ceiling are kept.
	SessionCeiling time.Duration

	// AcquireTimeout bounds one acquisition attempt.
	AcquireTimeout time.Duration

	// ModelTimeout bounds each generation, quality and embedding call.
	ModelTimeout time.Duration

	// Chunker bounds chunk sizes.
	Chunker ChunkerConfig
}

// DefaultRunnerConfig returns the pipeline limits used in production.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		SessionCeiling: 120 * time.Second,
		AcquireTimeout: 30 * time.Second,
		ModelTimeout:   15 * time.Second,
		Chunker:        DefaultChunkerConfig(),
	}
}

// Validate checks the configuration for usability.
func (c *RunnerConfig) Validate() error {
	if c.SessionCeiling <= 0 {
		return errors.New("runner config: SessionCeiling must be positive")
	}
	if c.AcquireTimeout <= 0 {
		return errors.New("runner config: AcquireTimeout must be positive")
	}
	if c.ModelTimeout <= 0 {
		return errors.New("runner config: ModelTimeout must be positive")
	}
	return nil
}

// Runner executes the ingestion pipeline for one queue entry at a time:
// acquire, validate, extract, chunk, generate, quality-check, embed, store.
// Stage failures before the per-chunk fan-out abort the session; failures
// after it stay local to the chunk or atom and drive the partial status.
type Runner struct {
	acquirer  *Acquirer
	validator *Validator
	tracer    *Tracer
	provider  ai.Provider
	manager   *storage.Manager
	sinks     []EventSink
	config    RunnerConfig
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerConfig replaces the default limits.
func WithRunnerConfig(config RunnerConfig) RunnerOption {
	return func(r *Runner) {
		r.config = config
	}
}

// WithEventSink registers a consumer for completed-session events.
// May be given multiple times.
func WithEventSink(sink EventSink) RunnerOption {
	return func(r *Runner) {
		if sink != nil {
			r.sinks = append(r.sinks, sink)
		}
	}
}

// WithRunnerClock sets the clock. Intended for tests.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.now = now
	}
}

// WithRunnerLogger sets a custom logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a pipeline runner.
func NewRunner(
	acquirer *Acquirer,
	validator *Validator,
	tracer *Tracer,
	provider ai.Provider,
	manager *storage.Manager,
	opts ...RunnerOption,
) (*Runner, error) {
	if acquirer == nil || validator == nil || tracer == nil {
		return nil, errors.New("runner: acquirer, validator and tracer are required")
	}
	if provider == nil {
		return nil, errors.New("runner: ai provider is required")
	}
	if manager == nil {
		return nil, errors.New("runner: storage manager is required")
	}

	r := &Runner{
		acquirer:  acquirer,
		validator: validator,
		tracer:    tracer,
		provider:  provider,
		manager:   manager,
		config:    DefaultRunnerConfig(),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Run executes the full pipeline for one queue entry and returns the
// terminal session record. The returned session is always written to
// storage before Run returns, even when a stage fails.
func (r *Runner) Run(ctx context.Context, entry *core.QueueEntry) (*core.IngestionSession, error) {
	started := r.now()
	session := &core.IngestionSession{
		SessionID: r.newID(),
		SourceID:  entry.SourceID,
		Status:    core.SessionProcessing,
		StartedAt: started,
	}
	if _, err := r.manager.WriteSession(ctx, session); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.config.SessionCeiling)
	defer cancel()

	created, failed, stage, stageErr := r.stages(runCtx, session, entry)

	// The ceiling expiring mid-stage surfaces as a stage error carrying
	// the deadline; reclassify it so the session names the timeout, not
	// whatever stage happened to be running.
	if stageErr != nil && runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		stage = StageTimeout
		stageErr = ErrSessionTimeout
	}

	session.AtomsCreated = created
	session.AtomsFailed = failed
	session.CompletedAt = r.now()
	if stageErr != nil {
		session.Status = core.SessionFailed
		session.ErrorStage = stage
		session.ErrorMessage = stageErr.Error()
	} else {
		session.Status = core.DeriveStatus(created, failed)
		if session.Status == core.SessionFailed {
			session.ErrorMessage = "no atoms survived generation and quality checks"
		}
	}

	// The final write must land even when the run context is dead.
	writeCtx := context.WithoutCancel(ctx)
	if _, err := r.manager.WriteSession(writeCtx, session); err != nil {
		r.logger.Error("failed to finalize session record",
			"session_id", session.SessionID, "err", err)
	}

	event := core.SessionEvent{
		SessionID:    session.SessionID,
		SourceID:     session.SourceID,
		Source:       entry.Source,
		Status:       session.Status,
		AtomsCreated: created,
		AtomsFailed:  failed,
		DurationMs:   session.CompletedAt.Sub(started).Milliseconds(),
		CompletedAt:  session.CompletedAt,
	}
	for _, sink := range r.sinks {
		sink.SessionCompleted(event)
	}

	r.logger.Info("session completed",
		"session_id", session.SessionID,
		"source_id", uint64(session.SourceID),
		"status", session.Status.String(),
		"atoms_created", created,
		"atoms_failed", failed,
		"duration_ms", event.DurationMs)
	return session, stageErr
}

// stages runs the state machine and returns the atom counters plus the
// stage that aborted the session, if any.
func (r *Runner) stages(ctx context.Context, session *core.IngestionSession, entry *core.QueueEntry) (created, failed int, stage string, stageErr error) {
	var raw string
	err := r.tracer.Run(ctx, session.SessionID, StageAcquire, func(ctx context.Context, _ *StageRecorder) error {
		var err error
		raw, err = r.acquirer.Acquire(ctx, entry.Source)
		return err
	})
	if err != nil {
		return 0, 0, StageAcquire, err
	}

	var verdict *core.Verdict
	err = r.tracer.Run(ctx, session.SessionID, StageValidate, func(ctx context.Context, _ *StageRecorder) error {
		var err error
		verdict, err = r.validator.Validate(ctx, entry.SourceID, raw)
		if err != nil {
			return err
		}
		if !verdict.Accept {
			return fmt.Errorf("%w: %s", ErrValidationRejected, verdict.Reason)
		}
		return nil
	})
	if err != nil {
		return 0, 0, StageValidate, err
	}

	var doc Document
	err = r.tracer.Run(ctx, session.SessionID, StageExtract, func(_ context.Context, _ *StageRecorder) error {
		var err error
		doc, err = Extract(raw)
		return err
	})
	if err != nil {
		return 0, 0, StageExtract, err
	}

	var chunks []core.Chunk
	err = r.tracer.Run(ctx, session.SessionID, StageChunk, func(_ context.Context, _ *StageRecorder) error {
		var err error
		chunks, err = SplitChunks(doc.Text, r.config.Chunker)
		return err
	})
	if err != nil {
		return 0, 0, StageChunk, err
	}

	meta := ai.SourceMeta{
		SourceURL: entry.Source,
		Title:     doc.Title,
		Subject:   verdict.Subject,
	}

	var candidates []ai.CandidateAtom
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			return created, failed, StageGenerate, ctx.Err()
		}
		err := r.tracer.Run(ctx, session.SessionID, StageGenerate, func(ctx context.Context, _ *StageRecorder) error {
			ctx, cancel := context.WithTimeout(ctx, r.config.ModelTimeout)
			defer cancel()
			atoms, err := r.provider.Generator().GenerateAtoms(ctx, chunk.Text, meta)
			if err != nil {
				return err
			}
			candidates = append(candidates, atoms...)
			return nil
		})
		if err != nil {
			// One failed chunk counts as one failed atom and the run
			// continues with the remaining chunks.
			failed++
			r.logger.Warn("chunk generation failed",
				"session_id", session.SessionID, "chunk", chunk.Index, "err", err)
		}
	}

	var accepted []ai.CandidateAtom
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			return created, failed, StageQuality, ctx.Err()
		}
		err := r.tracer.Run(ctx, session.SessionID, StageQuality, func(ctx context.Context, _ *StageRecorder) error {
			ctx, cancel := context.WithTimeout(ctx, r.config.ModelTimeout)
			defer cancel()
			result, err := r.provider.QualityChecker().CheckAtom(ctx, candidate)
			if err != nil {
				return err
			}
			if !result.Pass {
				return fmt.Errorf("quality check failed (score %.0f): %s", result.Score, result.Reason)
			}
			return nil
		})
		if err != nil {
			failed++
			r.logger.Info("candidate atom dropped",
				"session_id", session.SessionID, "subject", candidate.Subject, "err", err)
			continue
		}
		accepted = append(accepted, candidate)
	}

	for _, candidate := range accepted {
		if ctx.Err() != nil {
			return created, failed, StageEmbed, ctx.Err()
		}
		atom := &core.Atom{
			Id:        core.IDFromContent(candidate.Subject + "\n" + candidate.Content),
			SessionID: session.SessionID,
			SourceID:  entry.SourceID,
			Subject:   candidate.Subject,
			Content:   candidate.Content,
			CreatedAt: r.now(),
		}

		err := r.tracer.Run(ctx, session.SessionID, StageEmbed, func(ctx context.Context, _ *StageRecorder) error {
			ctx, cancel := context.WithTimeout(ctx, r.config.ModelTimeout)
			defer cancel()
			vector, err := r.provider.Embedder().EmbedText(ctx, candidate.Content)
			if err != nil {
				return err
			}
			atom.Vector = vector
			return nil
		})
		if err != nil {
			failed++
			continue
		}

		err = r.tracer.Run(ctx, session.SessionID, StageStore, func(ctx context.Context, _ *StageRecorder) error {
			degraded, err := r.manager.WriteAtom(ctx, atom)
			if degraded {
				r.logger.Warn("atom write degraded to failover log",
					"session_id", session.SessionID, "atom_id", uint64(atom.Id))
			}
			return err
		})
		if err != nil {
			failed++
			continue
		}
		created++
	}

	// Item-level failures swallow the deadline error; surface it so the
	// session is marked timed out rather than merely failed.
	if err := ctx.Err(); err != nil {
		return created, failed, StageTimeout, err
	}
	return created, failed, "", nil
}
