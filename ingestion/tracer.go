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
	"log/slog"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/google/uuid"
)

// traceSink is the narrow write surface the tracer needs.
type traceSink interface {
	WriteTrace(ctx context.Context, trace *core.AgentTrace) (degraded bool, err error)
}

var _ traceSink = (*storage.Manager)(nil)

// StageRecorder collects side-channel metadata from inside a traced call.
// The wrapped function attaches token counts and cost before the trace is
// finalized.
type StageRecorder struct {
	tokens int
	cost   float64
}

// AddTokens accumulates tokens consumed by the wrapped call.
func (r *StageRecorder) AddTokens(n int) {
	r.tokens += n
}

// AddCost accumulates the dollar cost of the wrapped call.
func (r *StageRecorder) AddCost(usd float64) {
	r.cost += usd
}

// Tracer wraps every stage and external call of a session, emitting exactly
// one trace per execution, success or not. Trace writing never aborts the
// pipeline: a failed write is logged and forgotten.
type Tracer struct {
	sink   traceSink
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// TracerOption configures a Tracer.
type TracerOption func(*Tracer)

// WithTracerClock sets the clock.
func WithTracerClock(now func() time.Time) TracerOption {
	return func(t *Tracer) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracer creates a Tracer writing through the storage manager.
func NewTracer(sink traceSink, opts ...TracerOption) *Tracer {
	t := &Tracer{
		sink:   sink,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default().With("component", "tracer"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run invokes fn wrapped in trace bookkeeping and returns fn's error
// unchanged. Exactly one trace is recorded whether fn succeeds, fails, or
// panics; a panic is re-raised after the trace is written.
func (t *Tracer) Run(ctx context.Context, sessionID, stage string, fn func(ctx context.Context, rec *StageRecorder) error) error {
	rec := &StageRecorder{}
	started := t.now()

	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.write(ctx, sessionID, stage, started, rec, false, "panic in stage")
				panic(r)
			}
		}()
		runErr = fn(ctx, rec)
	}()

	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	t.write(ctx, sessionID, stage, started, rec, runErr == nil, msg)
	return runErr
}

func (t *Tracer) write(ctx context.Context, sessionID, stage string, started time.Time, rec *StageRecorder, success bool, errMsg string) {
	trace := &core.AgentTrace{
		TraceID:      t.newID(),
		SessionID:    sessionID,
		Stage:        stage,
		DurationMs:   t.now().Sub(started).Milliseconds(),
		Success:      success,
		ErrorMessage: errMsg,
		TokensUsed:   rec.tokens,
		CostUSD:      rec.cost,
		StartedAt:    started.UTC(),
	}

	// Write with a context detached from the stage's own deadline so a
	// timed-out stage still gets its trace recorded.
	if _, err := t.sink.WriteTrace(context.WithoutCancel(ctx), trace); err != nil {
		t.logger.Error("trace write failed",
			"session_id", sessionID,
			"stage", stage,
			"err", err)
	}
}
