package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomforge/atomforge/core"
)

// captureSink records traces in memory and can be told to fail.
type captureSink struct {
	traces []*core.AgentTrace
	err    error
}

func (s *captureSink) WriteTrace(_ context.Context, trace *core.AgentTrace) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.traces = append(s.traces, trace)
	return false, nil
}

func TestTracerRecordsSuccess(t *testing.T) {
	sink := &captureSink{}
	tracer := NewTracer(sink)

	err := tracer.Run(context.Background(), "sess-1", StageAcquire, func(_ context.Context, _ *StageRecorder) error {
		return nil
	})
	require.NoError(t, err)

	require.Len(t, sink.traces, 1)
	trace := sink.traces[0]
	assert.Equal(t, "sess-1", trace.SessionID)
	assert.Equal(t, StageAcquire, trace.Stage)
	assert.True(t, trace.Success)
	assert.Empty(t, trace.ErrorMessage)
	assert.NotEmpty(t, trace.TraceID)
}

func TestTracerRecordsFailureAndReturnsError(t *testing.T) {
	sink := &captureSink{}
	tracer := NewTracer(sink)

	stageErr := errors.New("connection refused")
	err := tracer.Run(context.Background(), "sess-1", StageGenerate, func(_ context.Context, _ *StageRecorder) error {
		return stageErr
	})
	assert.ErrorIs(t, err, stageErr)

	require.Len(t, sink.traces, 1)
	assert.False(t, sink.traces[0].Success)
	assert.Equal(t, "connection refused", sink.traces[0].ErrorMessage)
}

func TestTracerRecordsPanicThenRethrows(t *testing.T) {
	sink := &captureSink{}
	tracer := NewTracer(sink)

	assert.Panics(t, func() {
		tracer.Run(context.Background(), "sess-1", StageChunk, func(_ context.Context, _ *StageRecorder) error {
			panic("index out of range")
		})
	})

	require.Len(t, sink.traces, 1)
	assert.False(t, sink.traces[0].Success)
}

func TestTracerSideChannelMetadata(t *testing.T) {
	sink := &captureSink{}
	tracer := NewTracer(sink)

	err := tracer.Run(context.Background(), "sess-1", StageGenerate, func(_ context.Context, rec *StageRecorder) error {
		rec.AddTokens(120)
		rec.AddTokens(30)
		rec.AddCost(0.002)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, sink.traces, 1)
	assert.Equal(t, 150, sink.traces[0].TokensUsed)
	assert.InDelta(t, 0.002, sink.traces[0].CostUSD, 1e-9)
}

func TestTracerMeasuresDuration(t *testing.T) {
	sink := &captureSink{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracer := NewTracer(sink, WithTracerClock(func() time.Time {
		now = now.Add(250 * time.Millisecond)
		return now
	}))

	err := tracer.Run(context.Background(), "sess-1", StageEmbed, func(_ context.Context, _ *StageRecorder) error {
		return nil
	})
	require.NoError(t, err)

	require.Len(t, sink.traces, 1)
	assert.Equal(t, int64(250), sink.traces[0].DurationMs)
}

func TestTracerWriteFailureDoesNotPropagate(t *testing.T) {
	sink := &captureSink{err: errors.New("all tiers down")}
	tracer := NewTracer(sink)

	err := tracer.Run(context.Background(), "sess-1", StageStore, func(_ context.Context, _ *StageRecorder) error {
		return nil
	})
	assert.NoError(t, err)
}
