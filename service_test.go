package atomforge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	config := DefaultConfig(t.TempDir())
	config.InMemory = true

	s, err := New(config)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestServiceEnqueue(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ack, err := s.Enqueue(ctx, "https://docs.example/vfd-manual", 70)
	require.NoError(t, err)
	assert.NotZero(t, ack.SourceID)
	assert.Equal(t, 1, ack.Rank)
	assert.False(t, ack.Merged)

	// Re-submission merges instead of duplicating.
	again, err := s.Enqueue(ctx, "https://docs.example/vfd-manual", 40)
	require.NoError(t, err)
	assert.Equal(t, ack.SourceID, again.SourceID)
	assert.True(t, again.Merged)
}

func TestServiceRecordGap(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	gap, err := s.RecordGap(ctx, "siemens:drive", 0.8)
	require.NoError(t, err)
	assert.Equal(t, "siemens:drive", gap.TopicKey)
	assert.Equal(t, 1, gap.RequestCount)

	gap, err = s.RecordGap(ctx, "siemens:drive", 0.9)
	require.NoError(t, err)
	assert.Equal(t, 2, gap.RequestCount)
}

func TestServiceReconcileEmpty(t *testing.T) {
	s := newTestService(t)

	replayed, err := s.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, replayed)
}
