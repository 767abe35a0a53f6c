package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/atomforge/atomforge/core"
	badgerstore "github.com/atomforge/atomforge/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func newTestLimiter(t *testing.T, clock *fakeClock) (*Limiter, *badgerstore.Stores) {
	t.Helper()
	stores, err := badgerstore.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	limiter, err := New(stores.RateState, WithClock(clock.Now))
	require.NoError(t, err)
	return limiter, stores
}

func TestSpacingEnforced(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter, stores := newTestLimiter(t, clock)
	ctx := context.Background()

	// Seed a 6s delay for the domain.
	require.NoError(t, stores.RateState.PutRateState(ctx, &core.DomainRateState{
		Domain: "example.com",
		Delay:  6 * time.Second,
	}))

	ok, err := limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, limiter.RecordRequest(ctx, "example.com"))

	// Two seconds later the second claim must be deferred.
	clock.Advance(2 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// At the 6 second mark it goes through.
	clock.Advance(4 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnseenDomainGetsDefaultDelay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	// First request to an unseen domain is allowed.
	ok, err := limiter.MayDequeue(ctx, "new.example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, limiter.RecordRequest(ctx, "new.example.com"))

	// The conservative default now gates the second request.
	clock.Advance(5 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "new.example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	clock.Advance(5 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "new.example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBlockSuspendsUntilCleared(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	until := clock.now.Add(time.Minute)
	require.NoError(t, limiter.Block(ctx, "example.com", until))

	ok, err := limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// A block overrides elapsed spacing.
	clock.Advance(30 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	// After the block clears naturally, requests resume.
	clock.Advance(31 * time.Second)
	ok, err = limiter.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStatePersistsAcrossLimiters(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter, stores := newTestLimiter(t, clock)
	ctx := context.Background()

	require.NoError(t, limiter.RecordRequest(ctx, "example.com"))

	// A second limiter over the same repository sees the recorded request.
	fresh, err := New(stores.RateState, WithClock(clock.Now))
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	ok, err := fresh.MayDequeue(ctx, "example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	state, err := stores.RateState.GetRateState(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), state.TotalRequests)
}

func TestLocalDomainNeverThrottled(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	limiter, _ := newTestLimiter(t, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ok, err := limiter.MayDequeue(ctx, LocalDomain)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, limiter.RecordRequest(ctx, LocalDomain))
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"https://Example.COM/manual.pdf", "example.com"},
		{"http://docs.example.com:8080/page", "docs.example.com"},
		{"gap:siemens:drive", "local"},
		{"plain text body", "local"},
		{"https://", "local"},
	}
	for _, tt := range tests {
		if got := Domain(tt.source); got != tt.want {
			t.Fatalf("Domain(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
