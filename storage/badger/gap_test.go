package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

func TestGapRoundTrip(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	now := time.Now().UTC()
	gap := &core.GapRequest{
		TopicKey:      "acme:widgets",
		RequestCount:  2,
		MaxConfidence: 0.8,
		FirstSeenAt:   now.Add(-time.Hour),
		LastSeenAt:    now,
	}
	gap.PriorityScore = gap.Score()

	if err := stores.Gaps.PutGap(ctx, gap); err != nil {
		t.Fatalf("Failed to put gap: %v", err)
	}

	got, err := stores.Gaps.GetGap(ctx, "acme:widgets")
	if err != nil {
		t.Fatalf("Failed to get gap: %v", err)
	}
	if got.RequestCount != 2 {
		t.Fatalf("Expected request count 2, got %d", got.RequestCount)
	}
	if got.PriorityScore != 100 {
		t.Fatalf("Expected score 100, got %v", got.PriorityScore)
	}

	// Upsert keeps a single record per topic.
	got.RequestCount++
	got.LastSeenAt = now.Add(time.Minute)
	if err := stores.Gaps.PutGap(ctx, got); err != nil {
		t.Fatalf("Failed to upsert gap: %v", err)
	}
	again, err := stores.Gaps.GetGap(ctx, "acme:widgets")
	if err != nil {
		t.Fatalf("Failed to get gap: %v", err)
	}
	if again.RequestCount != 3 {
		t.Fatalf("Expected request count 3, got %d", again.RequestCount)
	}

	if _, err := stores.Gaps.GetGap(ctx, "acme:unknown"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestGapRejectsMalformedTopic(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	gap := &core.GapRequest{TopicKey: "no-separator", RequestCount: 1}
	if err := stores.Gaps.PutGap(ctx, gap); !errors.Is(err, core.ErrInvalidTopicKey) {
		t.Fatalf("Expected ErrInvalidTopicKey, got %v", err)
	}
}

func TestRateStateRoundTrip(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	state := &core.DomainRateState{
		Domain:        "docs.example.com",
		Delay:         6 * time.Second,
		LastRequestAt: time.Now().UTC(),
		TotalRequests: 17,
	}
	if err := stores.RateState.PutRateState(ctx, state); err != nil {
		t.Fatalf("Failed to put rate state: %v", err)
	}

	got, err := stores.RateState.GetRateState(ctx, "docs.example.com")
	if err != nil {
		t.Fatalf("Failed to get rate state: %v", err)
	}
	if got.Delay != 6*time.Second {
		t.Fatalf("Expected 6s delay, got %v", got.Delay)
	}
	if got.TotalRequests != 17 {
		t.Fatalf("Expected 17 requests, got %d", got.TotalRequests)
	}

	if _, err := stores.RateState.GetRateState(ctx, "unseen.example.com"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestVerdictCache(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	verdict := &core.Verdict{
		SourceID:  core.ID(42),
		Accept:    false,
		Score:     40,
		Reason:    "insufficient technical density",
		Language:  "en",
		CheckedAt: time.Now().UTC(),
	}
	if err := stores.Validation.PutVerdict(ctx, verdict, time.Hour); err != nil {
		t.Fatalf("Failed to put verdict: %v", err)
	}

	got, err := stores.Validation.GetVerdict(ctx, core.ID(42))
	if err != nil {
		t.Fatalf("Failed to get verdict: %v", err)
	}
	if got.Accept {
		t.Fatal("Expected rejection to survive the cache")
	}
	if got.Score != 40 {
		t.Fatalf("Expected score 40, got %v", got.Score)
	}

	if _, err := stores.Validation.GetVerdict(ctx, core.ID(99)); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on miss, got %v", err)
	}
}
