package core

import (
	"math/rand"
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "same content produces same ID",
			content: "https://example.com/manual.html",
		},
		{
			name:    "empty string",
			content: "",
		},
		{
			name:    "long content",
			content: "This is a much longer piece of content that should still hash consistently",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("https://example.com/a")
	id2 := IDFromContent("https://example.com/b")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		created int
		failed  int
		want    SessionStatus
	}{
		{name: "all atoms created", created: 5, failed: 0, want: SessionSuccess},
		{name: "some atoms failed", created: 4, failed: 1, want: SessionPartial},
		{name: "nothing created", created: 0, failed: 3, want: SessionFailed},
		{name: "nothing at all", created: 0, failed: 0, want: SessionFailed},
		{name: "single atom", created: 1, failed: 0, want: SessionSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.created, tt.failed); got != tt.want {
				t.Errorf("DeriveStatus(%d, %d) = %v, want %v", tt.created, tt.failed, got, tt.want)
			}
		})
	}
}

// The status invariant must hold for arbitrary count pairs: success iff
// failed==0 and created>0, partial iff both positive, failed iff created==0.
func TestDeriveStatus_Invariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		created := rng.Intn(50)
		failed := rng.Intn(50)

		status := DeriveStatus(created, failed)

		gotSuccess := status == SessionSuccess
		wantSuccess := failed == 0 && created > 0
		if gotSuccess != wantSuccess {
			t.Fatalf("created=%d failed=%d: success=%v, want %v", created, failed, gotSuccess, wantSuccess)
		}

		gotPartial := status == SessionPartial
		wantPartial := created > 0 && failed > 0
		if gotPartial != wantPartial {
			t.Fatalf("created=%d failed=%d: partial=%v, want %v", created, failed, gotPartial, wantPartial)
		}

		gotFailed := status == SessionFailed
		wantFailed := created == 0
		if gotFailed != wantFailed {
			t.Fatalf("created=%d failed=%d: failed=%v, want %v", created, failed, gotFailed, wantFailed)
		}
	}
}

func TestGapRequest_Score(t *testing.T) {
	tests := []struct {
		name string
		gap  GapRequest
		want float64
	}{
		{
			name: "single low-confidence request",
			gap:  GapRequest{RequestCount: 1, MaxConfidence: 0.3},
			want: 40,
		},
		{
			name: "three requests capped at 100",
			gap:  GapRequest{RequestCount: 3, MaxConfidence: 0.9},
			want: 100,
		},
		{
			name: "zero confidence",
			gap:  GapRequest{RequestCount: 2, MaxConfidence: 0},
			want: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.gap.Score(); got != tt.want {
				t.Errorf("Score() = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestQueueStatus_Terminal(t *testing.T) {
	if QueuePending.Terminal() || QueueProcessing.Terminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !QueueCompleted.Terminal() || !QueueFailed.Terminal() {
		t.Error("completed/failed must be terminal")
	}
}

func TestBackoff(t *testing.T) {
	if got := Backoff(1); got != 2*time.Second {
		t.Errorf("Backoff(1) = %v, want 2s", got)
	}
	if got := Backoff(2); got != 4*time.Second {
		t.Errorf("Backoff(2) = %v, want 4s", got)
	}
	if got := Backoff(3); got != 8*time.Second {
		t.Errorf("Backoff(3) = %v, want 8s", got)
	}
	if got := Backoff(30); got != 60*time.Second {
		t.Errorf("Backoff(30) = %v, want cap 60s", got)
	}
	if got := Backoff(0); got != 2*time.Second {
		t.Errorf("Backoff(0) = %v, want 2s", got)
	}
}

func TestMetricRecord_Fold(t *testing.T) {
	m := MetricRecord{Sessions: 1, Succeeded: 1, AtomsCreated: 3, TotalDurationMs: 100}
	m.Fold(&MetricRecord{Sessions: 2, Partial: 1, Failed: 1, AtomsCreated: 2, AtomsFailed: 1, TotalDurationMs: 250})

	if m.Sessions != 3 || m.Succeeded != 1 || m.Partial != 1 || m.Failed != 1 {
		t.Errorf("unexpected session counts after fold: %+v", m)
	}
	if m.AtomsCreated != 5 || m.AtomsFailed != 1 || m.TotalDurationMs != 350 {
		t.Errorf("unexpected atom counts after fold: %+v", m)
	}
}
