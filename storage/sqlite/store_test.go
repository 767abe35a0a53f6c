package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := &core.IngestionSession{
		SessionID: "sess-1",
		SourceID:  core.ID(42),
		Status:    core.SessionProcessing,
		StartedAt: started,
	}
	if err := store.WriteSession(ctx, session); err != nil {
		t.Fatalf("Failed to write session: %v", err)
	}

	session.Status = core.SessionSuccess
	session.AtomsCreated = 5
	session.CompletedAt = started.Add(20 * time.Second)
	if err := store.WriteSession(ctx, session); err != nil {
		t.Fatalf("Failed to upsert session: %v", err)
	}

	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Status != core.SessionSuccess {
		t.Fatalf("Expected success status, got %v", got.Status)
	}
	if got.AtomsCreated != 5 {
		t.Fatalf("Expected 5 atoms, got %d", got.AtomsCreated)
	}
	if got.CompletedAt.IsZero() {
		t.Fatal("Expected completed timestamp")
	}

	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestTraceInsertIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trace := &core.AgentTrace{
		TraceID:   "trace-1",
		SessionID: "sess-1",
		Stage:     "generate",
		Success:   true,
		StartedAt: time.Now().UTC(),
	}
	if err := store.WriteTrace(ctx, trace); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}
	// A failover replay may deliver the same trace twice.
	if err := store.WriteTrace(ctx, trace); err != nil {
		t.Fatalf("Expected idempotent replay, got %v", err)
	}
}

func TestAtomVectorRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	atom := &core.Atom{
		Id:        core.IDFromContent("fact"),
		SessionID: "sess-1",
		SourceID:  core.ID(42),
		Subject:   "example",
		Content:   "fact",
		Vector:    []float32{0.25, -1.5, 3.0},
		CreatedAt: time.Now().UTC(),
	}
	if err := store.WriteAtom(ctx, atom); err != nil {
		t.Fatalf("Failed to write atom: %v", err)
	}

	atoms, err := store.GetAtomsBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get atoms: %v", err)
	}
	if len(atoms) != 1 {
		t.Fatalf("Expected 1 atom, got %d", len(atoms))
	}
	got := atoms[0]
	if len(got.Vector) != 3 {
		t.Fatalf("Expected 3 dims, got %d", len(got.Vector))
	}
	for i, v := range atom.Vector {
		if got.Vector[i] != v {
			t.Fatalf("Dim %d: expected %v, got %v", i, v, got.Vector[i])
		}
	}
}

func TestMetricFold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	bucket := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		record := &core.MetricRecord{
			Bucket:          bucket,
			Granularity:     core.GranularityRealtime,
			Sessions:        1,
			Succeeded:       1,
			AtomsCreated:    2,
			TotalDurationMs: 1000,
		}
		if err := store.WriteMetric(ctx, record); err != nil {
			t.Fatalf("Failed to write metric: %v", err)
		}
	}

	var sessions, atoms int
	var duration int64
	row := store.db.QueryRow(`SELECT sessions, atoms_created, total_duration_ms FROM metrics WHERE granularity = ? AND bucket = ?`,
		int(core.GranularityRealtime), bucket.UTC())
	if err := row.Scan(&sessions, &atoms, &duration); err != nil {
		t.Fatalf("Failed to read metric row: %v", err)
	}
	if sessions != 3 || atoms != 6 || duration != 3000 {
		t.Fatalf("Unexpected folded values: %d/%d/%d", sessions, atoms, duration)
	}
}

func TestPing(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Expected healthy ping, got %v", err)
	}
}
