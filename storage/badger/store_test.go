package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

func TestStoreSessionRoundTrip(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	session := &core.IngestionSession{
		SessionID: "sess-1",
		SourceID:  core.ID(42),
		Status:    core.SessionProcessing,
		StartedAt: time.Now().UTC(),
	}
	if err := stores.Records.WriteSession(ctx, session); err != nil {
		t.Fatalf("Failed to write session: %v", err)
	}

	// Upsert with the terminal state.
	session.Status = core.SessionPartial
	session.AtomsCreated = 4
	session.AtomsFailed = 1
	session.CompletedAt = session.StartedAt.Add(30 * time.Second)
	if err := stores.Records.WriteSession(ctx, session); err != nil {
		t.Fatalf("Failed to upsert session: %v", err)
	}

	got, err := stores.Sessions.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Status != core.SessionPartial {
		t.Fatalf("Expected partial status, got %v", got.Status)
	}
	if got.AtomsCreated != 4 || got.AtomsFailed != 1 {
		t.Fatalf("Expected 4/1 atom counts, got %d/%d", got.AtomsCreated, got.AtomsFailed)
	}

	if _, err := stores.Sessions.GetSession(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoreTracesOrdered(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	stages := []string{"acquire", "validate", "extract", "generate"}
	for i, stage := range stages {
		trace := &core.AgentTrace{
			TraceID:   stage + "-trace",
			SessionID: "sess-1",
			Stage:     stage,
			Success:   true,
			StartedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := stores.Records.WriteTrace(ctx, trace); err != nil {
			t.Fatalf("Failed to write trace: %v", err)
		}
	}
	// Trace for another session must not leak into the scan.
	other := &core.AgentTrace{TraceID: "x", SessionID: "sess-2", Stage: "acquire", StartedAt: base}
	if err := stores.Records.WriteTrace(ctx, other); err != nil {
		t.Fatalf("Failed to write trace: %v", err)
	}

	traces, err := stores.Sessions.GetTraces(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get traces: %v", err)
	}
	if len(traces) != len(stages) {
		t.Fatalf("Expected %d traces, got %d", len(stages), len(traces))
	}
	for i, trace := range traces {
		if trace.Stage != stages[i] {
			t.Fatalf("Position %d: expected stage %s, got %s", i, stages[i], trace.Stage)
		}
	}
}

func TestStoreAtomsBySession(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	for _, content := range []string{"fact one", "fact two", "fact three"} {
		atom := &core.Atom{
			Id:        core.IDFromContent(content),
			SessionID: "sess-1",
			SourceID:  core.ID(42),
			Subject:   "example",
			Content:   content,
			Vector:    []float32{0.1, 0.2, 0.3},
			CreatedAt: time.Now().UTC(),
		}
		if err := stores.Records.WriteAtom(ctx, atom); err != nil {
			t.Fatalf("Failed to write atom: %v", err)
		}
	}

	atoms, err := stores.Atoms.GetAtomsBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Failed to get atoms: %v", err)
	}
	if len(atoms) != 3 {
		t.Fatalf("Expected 3 atoms, got %d", len(atoms))
	}
	for _, atom := range atoms {
		if atom.SessionID != "sess-1" {
			t.Fatalf("Unexpected session %s", atom.SessionID)
		}
		if len(atom.Vector) != 3 {
			t.Fatalf("Expected vector to survive round trip, got %d dims", len(atom.Vector))
		}
	}

	none, err := stores.Atoms.GetAtomsBySession(ctx, "sess-2")
	if err != nil {
		t.Fatalf("Failed to get atoms: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("Expected no atoms for empty session, got %d", len(none))
	}
}

func TestStoreWriteAtomRejectsInvalid(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	atom := &core.Atom{Id: core.ID(1), SessionID: "sess-1", Content: ""}
	if err := stores.Records.WriteAtom(ctx, atom); !errors.Is(err, core.ErrEmptyAtomContent) {
		t.Fatalf("Expected ErrEmptyAtomContent, got %v", err)
	}
}

func TestStoreMetricFold(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	bucket := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	first := &core.MetricRecord{
		Bucket:          bucket,
		Granularity:     core.GranularityRealtime,
		Sessions:        2,
		Succeeded:       1,
		Partial:         1,
		AtomsCreated:    9,
		TotalDurationMs: 4000,
	}
	if err := stores.Records.WriteMetric(ctx, first); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}

	second := &core.MetricRecord{
		Bucket:          bucket,
		Granularity:     core.GranularityRealtime,
		Sessions:        1,
		Failed:          1,
		AtomsFailed:     2,
		TotalDurationMs: 1500,
	}
	if err := stores.Records.WriteMetric(ctx, second); err != nil {
		t.Fatalf("Failed to fold metric: %v", err)
	}

	got, err := stores.Metrics.GetMetric(ctx, core.GranularityRealtime, bucket)
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	if got.Sessions != 3 || got.Succeeded != 1 || got.Partial != 1 || got.Failed != 1 {
		t.Fatalf("Unexpected folded counts: %+v", got)
	}
	if got.AtomsCreated != 9 || got.AtomsFailed != 2 {
		t.Fatalf("Unexpected folded atom counts: %+v", got)
	}
	if got.TotalDurationMs != 5500 {
		t.Fatalf("Expected 5500ms total, got %d", got.TotalDurationMs)
	}
}

func TestMetricsRange(t *testing.T) {
	stores := newTestStores(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		record := &core.MetricRecord{
			Bucket:      base.Add(time.Duration(i) * time.Minute),
			Granularity: core.GranularityRealtime,
			Sessions:    1,
		}
		if err := stores.Records.WriteMetric(ctx, record); err != nil {
			t.Fatalf("Failed to write metric: %v", err)
		}
	}
	// A bucket at another granularity must stay out of the range.
	hourly := &core.MetricRecord{Bucket: base, Granularity: core.GranularityHourly, Sessions: 7}
	if err := stores.Records.WriteMetric(ctx, hourly); err != nil {
		t.Fatalf("Failed to write hourly metric: %v", err)
	}

	// Half-open range: from inclusive, to exclusive.
	records, err := stores.Metrics.RangeMetrics(ctx, core.GranularityRealtime, base.Add(time.Minute), base.Add(4*time.Minute))
	if err != nil {
		t.Fatalf("Failed to range metrics: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(records))
	}
	for i, record := range records {
		want := base.Add(time.Duration(i+1) * time.Minute)
		if !record.Bucket.Equal(want) {
			t.Fatalf("Position %d: expected bucket %v, got %v", i, want, record.Bucket)
		}
	}
}

func TestStorePing(t *testing.T) {
	stores, err := NewMemoryStores()
	if err != nil {
		t.Fatalf("Failed to create stores: %v", err)
	}

	if err := stores.Records.Ping(context.Background()); err != nil {
		t.Fatalf("Expected healthy ping, got %v", err)
	}

	stores.Close()
	if err := stores.Records.Ping(context.Background()); err == nil {
		t.Fatal("Expected ping failure after close")
	}
}
