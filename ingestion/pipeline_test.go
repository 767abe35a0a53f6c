package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomforge/atomforge/ai"
	"github.com/atomforge/atomforge/ai/mock"
	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	"github.com/atomforge/atomforge/storage/badger"
)

// fiveSections is a document that chunks into exactly five pieces under the
// test chunker config: each section is too large to share a chunk with its
// neighbor at MaxChars 220.
const fiveSections = `Section one. The drive converts fixed frequency mains power into a variable frequency output for the motor, and the inverter switching stage sets the carrier frequency.

Section two. The motor nameplate current must be entered before autotune, and the drive measures the stator resistance with the motor at standstill for this.

Section three. Torque control requires an encoder on the motor shaft, and the drive derates the output when the heatsink temperature rises above the limit.

Section four. The servo loop gains are tuned for the inertia of the machine, and the drive trips on overcurrent when the acceleration ramp is too steep.

Section five. Braking energy from the motor is dissipated in the braking resistor, and the drive monitors the duty cycle of the chopper for this resistor.`

type testRig struct {
	runner    *Runner
	stores    *badger.Stores
	generator *mock.MockGenerator
	checker   *mock.MockQualityChecker
	embedder  *mock.MockEmbedder
	events    []core.SessionEvent
}

func (r *testRig) SessionCompleted(event core.SessionEvent) {
	r.events = append(r.events, event)
}

func newTestRig(t *testing.T, config RunnerConfig) *testRig {
	t.Helper()

	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })

	log, err := storage.NewFailoverLog(filepath.Join(t.TempDir(), "failover.log"))
	require.NoError(t, err)
	manager := storage.NewManager(log, []storage.RecordStore{stores.Records})

	rig := &testRig{
		stores:    stores,
		generator: mock.NewMockGenerator(),
		checker:   mock.NewMockQualityChecker(),
		embedder:  mock.NewMockEmbedder(),
	}
	provider := mock.NewMockProviderWithServices(rig.generator, rig.checker, rig.embedder)

	validator, err := NewValidator(stores.Validation)
	require.NoError(t, err)

	acquirer := NewAcquirer(WithAcquireSleep(func(_ context.Context, _ time.Duration) error {
		return nil
	}))

	runner, err := NewRunner(
		acquirer,
		validator,
		NewTracer(manager),
		provider,
		manager,
		WithRunnerConfig(config),
		WithEventSink(rig),
	)
	require.NoError(t, err)
	rig.runner = runner
	return rig
}

func stageCounts(traces []*core.AgentTrace) map[string]int {
	counts := make(map[string]int)
	for _, trace := range traces {
		counts[trace.Stage]++
	}
	return counts
}

func TestRunPartialSession(t *testing.T) {
	config := DefaultRunnerConfig()
	config.Chunker = ChunkerConfig{MaxChars: 220, MinChars: 1}
	rig := newTestRig(t, config)
	ctx := context.Background()

	// One candidate per chunk; the fifth fails quality.
	rig.generator.GenerateAtomsFunc = func(_ context.Context, chunk string, meta ai.SourceMeta) ([]ai.CandidateAtom, error) {
		return []ai.CandidateAtom{{Subject: meta.Subject, Content: chunk}}, nil
	}
	rig.checker.CheckAtomFunc = func(_ context.Context, candidate ai.CandidateAtom) (ai.CheckResult, error) {
		if strings.Contains(candidate.Content, "Section five") {
			return ai.CheckResult{Pass: false, Score: 40, Reason: "ungrounded claim"}, nil
		}
		return ai.CheckResult{Pass: true, Score: 90}, nil
	}

	entry := &core.QueueEntry{
		SourceID: core.IDFromContent(fiveSections),
		Source:   fiveSections,
	}
	session, err := rig.runner.Run(ctx, entry)
	require.NoError(t, err)

	assert.Equal(t, core.SessionPartial, session.Status)
	assert.Equal(t, 4, session.AtomsCreated)
	assert.Equal(t, 1, session.AtomsFailed)
	assert.Empty(t, session.ErrorStage)

	stored, err := rig.stores.Sessions.GetSession(ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, core.SessionPartial, stored.Status)
	assert.Equal(t, 4, stored.AtomsCreated)

	traces, err := rig.stores.Sessions.GetTraces(ctx, session.SessionID)
	require.NoError(t, err)
	counts := stageCounts(traces)
	assert.Equal(t, 1, counts[StageAcquire])
	assert.Equal(t, 1, counts[StageValidate])
	assert.Equal(t, 1, counts[StageExtract])
	assert.Equal(t, 1, counts[StageChunk])
	assert.Equal(t, 5, counts[StageGenerate])
	assert.Equal(t, 5, counts[StageQuality])
	assert.Equal(t, 4, counts[StageEmbed])
	assert.Equal(t, 4, counts[StageStore])

	atoms, err := rig.stores.Atoms.GetAtomsBySession(ctx, session.SessionID)
	require.NoError(t, err)
	require.Len(t, atoms, 4)
	for _, atom := range atoms {
		assert.NotEmpty(t, atom.Vector)
		assert.Equal(t, session.SessionID, atom.SessionID)
	}

	require.Len(t, rig.events, 1)
	event := rig.events[0]
	assert.Equal(t, core.SessionPartial, event.Status)
	assert.Equal(t, 4, event.AtomsCreated)
	assert.Equal(t, 1, event.AtomsFailed)
}

func TestRunValidationRejectionFailsFast(t *testing.T) {
	rig := newTestRig(t, DefaultRunnerConfig())
	ctx := context.Background()

	offTopic := `The recipe calls for two cups of flour and a pinch of salt.
Mix the dough until it is smooth and let it rest before baking the bread.`
	entry := &core.QueueEntry{
		SourceID: core.IDFromContent(offTopic),
		Source:   offTopic,
	}
	session, err := rig.runner.Run(ctx, entry)
	require.ErrorIs(t, err, ErrValidationRejected)

	assert.Equal(t, core.SessionFailed, session.Status)
	assert.Equal(t, StageValidate, session.ErrorStage)
	assert.Zero(t, session.AtomsCreated)

	// Fail-fast: nothing past validation ran.
	traces, terr := rig.stores.Sessions.GetTraces(ctx, session.SessionID)
	require.NoError(t, terr)
	counts := stageCounts(traces)
	assert.Equal(t, 1, counts[StageAcquire])
	assert.Equal(t, 1, counts[StageValidate])
	assert.Zero(t, counts[StageExtract])
	assert.Zero(t, counts[StageGenerate])
	assert.Equal(t, 0, rig.generator.CallCount())
}

func TestRunAcquisitionFailureIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	rig := newTestRig(t, DefaultRunnerConfig())
	entry := &core.QueueEntry{
		SourceID: core.IDFromContent(server.URL),
		Source:   server.URL,
	}
	session, err := rig.runner.Run(context.Background(), entry)
	require.ErrorIs(t, err, ErrTransient)

	assert.Equal(t, core.SessionFailed, session.Status)
	assert.Equal(t, StageAcquire, session.ErrorStage)
}

func TestRunSessionTimeout(t *testing.T) {
	config := DefaultRunnerConfig()
	config.SessionCeiling = 50 * time.Millisecond
	rig := newTestRig(t, config)

	rig.generator.GenerateAtomsFunc = func(ctx context.Context, _ string, _ ai.SourceMeta) ([]ai.CandidateAtom, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	entry := &core.QueueEntry{
		SourceID: core.IDFromContent(fiveSections),
		Source:   fiveSections,
	}
	session, err := rig.runner.Run(context.Background(), entry)
	require.ErrorIs(t, err, ErrSessionTimeout)

	assert.Equal(t, core.SessionFailed, session.Status)
	assert.Equal(t, StageTimeout, session.ErrorStage)

	// The terminal record still landed despite the dead run context.
	stored, serr := rig.stores.Sessions.GetSession(context.Background(), session.SessionID)
	require.NoError(t, serr)
	assert.Equal(t, StageTimeout, stored.ErrorStage)
}

func TestRunAllAtomsFailedIsFailed(t *testing.T) {
	rig := newTestRig(t, DefaultRunnerConfig())

	rig.checker.CheckAtomFunc = func(_ context.Context, _ ai.CandidateAtom) (ai.CheckResult, error) {
		return ai.CheckResult{Pass: false, Score: 10, Reason: "vague"}, nil
	}

	entry := &core.QueueEntry{
		SourceID: core.IDFromContent(fiveSections),
		Source:   fiveSections,
	}
	session, err := rig.runner.Run(context.Background(), entry)
	require.NoError(t, err)

	assert.Equal(t, core.SessionFailed, session.Status)
	assert.Zero(t, session.AtomsCreated)
	assert.NotZero(t, session.AtomsFailed)
	assert.Empty(t, session.ErrorStage)
}
