package storage

import (
	"context"
	"time"

	"github.com/atomforge/atomforge/core"
)

// QueueRepository provides the durable, deduplicated ingestion backlog.
// Implementations must be thread-safe and guarantee that Claim hands each
// entry to exactly one caller.
type QueueRepository interface {
	// Enqueue inserts a new entry or merges with an existing non-terminal
	// entry for the same SourceID, keeping the higher priority.
	// Returns merged=true when an existing entry absorbed the submission.
	Enqueue(ctx context.Context, entry *core.QueueEntry) (merged bool, err error)

	// Claim atomically transitions up to batch pending entries to processing,
	// highest priority first, oldest first among equals.
	Claim(ctx context.Context, batch int) ([]*core.QueueEntry, error)

	// Release returns a claimed entry to pending without counting an attempt.
	// Used when rate limiting defers a claimed entry.
	Release(ctx context.Context, sourceID core.ID) error

	// Complete sets the terminal status for a claimed entry. Failures
	// increment the attempt counter and re-queue until the retry cap, after
	// which the entry becomes permanently failed.
	Complete(ctx context.Context, sourceID core.ID, succeeded bool) error

	// GetEntry retrieves an entry by source ID.
	// Returns ErrNotFound if no entry exists.
	GetEntry(ctx context.Context, sourceID core.ID) (*core.QueueEntry, error)

	// PendingRank returns the 1-based position of a pending entry in claim
	// order. Used for enqueue acknowledgements.
	PendingRank(ctx context.Context, sourceID core.ID) (int, error)

	// Close closes the repository.
	Close() error
}

// GapRepository stores knowledge-gap demand records keyed by topic.
type GapRepository interface {
	// GetGap retrieves the gap record for a topic key.
	// Returns ErrNotFound if no record exists.
	GetGap(ctx context.Context, topicKey string) (*core.GapRequest, error)

	// PutGap upserts a gap record by its topic key.
	PutGap(ctx context.Context, gap *core.GapRequest) error

	// Close closes the repository.
	Close() error
}

// SessionRepository reads sessions and traces back from the primary store.
// Writes flow through the Manager, not through this interface.
type SessionRepository interface {
	// GetSession retrieves a session by ID.
	// Returns ErrNotFound if the session doesn't exist.
	GetSession(ctx context.Context, sessionID string) (*core.IngestionSession, error)

	// GetTraces retrieves all traces for a session in recording order.
	GetTraces(ctx context.Context, sessionID string) ([]*core.AgentTrace, error)

	// Close closes the repository.
	Close() error
}

// AtomRepository reads persisted atoms back from the primary store.
type AtomRepository interface {
	// GetAtomsBySession retrieves the atoms created during one session.
	GetAtomsBySession(ctx context.Context, sessionID string) ([]*core.Atom, error)

	// Close closes the repository.
	Close() error
}

// MetricsRepository reads metric buckets back from the primary store.
type MetricsRepository interface {
	// GetMetric retrieves one bucket.
	// Returns ErrNotFound if the bucket doesn't exist.
	GetMetric(ctx context.Context, gran core.Granularity, bucket time.Time) (*core.MetricRecord, error)

	// RangeMetrics retrieves buckets with from <= Bucket < to, ordered by bucket.
	RangeMetrics(ctx context.Context, gran core.Granularity, from, to time.Time) ([]*core.MetricRecord, error)

	// Close closes the repository.
	Close() error
}

// ValidationRepository caches document validation verdicts by source ID.
type ValidationRepository interface {
	// GetVerdict retrieves a cached verdict.
	// Returns ErrNotFound on cache miss or expiry.
	GetVerdict(ctx context.Context, sourceID core.ID) (*core.Verdict, error)

	// PutVerdict caches a verdict with the given time-to-live.
	PutVerdict(ctx context.Context, verdict *core.Verdict, ttl time.Duration) error

	// Close closes the repository.
	Close() error
}

// RateStateRepository persists per-domain throttle state across restarts.
type RateStateRepository interface {
	// GetRateState retrieves the state for a domain.
	// Returns ErrNotFound for unseen domains.
	GetRateState(ctx context.Context, domain string) (*core.DomainRateState, error)

	// PutRateState upserts the state for a domain.
	PutRateState(ctx context.Context, state *core.DomainRateState) error

	// Close closes the repository.
	Close() error
}

// RecordStore is the narrow write surface shared by every storage tier.
// The Manager routes durable record writes through an ordered list of these.
// WriteMetric folds the record into its (granularity, bucket) slot.
type RecordStore interface {
	// Name identifies the tier in logs and degraded-write reporting.
	Name() string

	// WriteSession upserts a session record by session ID.
	WriteSession(ctx context.Context, session *core.IngestionSession) error

	// WriteTrace appends a trace record.
	WriteTrace(ctx context.Context, trace *core.AgentTrace) error

	// WriteAtom upserts an atom by its content ID.
	WriteAtom(ctx context.Context, atom *core.Atom) error

	// WriteMetric folds a metric record into its bucket.
	WriteMetric(ctx context.Context, record *core.MetricRecord) error

	// Ping reports whether the tier is currently reachable.
	Ping(ctx context.Context) error

	// Close closes the tier.
	Close() error
}
