package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Source and atom IDs are generated with content-based hashing so that
// identical input always maps to the same record.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// The same URL or document body always produces the same ID, which is what
// makes queue deduplication and validation caching idempotent.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// QueueStatus is the lifecycle state of a queue entry.
type QueueStatus int

const (
	// QueuePending means the entry is waiting to be claimed.
	QueuePending QueueStatus = iota + 1
	// QueueProcessing means a worker has claimed the entry.
	QueueProcessing
	// QueueCompleted means the pipeline finished the entry.
	QueueCompleted
	// QueueFailed means the entry exhausted its retry budget.
	QueueFailed
)

// Terminal reports whether the status will never change again.
func (s QueueStatus) Terminal() bool {
	return s == QueueCompleted || s == QueueFailed
}

func (s QueueStatus) String() string {
	switch s {
	case QueuePending:
		return "pending"
	case QueueProcessing:
		return "processing"
	case QueueCompleted:
		return "completed"
	case QueueFailed:
		return "failed"
	}
	return "unknown"
}

// QueueEntry is one ingestion target in the durable backlog.
// At most one non-terminal entry exists per SourceID; re-submission merges
// priorities instead of duplicating.
type QueueEntry struct {
	SourceID    ID
	Source      string  // URL or raw text body
	Priority    float64 // 0-100
	Status      QueueStatus
	Attempts    int
	QueuedAt    time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// GapRequest tracks demand for knowledge the system does not yet have.
// Repeat requests for the same topic within the rolling window increment the
// existing record and raise its priority.
type GapRequest struct {
	TopicKey      string // normalized "vendor:category" signature
	RequestCount  int
	MaxConfidence float64 // highest confidence seen for this topic, 0-1
	PriorityScore float64 // 0-100
	FirstSeenAt   time.Time
	LastSeenAt    time.Time
}

// Score recomputes the priority score from the accumulated demand signals
// as min(request_count*10 + max_confidence*100, 100).
func (g *GapRequest) Score() float64 {
	score := float64(g.RequestCount)*10 + g.MaxConfidence*100
	if score > 100 {
		score = 100
	}
	return score
}

// SessionStatus is the lifecycle state of an ingestion session.
type SessionStatus int

const (
	// SessionPending means the session record exists but no stage has run.
	SessionPending SessionStatus = iota + 1
	// SessionProcessing means stages are executing.
	SessionProcessing
	// SessionSuccess means every atom was created without failures.
	SessionSuccess
	// SessionPartial means some atoms were created and some failed.
	SessionPartial
	// SessionFailed means no atoms were created.
	SessionFailed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionPending:
		return "pending"
	case SessionProcessing:
		return "processing"
	case SessionSuccess:
		return "success"
	case SessionPartial:
		return "partial"
	case SessionFailed:
		return "failed"
	}
	return "unknown"
}

// DeriveStatus computes the terminal session status from atom counts:
// success iff failed==0 and created>0, partial iff created>0 and failed>0,
// failed iff created==0.
func DeriveStatus(created, failed int) SessionStatus {
	switch {
	case created == 0:
		return SessionFailed
	case failed == 0:
		return SessionSuccess
	default:
		return SessionPartial
	}
}

// IngestionSession records one end-to-end pipeline run for a single source.
type IngestionSession struct {
	SessionID    string
	SourceID     ID
	Status       SessionStatus
	AtomsCreated int
	AtomsFailed  int
	ErrorStage   string
	ErrorMessage string
	StartedAt    time.Time
	CompletedAt  time.Time
}

// AgentTrace is one recorded execution of a pipeline stage or external call.
// Every stage execution produces exactly one trace, success or not.
type AgentTrace struct {
	TraceID      string
	SessionID    string
	Stage        string
	DurationMs   int64
	Success      bool
	ErrorMessage string
	TokensUsed   int
	CostUSD      float64
	StartedAt    time.Time
}

// DomainRateState is the persisted throttle state for one source domain.
type DomainRateState struct {
	Domain        string
	Delay         time.Duration
	LastRequestAt time.Time
	BlockedUntil  time.Time
	TotalRequests int64
}

// Granularity selects a metric rollup level.
type Granularity int

const (
	// GranularityRealtime buckets are per-minute and written by the aggregator.
	GranularityRealtime Granularity = iota + 1
	// GranularityHourly buckets are derived from realtime by the rollup job.
	GranularityHourly
	// GranularityDaily buckets are derived from hourly by the rollup job.
	GranularityDaily
)

func (g Granularity) String() string {
	switch g {
	case GranularityRealtime:
		return "realtime"
	case GranularityHourly:
		return "hourly"
	case GranularityDaily:
		return "daily"
	}
	return "unknown"
}

// MetricRecord is an aggregated view of completed sessions in one time bucket.
// Derived strictly from terminal sessions; only the rollup job writes the
// coarser granularities.
type MetricRecord struct {
	Bucket          time.Time
	Granularity     Granularity
	Sessions        int
	Succeeded       int
	Partial         int
	Failed          int
	AtomsCreated    int
	AtomsFailed     int
	TotalDurationMs int64
}

// Fold accumulates another record into this one. Matching buckets and
// granularity are the caller's responsibility.
func (m *MetricRecord) Fold(other *MetricRecord) {
	m.Sessions += other.Sessions
	m.Succeeded += other.Succeeded
	m.Partial += other.Partial
	m.Failed += other.Failed
	m.AtomsCreated += other.AtomsCreated
	m.AtomsFailed += other.AtomsFailed
	m.TotalDurationMs += other.TotalDurationMs
}

// Atom is one discrete validated knowledge record produced by the generator
// and accepted by the quality checker.
type Atom struct {
	Id        ID
	SessionID string
	SourceID  ID
	Subject   string
	Content   string
	Vector    []float32
	CreatedAt time.Time
}

// Verdict is a cached document validation result.
type Verdict struct {
	SourceID  ID
	Accept    bool
	Score     float64 // 0-100
	Reason    string
	Language  string
	Subject   string
	CheckedAt time.Time
}

// Chunk is one text segment produced by the chunking stage.
type Chunk struct {
	Index int
	Text  string
}

// SessionEvent is the completed-session signal consumed by the metrics
// aggregator and the notification dispatcher.
type SessionEvent struct {
	SessionID    string
	SourceID     ID
	Source       string
	Status       SessionStatus
	AtomsCreated int
	AtomsFailed  int
	DurationMs   int64
	CompletedAt  time.Time
}
