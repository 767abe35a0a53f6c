// Package sqlite provides the secondary archive tier backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
	_ "modernc.org/sqlite"
)

// Store is a storage.RecordStore that archives records into a SQLite file.
// It holds the durable copy of sessions, traces, atoms and metrics while the
// primary tier is unavailable, and doubles as a queryable archive.
type Store struct {
	db *sql.DB
}

var _ storage.RecordStore = (*Store)(nil)

// Open creates a new archive store and runs migrations.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// OpenMemory creates an in-memory archive store for testing.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Name identifies the tier in logs and degraded-write reporting.
func (s *Store) Name() string {
	return "sqlite"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		source_id INTEGER NOT NULL,
		status INTEGER NOT NULL,
		atoms_created INTEGER NOT NULL DEFAULT 0,
		atoms_failed INTEGER NOT NULL DEFAULT 0,
		error_stage TEXT,
		error_message TEXT,
		started_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS traces (
		trace_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		success INTEGER NOT NULL,
		error_message TEXT,
		tokens_used INTEGER NOT NULL DEFAULT 0,
		cost_usd REAL NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_traces_session ON traces(session_id, started_at);

	CREATE TABLE IF NOT EXISTS atoms (
		id INTEGER PRIMARY KEY,
		session_id TEXT NOT NULL,
		source_id INTEGER NOT NULL,
		subject TEXT,
		content TEXT NOT NULL,
		vector BLOB,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_atoms_session ON atoms(session_id);

	CREATE TABLE IF NOT EXISTS metrics (
		granularity INTEGER NOT NULL,
		bucket DATETIME NOT NULL,
		sessions INTEGER NOT NULL DEFAULT 0,
		succeeded INTEGER NOT NULL DEFAULT 0,
		partial INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		atoms_created INTEGER NOT NULL DEFAULT 0,
		atoms_failed INTEGER NOT NULL DEFAULT 0,
		total_duration_ms INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (granularity, bucket)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WriteSession upserts a session record by session ID.
func (s *Store) WriteSession(ctx context.Context, session *core.IngestionSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, source_id, status, atoms_created, atoms_failed, error_stage, error_message, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			status = excluded.status,
			atoms_created = excluded.atoms_created,
			atoms_failed = excluded.atoms_failed,
			error_stage = excluded.error_stage,
			error_message = excluded.error_message,
			completed_at = excluded.completed_at`,
		session.SessionID, int64(session.SourceID), int(session.Status),
		session.AtomsCreated, session.AtomsFailed,
		session.ErrorStage, session.ErrorMessage,
		session.StartedAt, nullableTime(session.CompletedAt))
	return err
}

// WriteTrace appends a trace record. Replays after a failover may resend a
// trace, so the insert is idempotent on trace ID.
func (s *Store) WriteTrace(ctx context.Context, trace *core.AgentTrace) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO traces (trace_id, session_id, stage, duration_ms, success, error_message, tokens_used, cost_usd, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(trace_id) DO NOTHING`,
		trace.TraceID, trace.SessionID, trace.Stage, trace.DurationMs,
		trace.Success, trace.ErrorMessage, trace.TokensUsed, trace.CostUSD,
		trace.StartedAt)
	return err
}

// WriteAtom upserts an atom by its content ID.
func (s *Store) WriteAtom(ctx context.Context, atom *core.Atom) error {
	if err := core.ValidateAtom(atom); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO atoms (id, session_id, source_id, subject, content, vector, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			subject = excluded.subject,
			content = excluded.content,
			vector = excluded.vector`,
		int64(atom.Id), atom.SessionID, int64(atom.SourceID),
		atom.Subject, atom.Content, encodeVector(atom.Vector), atom.CreatedAt)
	return err
}

// WriteMetric folds a metric record into its (granularity, bucket) row.
func (s *Store) WriteMetric(ctx context.Context, record *core.MetricRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metrics (granularity, bucket, sessions, succeeded, partial, failed, atoms_created, atoms_failed, total_duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(granularity, bucket) DO UPDATE SET
			sessions = sessions + excluded.sessions,
			succeeded = succeeded + excluded.succeeded,
			partial = partial + excluded.partial,
			failed = failed + excluded.failed,
			atoms_created = atoms_created + excluded.atoms_created,
			atoms_failed = atoms_failed + excluded.atoms_failed,
			total_duration_ms = total_duration_ms + excluded.total_duration_ms`,
		int(record.Granularity), record.Bucket.UTC(),
		record.Sessions, record.Succeeded, record.Partial, record.Failed,
		record.AtomsCreated, record.AtomsFailed, record.TotalDurationMs)
	return err
}

// GetSession retrieves an archived session, mainly for reconciliation checks.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*core.IngestionSession, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, source_id, status, atoms_created, atoms_failed,
		       error_stage, error_message, started_at, completed_at
		FROM sessions WHERE session_id = ?`, sessionID)

	var session core.IngestionSession
	var sourceID, status int64
	var completedAt sql.NullTime
	err := row.Scan(&session.SessionID, &sourceID, &status,
		&session.AtomsCreated, &session.AtomsFailed,
		&session.ErrorStage, &session.ErrorMessage,
		&session.StartedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	session.SourceID = core.ID(sourceID)
	session.Status = core.SessionStatus(status)
	if completedAt.Valid {
		session.CompletedAt = completedAt.Time
	}
	return &session, nil
}

// GetAtomsBySession retrieves archived atoms for one session.
func (s *Store) GetAtomsBySession(ctx context.Context, sessionID string) ([]*core.Atom, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, source_id, subject, content, vector, created_at
		FROM atoms WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var atoms []*core.Atom
	for rows.Next() {
		var atom core.Atom
		var id, sourceID int64
		var vector []byte
		if err := rows.Scan(&id, &atom.SessionID, &sourceID, &atom.Subject, &atom.Content, &vector, &atom.CreatedAt); err != nil {
			return nil, err
		}
		atom.Id = core.ID(id)
		atom.SourceID = core.ID(sourceID)
		atom.Vector = decodeVector(vector)
		atoms = append(atoms, &atom)
	}
	return atoms, rows.Err()
}

// encodeVector packs an embedding as a little-endian float32 blob.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

// decodeVector unpacks an embedding blob written by encodeVector.
func decodeVector(buf []byte) []float32 {
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vec
}

// nullableTime maps the zero time to NULL so open sessions archive cleanly.
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
