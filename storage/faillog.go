package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atomforge/atomforge/core"
)

// Failover record kinds.
const (
	failKindSession = "session"
	failKindTrace   = "trace"
	failKindAtom    = "atom"
	failKindMetric  = "metric"
)

// FailoverRecord is one line of the local failover log. Exactly one payload
// field is set, selected by Kind. JSON keeps the log inspectable during
// outages.
type FailoverRecord struct {
	Kind    string                 `json:"kind"`
	Session *core.IngestionSession `json:"session,omitempty"`
	Trace   *core.AgentTrace       `json:"trace,omitempty"`
	Atom    *core.Atom             `json:"atom,omitempty"`
	Metric  *core.MetricRecord     `json:"metric,omitempty"`
}

// FailoverLog is the append-only local-disk tier of last resort. Records land
// here when every remote tier is unavailable and are drained by Replay.
type FailoverLog struct {
	path string
	mu   sync.Mutex
}

// NewFailoverLog creates a failover log at the given file path, creating the
// parent directory if needed.
func NewFailoverLog(path string) (*FailoverLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return &FailoverLog{path: path}, nil
}

// Append durably writes one record to the log.
func (l *FailoverLog) Append(rec *FailoverRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// Len returns the number of records currently in the log.
func (l *FailoverLog) Len() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Replay feeds every record to fn in append order. If fn succeeds for all
// records the log is truncated; on the first error the log is rewritten with
// the remaining records, so the next Replay resumes where this one stopped.
func (l *FailoverLog) Replay(fn func(rec *FailoverRecord) error) (replayed int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records, err := l.read()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	for i, rec := range records {
		if ferr := fn(rec); ferr != nil {
			if werr := l.rewrite(records[i:]); werr != nil {
				return i, fmt.Errorf("replay stopped: %w (rewrite failed: %w)", ferr, werr)
			}
			return i, ferr
		}
	}

	return len(records), l.rewrite(nil)
}

func (l *FailoverLog) read() ([]*FailoverRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []*FailoverRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec FailoverRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		records = append(records, &rec)
	}
	return records, scanner.Err()
}

func (l *FailoverLog) rewrite(records []*FailoverRecord) error {
	tmp := l.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}
