package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/atomforge/atomforge/core"
)

const defaultHealthCheckInterval = time.Second

// Manager routes durable record writes through an ordered list of storage
// tiers with automatic failover. When every tier is down, records go to the
// local failover log and the write reports degraded instead of failing.
// Reads never come through the Manager; they target the primary directly.
type Manager struct {
	tiers  []RecordStore
	log    *FailoverLog
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	healthy   []bool
	attempts  []int
	nextProbe []time.Time

	checkInterval time.Duration
	stop          chan struct{}
	done          chan struct{}
	startOnce     sync.Once
	closeOnce     sync.Once
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets a custom logger.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithManagerClock sets the clock, letting tests drive probe timing.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithHealthCheckInterval sets how often unhealthy tiers are re-examined.
func WithHealthCheckInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.checkInterval = d
		}
	}
}

// NewManager creates a storage manager over the given tiers, in priority
// order (primary first). All tiers start healthy.
func NewManager(log *FailoverLog, tiers []RecordStore, opts ...ManagerOption) *Manager {
	m := &Manager{
		tiers:         tiers,
		log:           log,
		logger:        slog.Default().With("component", "storage-manager"),
		now:           time.Now,
		healthy:       make([]bool, len(tiers)),
		attempts:      make([]int, len(tiers)),
		nextProbe:     make([]time.Time, len(tiers)),
		checkInterval: defaultHealthCheckInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for i := range m.healthy {
		m.healthy[i] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the background health re-check loop.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		go m.healthLoop()
	})
}

// Close stops the health loop and closes all tiers.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stop)
		m.startOnce.Do(func() { close(m.done) }) // never started
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
		}
		for _, tier := range m.tiers {
			if cerr := tier.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})
	return err
}

// WriteSession writes a session through the tier chain.
// degraded is true when the write missed the primary tier.
func (m *Manager) WriteSession(ctx context.Context, session *core.IngestionSession) (degraded bool, err error) {
	return m.write(ctx, func(tier RecordStore) error {
		return tier.WriteSession(ctx, session)
	}, &FailoverRecord{Kind: failKindSession, Session: session})
}

// WriteTrace writes a trace through the tier chain.
func (m *Manager) WriteTrace(ctx context.Context, trace *core.AgentTrace) (degraded bool, err error) {
	return m.write(ctx, func(tier RecordStore) error {
		return tier.WriteTrace(ctx, trace)
	}, &FailoverRecord{Kind: failKindTrace, Trace: trace})
}

// WriteAtom writes an atom through the tier chain.
func (m *Manager) WriteAtom(ctx context.Context, atom *core.Atom) (degraded bool, err error) {
	return m.write(ctx, func(tier RecordStore) error {
		return tier.WriteAtom(ctx, atom)
	}, &FailoverRecord{Kind: failKindAtom, Atom: atom})
}

// WriteMetric writes a metric record through the tier chain.
func (m *Manager) WriteMetric(ctx context.Context, record *core.MetricRecord) (degraded bool, err error) {
	return m.write(ctx, func(tier RecordStore) error {
		return tier.WriteMetric(ctx, record)
	}, &FailoverRecord{Kind: failKindMetric, Metric: record})
}

// write attempts each healthy tier in order. A tier that errors is marked
// unhealthy and skipped until the health loop brings it back. When no tier
// accepts the record it is appended to the failover log; only a log append
// failure is fatal to the caller.
func (m *Manager) write(ctx context.Context, fn func(tier RecordStore) error, fallback *FailoverRecord) (degraded bool, err error) {
	for i, tier := range m.tiers {
		if !m.isHealthy(i) {
			continue
		}
		if werr := fn(tier); werr != nil {
			m.markUnhealthy(i)
			m.logger.Warn("tier write failed, failing over",
				"tier", tier.Name(), "err", werr)
			continue
		}
		return i > 0, nil
	}

	if aerr := m.log.Append(fallback); aerr != nil {
		return true, aerr
	}
	m.logger.Warn("record written to local failover log", "kind", fallback.Kind)
	return true, nil
}

// Reconcile replays the failover log into the healthiest available tier.
// Intended to run periodically or from the reconcile command.
func (m *Manager) Reconcile(ctx context.Context) (replayed int, err error) {
	return m.log.Replay(func(rec *FailoverRecord) error {
		var degraded bool
		var werr error
		switch rec.Kind {
		case failKindSession:
			degraded, werr = m.writeNoFallback(ctx, func(tier RecordStore) error {
				return tier.WriteSession(ctx, rec.Session)
			})
		case failKindTrace:
			degraded, werr = m.writeNoFallback(ctx, func(tier RecordStore) error {
				return tier.WriteTrace(ctx, rec.Trace)
			})
		case failKindAtom:
			degraded, werr = m.writeNoFallback(ctx, func(tier RecordStore) error {
				return tier.WriteAtom(ctx, rec.Atom)
			})
		case failKindMetric:
			degraded, werr = m.writeNoFallback(ctx, func(tier RecordStore) error {
				return tier.WriteMetric(ctx, rec.Metric)
			})
		default:
			m.logger.Warn("skipping unknown failover record", "kind", rec.Kind)
			return nil
		}
		if werr != nil {
			return werr
		}
		_ = degraded
		return nil
	})
}

// writeNoFallback is the reconcile write path: it must not loop records back
// into the failover log.
func (m *Manager) writeNoFallback(ctx context.Context, fn func(tier RecordStore) error) (degraded bool, err error) {
	for i, tier := range m.tiers {
		if !m.isHealthy(i) {
			continue
		}
		if werr := fn(tier); werr != nil {
			m.markUnhealthy(i)
			continue
		}
		return i > 0, nil
	}
	return true, ErrAllTiersDown
}

func (m *Manager) isHealthy(i int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.healthy[i]
}

func (m *Manager) markUnhealthy(i int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.healthy[i] {
		m.healthy[i] = false
		m.attempts[i] = 0
		m.nextProbe[i] = m.now()
	}
}

// Healthy reports the current health flags, primary first. For tests and the
// stats command.
func (m *Manager) Healthy() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]bool, len(m.healthy))
	copy(out, m.healthy)
	return out
}

func (m *Manager) healthLoop() {
	defer close(m.done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.probeUnhealthy()
		}
	}
}

// probeUnhealthy pings tiers that are down, spacing probes with the shared
// backoff policy, and restores the ones that answer.
func (m *Manager) probeUnhealthy() {
	now := m.now()
	for i, tier := range m.tiers {
		m.mu.Lock()
		due := !m.healthy[i] && !now.Before(m.nextProbe[i])
		m.mu.Unlock()
		if !due {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := tier.Ping(ctx)
		cancel()

		m.mu.Lock()
		if err != nil {
			m.attempts[i]++
			m.nextProbe[i] = now.Add(core.Backoff(m.attempts[i]))
			m.mu.Unlock()
			m.logger.Debug("tier still unhealthy", "tier", tier.Name(), "attempt", m.attempts[i])
			continue
		}
		m.healthy[i] = true
		m.attempts[i] = 0
		m.mu.Unlock()
		m.logger.Info("storage tier recovered", "tier", tier.Name())
	}
}
