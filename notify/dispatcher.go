// Copyright 2025 Atomforge Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atomforge/atomforge/core"
)

// Mode selects how session outcomes become messages.
type Mode int

const (
	// ModeImmediate sends one message per completed session.
	ModeImmediate Mode = iota + 1
	// ModeDigest aggregates outcomes over a window into one summary.
	ModeDigest
)

// QuietHours is a local-time window during which digest messages are held
// back. Immediate messages are exempt. Empty Start disables the window.
type QuietHours struct {
	Start    string // "22:00"
	End      string // "07:00"
	Location *time.Location
}

// DispatcherConfig holds outbound notification settings.
type DispatcherConfig struct {
	// Mode selects immediate or digest delivery. Default: ModeDigest.
	Mode Mode

	// DigestWindow is the aggregation window in digest mode. Default: 5m.
	DigestWindow time.Duration

	// RatePerMinute caps outbound messages per minute. Default: 10.
	RatePerMinute int

	// QueueSize bounds the outbound backlog. When full, the oldest queued
	// message is dropped and counted into the next digest. Default: 64.
	QueueSize int

	// Quiet suppresses digest delivery during a local-time window.
	Quiet QuietHours
}

// DefaultDispatcherConfig returns the production notification settings.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Mode:          ModeDigest,
		DigestWindow:  5 * time.Minute,
		RatePerMinute: 10,
		QueueSize:     64,
	}
}

// Validate checks the configuration for usability.
func (c *DispatcherConfig) Validate() error {
	if c.Mode != ModeImmediate && c.Mode != ModeDigest {
		return errors.New("dispatcher config: Mode must be immediate or digest")
	}
	if c.DigestWindow <= 0 {
		return errors.New("dispatcher config: DigestWindow must be positive")
	}
	if c.RatePerMinute <= 0 {
		return errors.New("dispatcher config: RatePerMinute must be positive")
	}
	if c.QueueSize <= 0 {
		return errors.New("dispatcher config: QueueSize must be positive")
	}
	if c.Quiet.Start != "" {
		if _, err := parseClock(c.Quiet.Start); err != nil {
			return fmt.Errorf("dispatcher config: quiet hours start: %w", err)
		}
		if _, err := parseClock(c.Quiet.End); err != nil {
			return fmt.Errorf("dispatcher config: quiet hours end: %w", err)
		}
	}
	return nil
}

// digestStats accumulates session outcomes within one digest window.
type digestStats struct {
	sessions        int
	succeeded       int
	partial         int
	failed          int
	atomsCreated    int
	atomsFailed     int
	totalDurationMs int64
}

func (s *digestStats) add(event core.SessionEvent) {
	s.sessions++
	switch event.Status {
	case core.SessionSuccess:
		s.succeeded++
	case core.SessionPartial:
		s.partial++
	default:
		s.failed++
	}
	s.atomsCreated += event.AtomsCreated
	s.atomsFailed += event.AtomsFailed
	s.totalDurationMs += event.DurationMs
}

func (s *digestStats) empty() bool {
	return s.sessions == 0
}

// Dispatcher turns completed-session events into outbound chat messages.
// Delivery is rate limited with a per-minute token budget; excess messages
// queue up and the oldest are dropped once the queue bound is hit, with the
// drop count reported in the next digest.
type Dispatcher struct {
	sender Sender
	config DispatcherConfig

	mu          sync.Mutex
	pending     []string
	tokens      int
	lastRefill  time.Time
	windowStart time.Time
	stats       digestStats
	dropped     int

	now       func() time.Time
	logger    *slog.Logger
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherConfig replaces the default settings.
func WithDispatcherConfig(config DispatcherConfig) DispatcherOption {
	return func(d *Dispatcher) {
		d.config = config
	}
}

// WithDispatcherClock sets the clock. Intended for tests.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithDispatcherLogger sets a custom logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a dispatcher delivering through sender.
// Call Start to launch delivery and Close to stop it.
func NewDispatcher(sender Sender, opts ...DispatcherOption) (*Dispatcher, error) {
	if sender == nil {
		return nil, errors.New("dispatcher: sender is required")
	}

	d := &Dispatcher{
		sender: sender,
		config: DefaultDispatcherConfig(),
		now:    time.Now,
		logger: slog.Default().With("component", "notify"),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.config.Validate(); err != nil {
		return nil, err
	}
	if d.config.Quiet.Location == nil {
		d.config.Quiet.Location = time.Local
	}

	now := d.now()
	d.tokens = d.config.RatePerMinute
	d.lastRefill = now
	d.windowStart = now
	return d, nil
}

// SessionCompleted accepts one completed-session event. Cheap: delivery
// happens on the background loop.
func (d *Dispatcher) SessionCompleted(event core.SessionEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.config.Mode == ModeImmediate {
		d.enqueueLocked(formatSession(event))
		return
	}
	d.stats.add(event)
}

// Start launches the delivery loop.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		go d.loop()
	})
}

// Close flushes what the rate limit allows and stops the loop.
func (d *Dispatcher) Close() error {
	d.closeOnce.Do(func() {
		close(d.stop)
		d.startOnce.Do(func() { close(d.done) }) // never started
		<-d.done
	})
	return nil
}

func (d *Dispatcher) loop() {
	defer close(d.done)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cycle(context.Background())
		case <-d.stop:
			d.cycle(context.Background())
			return
		}
	}
}

// cycle runs one delivery pass: refill the token budget, emit a due digest,
// then drain the queue as far as the budget allows.
func (d *Dispatcher) cycle(ctx context.Context) {
	now := d.now()

	d.mu.Lock()
	if elapsed := now.Sub(d.lastRefill); elapsed >= time.Minute {
		d.tokens = d.config.RatePerMinute
		d.lastRefill = now
	}

	if d.config.Mode == ModeDigest && now.Sub(d.windowStart) >= d.config.DigestWindow {
		d.emitDigestLocked(now)
	}

	var batch []string
	for d.tokens > 0 && len(d.pending) > 0 {
		batch = append(batch, d.pending[0])
		d.pending = d.pending[1:]
		d.tokens--
	}
	d.mu.Unlock()

	for _, text := range batch {
		if err := d.sender.Send(ctx, text); err != nil {
			d.logger.Error("notification delivery failed", "err", err)
		}
	}
}

// emitDigestLocked queues the digest for the closed window. During quiet
// hours nothing is sent and the stats keep accumulating into the next
// window.
func (d *Dispatcher) emitDigestLocked(now time.Time) {
	if d.inQuietHours(now) {
		d.windowStart = now
		return
	}
	if d.stats.empty() && d.dropped == 0 {
		d.windowStart = now
		return
	}

	d.enqueueLocked(formatDigest(d.stats, d.dropped, now.Sub(d.windowStart)))
	d.stats = digestStats{}
	d.dropped = 0
	d.windowStart = now
}

func (d *Dispatcher) enqueueLocked(text string) {
	if len(d.pending) >= d.config.QueueSize {
		d.pending = d.pending[1:]
		d.dropped++
		d.logger.Warn("notification queue full, oldest message dropped")
	}
	d.pending = append(d.pending, text)
}

func (d *Dispatcher) inQuietHours(now time.Time) bool {
	if d.config.Quiet.Start == "" {
		return false
	}
	start, _ := parseClock(d.config.Quiet.Start)
	end, _ := parseClock(d.config.Quiet.End)

	local := now.In(d.config.Quiet.Location)
	minute := local.Hour()*60 + local.Minute()

	if start <= end {
		return minute >= start && minute < end
	}
	// Overnight window, e.g. 22:00-07:00.
	return minute >= start || minute < end
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func statusGlyph(status core.SessionStatus) string {
	switch status {
	case core.SessionSuccess:
		return "✅"
	case core.SessionPartial:
		return "⚠️"
	default:
		return "❌"
	}
}

// formatSession renders one immediate-mode message.
func formatSession(event core.SessionEvent) string {
	duration := time.Duration(event.DurationMs) * time.Millisecond
	switch event.Status {
	case core.SessionSuccess:
		return fmt.Sprintf("%s %s — %d atoms in %s",
			statusGlyph(event.Status), event.Source, event.AtomsCreated, duration)
	case core.SessionPartial:
		return fmt.Sprintf("%s %s — %d created / %d failed in %s",
			statusGlyph(event.Status), event.Source, event.AtomsCreated, event.AtomsFailed, duration)
	default:
		return fmt.Sprintf("%s %s — failed, no atoms created (%s)",
			statusGlyph(event.Status), event.Source, duration)
	}
}

// formatDigest renders one digest-mode summary.
func formatDigest(stats digestStats, dropped int, window time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Last %s: %d sessions (%d ✅ / %d ⚠️ / %d ❌), %d atoms created, %d failed",
		window.Round(time.Minute), stats.sessions,
		stats.succeeded, stats.partial, stats.failed,
		stats.atomsCreated, stats.atomsFailed)
	if stats.sessions > 0 {
		avg := time.Duration(stats.totalDurationMs/int64(stats.sessions)) * time.Millisecond
		fmt.Fprintf(&b, ", avg %s", avg)
	}
	if dropped > 0 {
		fmt.Fprintf(&b, ", %d notifications dropped", dropped)
	}
	return b.String()
}
