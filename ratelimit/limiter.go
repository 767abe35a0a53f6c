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

// Package ratelimit throttles dequeues per source domain. State persists
// across restarts so a restart cannot be used to hammer a target.
package ratelimit

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// LocalDomain is the pseudo-domain for sources that are not URLs (raw text,
// gap-derived entries). It is never throttled.
const LocalDomain = "local"

// Config holds limiter settings.
type Config struct {
	// DefaultDelay is the per-domain spacing applied to domains with no
	// recorded state. Unseen domains get this conservative default.
	// Default: 10s.
	DefaultDelay time.Duration
}

// DefaultConfig returns the default limiter settings.
func DefaultConfig() Config {
	return Config{DefaultDelay: 10 * time.Second}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DefaultDelay <= 0 {
		return errors.New("ratelimit config: DefaultDelay must be positive")
	}
	return nil
}

// Limiter enforces per-domain request spacing and temporary blocks.
// Safe for concurrent use by all workers.
type Limiter struct {
	states storage.RateStateRepository
	config Config
	now    func() time.Time
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*core.DomainRateState
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithConfig overrides the default settings.
func WithConfig(config Config) Option {
	return func(l *Limiter) {
		l.config = config
	}
}

// WithClock sets the clock, letting tests drive spacing deterministically.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a Limiter over persisted per-domain state.
func New(states storage.RateStateRepository, opts ...Option) (*Limiter, error) {
	l := &Limiter{
		states: states,
		config: DefaultConfig(),
		now:    time.Now,
		logger: slog.Default().With("component", "ratelimit"),
		cache:  make(map[string]*core.DomainRateState),
	}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.config.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// MayDequeue reports whether a request to the domain is allowed now:
// the spacing since the last request has elapsed and no block is active.
func (l *Limiter) MayDequeue(ctx context.Context, domain string) (bool, error) {
	if domain == LocalDomain {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load(ctx, domain)
	if err != nil {
		return false, err
	}

	now := l.now()
	if now.Before(state.BlockedUntil) {
		return false, nil
	}
	if state.LastRequestAt.IsZero() {
		return true, nil
	}
	return now.Sub(state.LastRequestAt) >= state.Delay, nil
}

// RecordRequest marks a request to the domain as issued now.
func (l *Limiter) RecordRequest(ctx context.Context, domain string) error {
	if domain == LocalDomain {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load(ctx, domain)
	if err != nil {
		return err
	}

	state.LastRequestAt = l.now().UTC()
	state.TotalRequests++
	return l.states.PutRateState(ctx, state)
}

// Block suspends dequeues for the domain until the given time. Used when a
// target signals throttling or fails repeatedly.
func (l *Limiter) Block(ctx context.Context, domain string, until time.Time) error {
	if domain == LocalDomain {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, err := l.load(ctx, domain)
	if err != nil {
		return err
	}

	state.BlockedUntil = until.UTC()
	l.logger.Warn("domain blocked", "domain", domain, "until", state.BlockedUntil)
	return l.states.PutRateState(ctx, state)
}

// load fetches the domain state from cache or repository, creating a default
// record for unseen domains. Caller holds the mutex.
func (l *Limiter) load(ctx context.Context, domain string) (*core.DomainRateState, error) {
	if state, ok := l.cache[domain]; ok {
		return state, nil
	}

	state, err := l.states.GetRateState(ctx, domain)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		state = &core.DomainRateState{
			Domain: domain,
			Delay:  l.config.DefaultDelay,
		}
	case err != nil:
		return nil, err
	}

	l.cache[domain] = state
	return state, nil
}

// Domain extracts the throttling key from a queue entry source. Non-URL
// sources map to LocalDomain.
func Domain(source string) string {
	if !strings.Contains(source, "://") {
		return LocalDomain
	}
	u, err := url.Parse(source)
	if err != nil || u.Hostname() == "" {
		return LocalDomain
	}
	return strings.ToLower(u.Hostname())
}
