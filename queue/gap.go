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

package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// CollectorConfig holds the gap collector settings.
type CollectorConfig struct {
	// Window is the rolling window within which repeat requests for the
	// same topic increment the existing record. Default: 7 days.
	Window time.Duration

	// PriorityFloor is the minimum priority score a gap must reach before
	// it is promoted into the queue. Default: 60.
	PriorityFloor float64
}

// DefaultCollectorConfig returns the default collector settings.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		Window:        7 * 24 * time.Hour,
		PriorityFloor: 60,
	}
}

// Validate checks that the configuration is valid.
func (c *CollectorConfig) Validate() error {
	if c.Window <= 0 {
		return errors.New("collector config: Window must be positive")
	}
	if c.PriorityFloor < 0 || c.PriorityFloor > 100 {
		return errors.New("collector config: PriorityFloor must be between 0 and 100")
	}
	return nil
}

// Collector converts "knowledge not found" signals into queue entries.
// Repeat requests for the same topic within the rolling window raise the
// existing record's priority instead of creating duplicates.
type Collector struct {
	gaps   storage.GapRepository
	queue  *Queue
	config CollectorConfig
	now    func() time.Time
	logger *slog.Logger
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCollectorConfig overrides the default settings.
func WithCollectorConfig(config CollectorConfig) CollectorOption {
	return func(c *Collector) {
		c.config = config
	}
}

// WithCollectorClock sets the clock, letting tests drive the window boundary.
func WithCollectorClock(now func() time.Time) CollectorOption {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCollector creates a gap collector feeding the given queue.
func NewCollector(gaps storage.GapRepository, queue *Queue, opts ...CollectorOption) (*Collector, error) {
	c := &Collector{
		gaps:   gaps,
		queue:  queue,
		config: DefaultCollectorConfig(),
		now:    time.Now,
		logger: slog.Default().With("component", "gap-collector"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordGap registers one low-coverage query for a topic. The topic key is
// normalized and the confidence clamped to [0,1] before scoring. A request
// arriving after the window has elapsed starts a fresh record rather than
// extending the old one.
func (c *Collector) RecordGap(ctx context.Context, topicKey string, confidence float64) (*core.GapRequest, error) {
	key, err := core.NormalizeTopicKey(topicKey)
	if err != nil {
		return nil, err
	}
	confidence = core.ClampConfidence(confidence)
	now := c.now().UTC()

	gap, err := c.gaps.GetGap(ctx, key)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		gap = nil
	case err != nil:
		return nil, err
	}

	if gap != nil && now.Sub(gap.LastSeenAt) <= c.config.Window {
		gap.RequestCount++
		if confidence > gap.MaxConfidence {
			gap.MaxConfidence = confidence
		}
		gap.PriorityScore = gap.Score()
		gap.LastSeenAt = now
	} else {
		gap = &core.GapRequest{
			TopicKey:      key,
			RequestCount:  1,
			MaxConfidence: confidence,
			PriorityScore: 50 + confidence*10,
			FirstSeenAt:   now,
			LastSeenAt:    now,
		}
	}

	if err := c.gaps.PutGap(ctx, gap); err != nil {
		return nil, err
	}

	c.logger.Debug("recorded gap",
		"topic_key", key,
		"request_count", gap.RequestCount,
		"priority_score", gap.PriorityScore)

	if gap.PriorityScore >= c.config.PriorityFloor {
		if _, err := c.queue.Enqueue(ctx, gapSource(key), gap.PriorityScore); err != nil {
			return nil, err
		}
	}

	return gap, nil
}

// gapSource derives the queue source text for a topic gap. The prefix keeps
// gap-derived entries distinguishable from direct URL submissions.
func gapSource(topicKey string) string {
	return "gap:" + topicKey
}
