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

// Package queue provides the durable priority backlog and the gap-signal
// collector that feeds it from end-user demand.
package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/atomforge/atomforge/core"
	"github.com/atomforge/atomforge/storage"
)

// Queue is the ingestion backlog. It wraps the queue repository with
// acknowledgement semantics: every accepted submission reports its claim-order
// rank so callers can answer "where am I in line".
type Queue struct {
	repo   storage.QueueRepository
	logger *slog.Logger
}

// Ack acknowledges an accepted submission.
type Ack struct {
	// SourceID is the derived content ID of the submission.
	SourceID core.ID

	// Merged is true when an existing non-terminal entry absorbed the
	// submission instead of a new entry being created.
	Merged bool

	// Rank is the 1-based position in claim order, 0 when the entry is
	// already being processed.
	Rank int
}

// New creates a Queue over a repository.
func New(repo storage.QueueRepository) *Queue {
	return &Queue{
		repo:   repo,
		logger: slog.Default().With("component", "queue"),
	}
}

// Enqueue submits a source with a priority. Duplicate submissions merge into
// the existing entry, keeping the higher priority. Acceptance is synchronous
// and does not imply the pipeline will succeed.
func (q *Queue) Enqueue(ctx context.Context, source string, priority float64) (Ack, error) {
	entry := &core.QueueEntry{Source: source, Priority: priority}
	merged, err := q.repo.Enqueue(ctx, entry)
	if err != nil {
		return Ack{}, err
	}

	rank, err := q.repo.PendingRank(ctx, entry.SourceID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return Ack{}, err
	}

	q.logger.Info("enqueued source",
		"source_id", entry.SourceID,
		"priority", entry.Priority,
		"merged", merged,
		"rank", rank)

	return Ack{SourceID: entry.SourceID, Merged: merged, Rank: rank}, nil
}

// Claim atomically hands out up to batch pending entries, highest priority
// first, FIFO among equals.
func (q *Queue) Claim(ctx context.Context, batch int) ([]*core.QueueEntry, error) {
	return q.repo.Claim(ctx, batch)
}

// Release returns a claimed entry to pending without counting an attempt.
func (q *Queue) Release(ctx context.Context, sourceID core.ID) error {
	return q.repo.Release(ctx, sourceID)
}

// Complete records the terminal outcome of a claimed entry.
func (q *Queue) Complete(ctx context.Context, sourceID core.ID, succeeded bool) error {
	return q.repo.Complete(ctx, sourceID, succeeded)
}

// Entry retrieves an entry by source ID.
func (q *Queue) Entry(ctx context.Context, sourceID core.ID) (*core.QueueEntry, error) {
	return q.repo.GetEntry(ctx, sourceID)
}
