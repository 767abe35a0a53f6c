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


package core

import (
	"fmt"
	"strings"
)

// ValidateQueueEntry validates a QueueEntry according to domain rules.
//
// Validation rules:
//   - Source must not be empty
//   - Priority must be within [0, 100]
//
// NOT validated (populated by the queue):
//   - SourceID (derived from Source when zero)
//   - Status and timestamps
func ValidateQueueEntry(entry *QueueEntry) error {
	if entry == nil {
		return fmt.Errorf("%w: entry is nil", ErrInvalidQueueEntry)
	}

	if entry.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQueueEntry, ErrEmptySource)
	}

	if err := ValidatePriority(entry.Priority); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQueueEntry, err)
	}

	return nil
}

// ValidatePriority validates that a priority is within the 0-100 range.
func ValidatePriority(priority float64) error {
	if priority < 0 || priority > 100 {
		return fmt.Errorf("%w: value %g", ErrInvalidPriority, priority)
	}
	return nil
}

// ValidateAtom validates an Atom according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//
// NOT validated (populated by later stages):
//   - Vector (can be empty until the embed stage runs)
//   - Id (derived from content when zero)
func ValidateAtom(atom *Atom) error {
	if atom == nil {
		return fmt.Errorf("%w: atom is nil", ErrInvalidAtom)
	}

	if atom.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidAtom, ErrEmptyAtomContent)
	}

	return nil
}

// NormalizeTopicKey canonicalizes a gap topic key into "vendor:category" form.
// Returns ErrInvalidTopicKey for keys that cannot be normalized; malformed
// keys are rejected, not coerced.
func NormalizeTopicKey(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", fmt.Errorf("%w: empty key", ErrInvalidTopicKey)
	}

	parts := strings.Split(key, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: expected vendor:category, got %q", ErrInvalidTopicKey, key)
	}

	vendor := strings.Join(strings.Fields(parts[0]), " ")
	category := strings.Join(strings.Fields(parts[1]), " ")
	if vendor == "" || category == "" {
		return "", fmt.Errorf("%w: empty segment in %q", ErrInvalidTopicKey, key)
	}

	return vendor + ":" + category, nil
}

// ClampConfidence clamps a gap confidence signal to [0, 1] before scoring.
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
