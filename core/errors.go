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

import "errors"

// Domain validation errors
var (
	// ErrInvalidQueueEntry indicates a QueueEntry failed validation.
	ErrInvalidQueueEntry = errors.New("invalid queue entry")

	// ErrInvalidTopicKey indicates a gap topic key is malformed.
	ErrInvalidTopicKey = errors.New("invalid topic key")

	// ErrInvalidPriority indicates a priority outside the 0-100 range.
	ErrInvalidPriority = errors.New("priority must be between 0 and 100")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrInvalidAtom indicates an Atom failed validation.
	ErrInvalidAtom = errors.New("invalid atom")

	// ErrEmptyAtomContent indicates the atom Content field is empty.
	ErrEmptyAtomContent = errors.New("atom content cannot be empty")

	// ErrInvalidGranularity indicates an unknown metric granularity value.
	ErrInvalidGranularity = errors.New("invalid metric granularity")
)
