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


package storage

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyClaimed indicates an entry is already being processed.
	ErrAlreadyClaimed = errors.New("entry already claimed")

	// ErrNotClaimed indicates a completion for an entry that is not processing.
	ErrNotClaimed = errors.New("entry not claimed")

	// ErrTerminal indicates an operation on an entry in a terminal status.
	ErrTerminal = errors.New("entry is terminal")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")

	// ErrAllTiersDown indicates every remote tier rejected a write and the
	// record went to the local failover log.
	ErrAllTiersDown = errors.New("all storage tiers unavailable")

	// ErrTruncatedData indicates that data was truncated during reading.
	ErrTruncatedData = errors.New("truncated data")
)
