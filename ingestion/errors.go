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

package ingestion

import "errors"

var (
	// ErrTransient marks a network or timeout failure that was retried and
	// still failed; terminal for the session.
	ErrTransient = errors.New("transient acquisition failure")

	// ErrValidationRejected means the validator refused the document.
	// Terminal, never retried; the verdict is cached.
	ErrValidationRejected = errors.New("document rejected by validation")

	// ErrSessionTimeout means the session exceeded the wall-clock ceiling.
	ErrSessionTimeout = errors.New("session exceeded time ceiling")

	// ErrEmptyDocument means acquisition or extraction yielded no usable text.
	ErrEmptyDocument = errors.New("document has no usable text")

	// ErrNoChunks means chunking produced no segments from the extracted text.
	ErrNoChunks = errors.New("no chunks produced")
)
