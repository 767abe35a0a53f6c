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

package badger

// Stores bundles every repository backed by one in-memory backend.
// Intended for tests; Close tears the whole set down.
type Stores struct {
	Backend    *Backend
	Queue      *QueueRepository
	Gaps       *GapRepository
	Sessions   *SessionRepository
	Atoms      *AtomRepository
	Metrics    *MetricsRepository
	Validation *ValidationRepository
	RateState  *RateStateRepository
	Records    *Store
}

// NewMemoryStores creates a full set of in-memory repositories for testing.
// Caller must Close the returned set when done.
func NewMemoryStores(queueOpts ...QueueOption) (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Backend:    backend,
		Queue:      NewQueueRepository(backend, queueOpts...),
		Gaps:       NewGapRepository(backend),
		Sessions:   NewSessionRepository(backend),
		Atoms:      NewAtomRepository(backend),
		Metrics:    NewMetricsRepository(backend),
		Validation: NewValidationRepository(backend),
		RateState:  NewRateStateRepository(backend),
		Records:    NewStore(backend),
	}, nil
}

// Close closes every repository and the shared backend.
func (s *Stores) Close() error {
	s.Queue.Close()
	s.Gaps.Close()
	s.Sessions.Close()
	s.Atoms.Close()
	s.Metrics.Close()
	s.Validation.Close()
	s.RateState.Close()
	s.Records.Close()
	return s.Backend.Close()
}
