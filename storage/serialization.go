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

import (
	"github.com/atomforge/atomforge/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalQueueEntry serializes a QueueEntry to bytes.
func MarshalQueueEntry(entry *core.QueueEntry) []byte {
	buf := make([]byte, core.QueueEntryMUS.Size(*entry))
	core.QueueEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalQueueEntry deserializes a QueueEntry from bytes.
func UnmarshalQueueEntry(data []byte) (*core.QueueEntry, error) {
	entry, _, err := core.QueueEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// MarshalGapRequest serializes a GapRequest to bytes.
func MarshalGapRequest(gap *core.GapRequest) []byte {
	buf := make([]byte, core.GapRequestMUS.Size(*gap))
	core.GapRequestMUS.Marshal(*gap, buf)
	return buf
}

// UnmarshalGapRequest deserializes a GapRequest from bytes.
func UnmarshalGapRequest(data []byte) (*core.GapRequest, error) {
	gap, _, err := core.GapRequestMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &gap, nil
}

// MarshalSession serializes an IngestionSession to bytes.
func MarshalSession(session *core.IngestionSession) []byte {
	buf := make([]byte, core.IngestionSessionMUS.Size(*session))
	core.IngestionSessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalSession deserializes an IngestionSession from bytes.
func UnmarshalSession(data []byte) (*core.IngestionSession, error) {
	session, _, err := core.IngestionSessionMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarshalTrace serializes an AgentTrace to bytes.
func MarshalTrace(trace *core.AgentTrace) []byte {
	buf := make([]byte, core.AgentTraceMUS.Size(*trace))
	core.AgentTraceMUS.Marshal(*trace, buf)
	return buf
}

// UnmarshalTrace deserializes an AgentTrace from bytes.
func UnmarshalTrace(data []byte) (*core.AgentTrace, error) {
	trace, _, err := core.AgentTraceMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &trace, nil
}

// MarshalRateState serializes a DomainRateState to bytes.
func MarshalRateState(state *core.DomainRateState) []byte {
	buf := make([]byte, core.DomainRateStateMUS.Size(*state))
	core.DomainRateStateMUS.Marshal(*state, buf)
	return buf
}

// UnmarshalRateState deserializes a DomainRateState from bytes.
func UnmarshalRateState(data []byte) (*core.DomainRateState, error) {
	state, _, err := core.DomainRateStateMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// MarshalMetric serializes a MetricRecord to bytes.
func MarshalMetric(record *core.MetricRecord) []byte {
	buf := make([]byte, core.MetricRecordMUS.Size(*record))
	core.MetricRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalMetric deserializes a MetricRecord from bytes.
func UnmarshalMetric(data []byte) (*core.MetricRecord, error) {
	record, _, err := core.MetricRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalAtom serializes an Atom to bytes.
func MarshalAtom(atom *core.Atom) []byte {
	buf := make([]byte, core.AtomMUS.Size(*atom))
	core.AtomMUS.Marshal(*atom, buf)
	return buf
}

// UnmarshalAtom deserializes an Atom from bytes.
func UnmarshalAtom(data []byte) (*core.Atom, error) {
	atom, _, err := core.AtomMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &atom, nil
}

// MarshalVerdict serializes a Verdict to bytes.
func MarshalVerdict(verdict *core.Verdict) []byte {
	buf := make([]byte, core.VerdictMUS.Size(*verdict))
	core.VerdictMUS.Marshal(*verdict, buf)
	return buf
}

// UnmarshalVerdict deserializes a Verdict from bytes.
func UnmarshalVerdict(data []byte) (*core.Verdict, error) {
	verdict, _, err := core.VerdictMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}
