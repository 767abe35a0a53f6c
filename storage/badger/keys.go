package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/atomforge/atomforge/core"
)

// Key prefixes for different data types
const (
	queueEntryPrefix    = "quent"
	queuePriorityPrefix = "quentp"
	gapRequestPrefix    = "gapreq"
	sessionPrefix       = "ingses"
	tracePrefix         = "agtrc"
	atomPrefix          = "atmrec"
	atomSessionPrefix   = "atmses"
	metricPrefix        = "metrec"
	verdictPrefix       = "docval"
	rateStatePrefix     = "domrs"
)

// priorityScale converts a 0-100 float priority into an integer key segment
// with microdegree resolution.
const priorityScale = 1_000_000

// makeQueueEntryKey generates a key for a queue entry by source ID.
func makeQueueEntryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", queueEntryPrefix, id))
}

// makeQueuePriorityKey generates a composite key for the claim-order index.
// Format: prefix:invertedPriority:queuedAt:id, all BigEndian so that a
// forward iteration yields highest priority first, oldest first among equals.
func makeQueuePriorityKey(priority float64, queuedAt time.Time, id core.ID) []byte {
	prefix := queuePriorityPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 24 // 8 bytes each for priority, timestamp, ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	inverted := uint64((100 - priority) * priorityScale)
	binary.BigEndian.PutUint64(buf[offset:], inverted)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(queuedAt.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeGapRequestKey generates a key for a gap request by topic key.
func makeGapRequestKey(topicKey string) []byte {
	return []byte(gapRequestPrefix + ":" + topicKey)
}

// makeSessionKey generates a key for an ingestion session by ID.
func makeSessionKey(sessionID string) []byte {
	return []byte(sessionPrefix + ":" + sessionID)
}

// makeTraceKey generates a composite key for a trace under its session.
// Format: prefix:sessionID:startedAt:traceID, timestamp BigEndian so a
// session prefix scan returns traces in recording order.
func makeTraceKey(sessionID string, startedAt time.Time, traceID string) []byte {
	prefix := tracePrefix + ":" + sessionID + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 + len(traceID)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(traceID))
	return buf
}

// makeTraceSessionPrefix generates the scan prefix for a session's traces.
func makeTraceSessionPrefix(sessionID string) []byte {
	return []byte(tracePrefix + ":" + sessionID + ":")
}

// makeAtomKey generates a key for an atom by ID.
func makeAtomKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", atomPrefix, id))
}

// makeAtomSessionKey generates a composite key for the atom-by-session index.
func makeAtomSessionKey(sessionID string, id core.ID) []byte {
	prefix := atomSessionPrefix + ":" + sessionID + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeAtomSessionPrefix generates the scan prefix for a session's atoms.
func makeAtomSessionPrefix(sessionID string) []byte {
	return []byte(atomSessionPrefix + ":" + sessionID + ":")
}

// atomIDFromSessionKey extracts the atom ID from a session index key.
func atomIDFromSessionKey(key []byte, sessionID string) (core.ID, error) {
	prefixSize := len(makeAtomSessionPrefix(sessionID))
	if len(key) != prefixSize+8 {
		return 0, errMalformedKey
	}
	return core.ID(binary.BigEndian.Uint64(key[prefixSize:])), nil
}

var errMalformedKey = errors.New("malformed index key")

// makeMetricKey generates a composite key for a metric bucket.
// Format: prefix:granularity:bucket, bucket BigEndian for range scans.
func makeMetricKey(gran core.Granularity, bucket time.Time) []byte {
	prefix := fmt.Sprintf("%s:%d:", metricPrefix, gran)
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	buf := make([]byte, prefixSize+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(bucket.UnixMicro()))
	return buf
}

// makeMetricPrefix generates the scan prefix for one granularity.
func makeMetricPrefix(gran core.Granularity) []byte {
	return []byte(fmt.Sprintf("%s:%d:", metricPrefix, gran))
}

// makeVerdictKey generates a key for a cached validation verdict.
func makeVerdictKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", verdictPrefix, id))
}

// makeRateStateKey generates a key for per-domain rate state.
func makeRateStateKey(domain string) []byte {
	return []byte(rateStatePrefix + ":" + domain)
}
