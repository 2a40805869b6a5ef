package kernel

import (
	"sync"

	"github.com/google/uuid"
)

// logRingCapacity is the minimum required ring size (>= 500 entries).
const logRingCapacity = 512

// LogEntry is a single kernel log record, appended by log() and by the
// kernel itself for diagnostics (crashes, kills, unknown syscalls).
type LogEntry struct {
	Time    int64  `json:"time"`
	PID     int    `json:"pid"`
	Message string `json:"message"`
	// TraceID is a fresh id minted for this entry alone; it is not linked
	// to the TraceID of any mailbox or port message.
	TraceID string `json:"trace_id"`
}

// logRing is a bounded ring buffer of LogEntry, capped at logRingCapacity.
// Overflow drops the oldest entry.
type logRing struct {
	mu      sync.Mutex
	entries []LogEntry
	cap     int
}

func newLogRing() *logRing {
	return &logRing{cap: logRingCapacity}
}

func (r *logRing) append(time int64, pid int, message string) LogEntry {
	entry := LogEntry{
		Time:    time,
		PID:     pid,
		Message: message,
		TraceID: newTraceID(),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	if len(r.entries) > r.cap {
		r.entries = r.entries[len(r.entries)-r.cap:]
	}
	return entry
}

// recent returns up to limit most-recent-last log entries.
func (r *logRing) recent(limit int) []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.entries) {
		limit = len(r.entries)
	}
	start := len(r.entries) - limit
	out := make([]LogEntry, limit)
	copy(out, r.entries[start:])
	return out
}

// newTraceID mints a short correlation id for log/message correlation.
func newTraceID() string {
	return "trc_" + uuid.New().String()[:12]
}
