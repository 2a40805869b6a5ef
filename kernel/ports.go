package kernel

import (
	"fmt"
	"sync"
)

// PortMessage is a port-addressed message (spec §3): it carries FromPID
// and belongs to a specific port's queue, distinct in shape from a
// MailboxMessage.
type PortMessage struct {
	FromPID   int    `json:"from_pid"`
	Payload   any    `json:"payload"`
	EnqueueAt int64  `json:"enqueue_time"`
	TraceID   string `json:"trace_id"`
}

// portEntry is a single named rendezvous queue with exactly one owner.
type portEntry struct {
	owner int
	queue []PortMessage
}

// PortSummary is the read-only projection returned by ports_table (spec §6).
type PortSummary struct {
	Port        string `json:"port"`
	OwnerPID    int    `json:"owner_pid"`
	QueueLength int    `json:"queue_length"`
}

// PortRegistry maps a normalized port key to its owner and queue,
// enforcing the single-owner invariant (spec §3).
type PortRegistry struct {
	mu    sync.Mutex
	ports map[string]*portEntry
}

// NewPortRegistry creates an empty port registry.
func NewPortRegistry() *PortRegistry {
	return &PortRegistry{ports: make(map[string]*portEntry)}
}

// NormalizePort coerces a numeric or string port identifier to the single
// canonical string form used at every entry point (listen, send_to_port,
// recv_from_port, unlisten, ownership checks), per the design notes'
// port-key normalization requirement.
func NormalizePort(port any) string {
	switch v := port.(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case int32:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Listen implements listen(port) (spec §4.5): claims ownership if
// unowned, is idempotent for the current owner, and fails for anyone
// else.
func (r *PortRegistry) Listen(port string, owner int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.ports[port]
	if !exists {
		r.ports[port] = &portEntry{owner: owner}
		return true
	}
	return entry.owner == owner
}

// Unlisten implements unlisten(port). Only the owner may remove the
// entry; its queued messages are discarded with it.
func (r *PortRegistry) Unlisten(port string, caller int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.ports[port]
	if !exists || entry.owner != caller {
		return false
	}
	delete(r.ports, port)
	return true
}

// Owner returns the current owner of port and whether it exists.
func (r *PortRegistry) Owner(port string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.ports[port]
	if !exists {
		return 0, false
	}
	return entry.owner, true
}

// Enqueue implements the buffering half of send_to_port: appends msg to
// port's queue. Returns false if the port does not exist.
func (r *PortRegistry) Enqueue(port string, msg PortMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.ports[port]
	if !exists {
		return false
	}
	entry.queue = append(entry.queue, msg)
	return true
}

// Dequeue pops the oldest message from port's queue, if any.
func (r *PortRegistry) Dequeue(port string) (PortMessage, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, exists := r.ports[port]
	if !exists || len(entry.queue) == 0 {
		return PortMessage{}, false
	}
	msg := entry.queue[0]
	entry.queue = entry.queue[1:]
	return msg, true
}

// ReapOwnedBy removes every port owned by pid, discarding their queues
// (spec §3, §4.9).
func (r *PortRegistry) ReapOwnedBy(pid int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for port, entry := range r.ports {
		if entry.owner == pid {
			delete(r.ports, port)
		}
	}
}

// TotalQueued returns the total number of buffered messages across every
// port, for the port-depth gauge.
func (r *PortRegistry) TotalQueued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, entry := range r.ports {
		total += len(entry.queue)
	}
	return total
}

// Snapshot implements ports_table() (spec §6).
func (r *PortRegistry) Snapshot() []PortSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PortSummary, 0, len(r.ports))
	for port, entry := range r.ports {
		out = append(out, PortSummary{Port: port, OwnerPID: entry.owner, QueueLength: len(entry.queue)})
	}
	return out
}
