package kernel

import "sync"

// MailboxMessage is a direct, pid-addressed message (spec §3): it carries
// From, distinguishing it at the interface level from a PortMessage which
// carries FromPID and belongs to a port queue instead.
type MailboxMessage struct {
	From      int    `json:"from"`
	Payload   any    `json:"payload"`
	EnqueueAt int64  `json:"enqueue_time"`
	TraceID   string `json:"trace_id"`
}

// MailboxRegistry holds one ordered queue of MailboxMessage per pid.
type MailboxRegistry struct {
	mu    sync.Mutex
	boxes map[int][]MailboxMessage
}

// NewMailboxRegistry creates an empty mailbox registry.
func NewMailboxRegistry() *MailboxRegistry {
	return &MailboxRegistry{boxes: make(map[int][]MailboxMessage)}
}

// Register creates an empty mailbox for pid, matching spawn's
// "register an empty mailbox" step (spec §4.7). Safe to call more than
// once.
func (m *MailboxRegistry) Register(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boxes[pid]; !ok {
		m.boxes[pid] = nil
	}
}

// Enqueue appends msg to pid's mailbox, creating it if absent. Send never
// fails on an unknown pid (spec §4.4): the message is simply buffered
// against a pid that may never claim it.
func (m *MailboxRegistry) Enqueue(pid int, msg MailboxMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boxes[pid] = append(m.boxes[pid], msg)
}

// DequeueAny pops the oldest message for pid, if any.
func (m *MailboxRegistry) DequeueAny(pid int) (MailboxMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.boxes[pid]
	if len(queue) == 0 {
		return MailboxMessage{}, false
	}
	msg := queue[0]
	m.boxes[pid] = queue[1:]
	return msg, true
}

// DequeueFrom pops the oldest message from `from` for pid, preserving the
// FIFO order of every other sender's messages (spec §4.4 ordering
// guarantee).
func (m *MailboxRegistry) DequeueFrom(pid, from int) (MailboxMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	queue := m.boxes[pid]
	for i, msg := range queue {
		if msg.From == from {
			m.boxes[pid] = append(queue[:i:i], queue[i+1:]...)
			return msg, true
		}
	}
	return MailboxMessage{}, false
}

// TotalQueued returns the total number of buffered messages across every
// mailbox, for the mailbox-depth gauge.
func (m *MailboxRegistry) TotalQueued() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, queue := range m.boxes {
		total += len(queue)
	}
	return total
}

// Reap discards pid's mailbox entirely (spec §4.9).
func (m *MailboxRegistry) Reap(pid int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.boxes, pid)
}
