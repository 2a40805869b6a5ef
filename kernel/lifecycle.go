package kernel

import (
	"container/heap"
	"sync"
)

// readyItem is one entry in the ready-queue heap: a pid plus enough
// ordering data to reproduce "highest priority, then lowest pid" without
// re-deriving it from the process table on every pop.
type readyItem struct {
	pid      int
	priority int
	index    int
}

// readyQueue is a container/heap.Interface ordered so Pop always returns
// the highest-priority, lowest-pid ready process (spec §4.1 step 3):
// higher Priority sorts first; ties break on lower pid.
type readyQueue []*readyItem

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].pid < q[j].pid
}

func (q readyQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *readyQueue) Push(x any) {
	item := x.(*readyItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// ProcessTable owns every live Process and the pid allocator, plus a
// ready-queue heap mirroring which pids are currently runnable. Pushing
// happens on every READY transition; popping skips entries whose process
// has since moved on (killed, or resumed by an earlier pop this tick).
type ProcessTable struct {
	mu        sync.Mutex
	processes map[int]*Process
	nextPID   int
	ready     readyQueue
}

// NewProcessTable creates an empty process table. Pids are allocated
// starting at 1 and are never reused.
func NewProcessTable() *ProcessTable {
	pt := &ProcessTable{
		processes: make(map[int]*Process),
		nextPID:   1,
	}
	heap.Init(&pt.ready)
	return pt
}

// AllocatePID returns the next unique pid, monotonically increasing over
// the table's lifetime.
func (pt *ProcessTable) AllocatePID() int {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pid := pt.nextPID
	pt.nextPID++
	return pid
}

// Insert adds a newly-constructed, READY process to the table and enqueues
// it for scheduling.
func (pt *ProcessTable) Insert(p *Process) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.processes[p.PID] = p
	heap.Push(&pt.ready, &readyItem{pid: p.PID, priority: p.Priority})
}

// MarkReady transitions p to READY and enqueues it, used by every
// unblock/wakeup path (sleep expiry, mailbox delivery, port delivery,
// port timeout, non-blocking syscall return).
func (pt *ProcessTable) MarkReady(p *Process) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	p.State = StateReady
	heap.Push(&pt.ready, &readyItem{pid: p.PID, priority: p.Priority})
}

// Get returns the process for pid, if it is still live.
func (pt *ProcessTable) Get(pid int) (*Process, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	p, ok := pt.processes[pid]
	return p, ok
}

// SelectNext pops and returns the highest-priority ready process,
// skipping stale entries, or nil if none are runnable (spec §4.1 steps
// 3-4).
func (pt *ProcessTable) SelectNext() *Process {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	for pt.ready.Len() > 0 {
		item := heap.Pop(&pt.ready).(*readyItem)
		p, ok := pt.processes[item.pid]
		if !ok || p.State != StateReady {
			continue
		}
		return p
	}
	return nil
}

// All returns every live process, in no particular order. Callers that
// need determinism (timed-unblock pass, snapshots) sort explicitly.
func (pt *ProcessTable) All() []*Process {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	out := make([]*Process, 0, len(pt.processes))
	for _, p := range pt.processes {
		out = append(out, p)
	}
	return out
}

// Remove deletes pid from the table outright (used by reap).
func (pt *ProcessTable) Remove(pid int) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.processes, pid)
}
