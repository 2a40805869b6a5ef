package kernel

import (
	"context"
	"strconv"
	"time"

	"github.com/go-opsim/opsim/observability"
)

// dispatch is the syscall dispatcher (spec §4.2): a function of (PCB,
// syscall request, kernel state) that leaves the caller in exactly one of
// READY, BLOCKED, or TERMINATED, with pending_result set for the READY
// and (eventually) unblocked-BLOCKED cases.
//
// Every syscall type gets its own case; the default case implements both
// spec §4.1 step 5 (unrecognized yield is a no-op) and spec §7's "unknown
// syscall: logged, returns null, process continues".
func (k *Kernel) dispatch(p *Process, req SyscallRequest) {
	_, span := k.tracer.StartSpan(context.Background(), "syscall."+string(req.Type()),
		observability.IntAttr("pid", p.PID),
	)
	defer span.End()
	k.metrics.SyscallsTotal.WithLabelValues(string(req.Type())).Inc()

	switch r := req.(type) {
	case SleepRequest:
		k.dispatchSleep(p, r)
	case LogRequest:
		k.dispatchLog(p, r)
	case GetPIDRequest:
		p.PendingResult = p.PID
		p.State = StateReady
	case SendRequest:
		k.dispatchSend(p, r)
	case RecvRequest:
		k.dispatchRecv(p, r)
	case OpenRequest:
		k.dispatchOpen(p, r)
	case ReadRequest:
		k.dispatchRead(p, r)
	case WriteRequest:
		k.dispatchWrite(p, r)
	case CloseRequest:
		delete(p.FDTable, r.FD)
		p.PendingResult = 0
		p.State = StateReady
	case ExecRequest:
		k.dispatchExec(p, r)
	case ExitRequest:
		k.dispatchExit(p, r)
	case HeapSetRequest:
		if p.Heap == nil {
			p.Heap = make(map[string]any)
		}
		p.Heap[r.Key] = r.Value
		p.PendingResult = true
		p.State = StateReady
	case HeapGetRequest:
		p.PendingResult = p.Heap[r.Key]
		p.State = StateReady
	case ListenRequest:
		port := NormalizePort(r.Port)
		p.PendingResult = k.ports.Listen(port, p.PID)
		p.State = StateReady
	case UnlistenRequest:
		port := NormalizePort(r.Port)
		p.PendingResult = k.ports.Unlisten(port, p.PID)
		p.State = StateReady
	case SendPortRequest:
		k.dispatchSendPort(p, r)
	case RecvPortRequest:
		k.dispatchRecvPort(p, r)
	case SpawnRequest:
		k.dispatchSpawn(p, r)
	case KInfoRequest:
		k.dispatchKInfo(p, r)
	case ListFilesRequest:
		p.PendingResult = k.vfs.List()
		p.State = StateReady
	case ReadFileRequest:
		content, ok := k.vfs.ReadFile(r.Path)
		if !ok {
			p.PendingResult = nil
		} else {
			p.PendingResult = content
		}
		p.State = StateReady
	case WriteFileRequest:
		k.vfs.WriteFile(r.Path, r.Text, k.clock.Now())
		p.PendingResult = true
		p.State = StateReady
	case UnlinkRequest:
		p.PendingResult = k.vfs.Unlink(r.Path)
		p.State = StateReady
	case ListPortsRequest:
		p.PendingResult = k.ports.Snapshot()
		p.State = StateReady
	case KillRequest:
		k.dispatchKill(p, r)
	default:
		k.appendLog(p.PID, "unknown syscall type")
		k.logger.Warn("unknown_syscall", "pid", p.PID)
		p.PendingResult = nil
		p.State = StateReady
	}
}

func (k *Kernel) dispatchSleep(p *Process, r SleepRequest) {
	wake := k.clock.Now() + int64(r.MS)
	p.BlockReason = BlockSleep
	p.WakeTime = &wake
	p.State = StateBlocked
}

func (k *Kernel) dispatchLog(p *Process, r LogRequest) {
	k.appendLog(p.PID, r.Message)
	p.PendingResult = true
	p.State = StateReady
}

func (k *Kernel) appendLog(pid int, message string) {
	k.logs.append(k.clock.Now(), pid, message)
	k.logger.Info("kernel_log", "pid", pid, "message", message)
}

func (k *Kernel) dispatchSend(p *Process, r SendRequest) {
	msg := MailboxMessage{From: p.PID, Payload: r.Message, EnqueueAt: k.clock.Now(), TraceID: newTraceID()}
	k.mailboxes.Enqueue(r.To, msg)

	if target, ok := k.processes.Get(r.To); ok &&
		target.State == StateBlocked &&
		target.BlockReason == BlockRecvMailbox &&
		(target.WaitFrom == nil || *target.WaitFrom == p.PID) {
		k.tryDeliverMailbox(target)
	}

	p.PendingResult = true
	p.State = StateReady
}

// tryDeliverMailbox attempts to satisfy target's pending recv from its
// mailbox, waking it if a matching message is now available. Called both
// from send (synchronous delivery) and is safe to call speculatively.
func (k *Kernel) tryDeliverMailbox(target *Process) bool {
	var msg MailboxMessage
	var ok bool
	if target.WaitFrom == nil {
		msg, ok = k.mailboxes.DequeueAny(target.PID)
	} else {
		msg, ok = k.mailboxes.DequeueFrom(target.PID, *target.WaitFrom)
	}
	if !ok {
		return false
	}
	target.PendingResult = msg
	target.clearBlockFields()
	k.processes.MarkReady(target)
	return true
}

func (k *Kernel) dispatchRecv(p *Process, r RecvRequest) {
	var msg MailboxMessage
	var ok bool
	if r.From == nil {
		msg, ok = k.mailboxes.DequeueAny(p.PID)
	} else {
		msg, ok = k.mailboxes.DequeueFrom(p.PID, *r.From)
	}
	if ok {
		p.PendingResult = msg
		p.State = StateReady
		return
	}
	p.BlockReason = BlockRecvMailbox
	p.WaitFrom = r.From
	p.State = StateBlocked
}

func (k *Kernel) dispatchOpen(p *Process, r OpenRequest) {
	pos, ok := k.vfs.Open(r.Path, r.Mode, k.clock.Now())
	if !ok {
		p.PendingResult = -1
		p.State = StateReady
		return
	}
	fd := p.allocFD(normalizePath(r.Path), r.Mode, pos)
	p.PendingResult = fd
	p.State = StateReady
}

func (k *Kernel) dispatchRead(p *Process, r ReadRequest) {
	of, ok := p.FDTable[r.FD]
	if !ok || of.Mode == stdStreamMode {
		p.PendingResult = nil
		p.State = StateReady
		return
	}
	data, newPos := k.vfs.Read(of.Path, of.Position, r.N)
	of.Position = newPos
	p.PendingResult = data
	p.State = StateReady
}

func (k *Kernel) dispatchWrite(p *Process, r WriteRequest) {
	if r.FD == 1 || r.FD == 2 {
		k.logger.Info("process_stdio", "pid", p.PID, "fd", r.FD, "data", r.Data)
		p.PendingResult = len(r.Data)
		p.State = StateReady
		return
	}
	of, ok := p.FDTable[r.FD]
	if !ok || of.Mode == stdStreamMode {
		p.PendingResult = -1
		p.State = StateReady
		return
	}
	written, newPos := k.vfs.Write(of.Path, of.Position, r.Data, k.clock.Now())
	of.Position = newPos
	p.PendingResult = written
	p.State = StateReady
}

func (k *Kernel) dispatchExec(p *Process, r ExecRequest) {
	factory, ok := k.programs.Lookup(r.Program)
	if !ok {
		p.PendingResult = -1
		p.State = StateReady
		return
	}
	// exec replaces the routine in place, keeping pid, fd table, mailbox,
	// heap, and owned ports (spec §4.7, §9 open question: unlike a real
	// OS exec, none of that state resets).
	p.Routine = NewGoroutineRoutine(factory(r.Args...))
	p.PendingResult = 0
	p.State = StateReady
}

func (k *Kernel) dispatchExit(p *Process, r ExitRequest) {
	p.ExitCode = r.Code
	p.State = StateTerminated
	p.clearBlockFields()
}

func (k *Kernel) dispatchSendPort(p *Process, r SendPortRequest) {
	port := NormalizePort(r.Port)
	msg := PortMessage{FromPID: p.PID, Payload: r.Payload, EnqueueAt: k.clock.Now(), TraceID: newTraceID()}

	if !k.ports.Enqueue(port, msg) {
		p.PendingResult = false
		p.State = StateReady
		return
	}

	if ownerPID, ok := k.ports.Owner(port); ok {
		if owner, exists := k.processes.Get(ownerPID); exists &&
			owner.State == StateBlocked &&
			owner.BlockReason == BlockRecvPort &&
			owner.WaitPort == port {
			if delivered, ok := k.ports.Dequeue(port); ok {
				owner.PendingResult = delivered
				owner.clearBlockFields()
				k.processes.MarkReady(owner)
			}
		}
	}

	p.PendingResult = true
	p.State = StateReady
}

func (k *Kernel) dispatchRecvPort(p *Process, r RecvPortRequest) {
	port := NormalizePort(r.Port)
	ownerPID, exists := k.ports.Owner(port)
	if !exists || ownerPID != p.PID {
		p.PendingResult = nil
		p.State = StateReady
		return
	}

	if msg, ok := k.ports.Dequeue(port); ok {
		p.PendingResult = msg
		p.State = StateReady
		return
	}

	p.BlockReason = BlockRecvPort
	p.WaitPort = port
	if r.TimeoutMS != nil {
		deadline := k.clock.Now() + int64(*r.TimeoutMS)
		p.WaitTimeoutAt = &deadline
	}
	p.State = StateBlocked
}

func (k *Kernel) dispatchSpawn(p *Process, r SpawnRequest) {
	factory, ok := k.programs.Lookup(r.Program)
	if !ok {
		p.PendingResult = -1
		p.State = StateReady
		return
	}
	name := r.Name
	if name == "" {
		name = r.Program
	}
	priority := r.Priority
	if priority == 0 {
		priority = 1
	}

	newPID := k.processes.AllocatePID()
	routine := NewGoroutineRoutine(factory(r.Args...))
	child := newProcess(newPID, name, priority, routine, time.Now())
	k.processes.Insert(child)
	k.mailboxes.Register(newPID)
	k.metrics.ProcessesSpawned.Inc()
	k.logger.Info("process_spawned", "pid", newPID, "name", name, "priority", priority, "parent", p.PID)

	p.PendingResult = newPID
	p.State = StateReady
}

func (k *Kernel) dispatchKInfo(p *Process, r KInfoRequest) {
	switch r.Kind {
	case KInfoPS:
		p.PendingResult = k.ProcessTableSnapshot()
	case KInfoPorts:
		p.PendingResult = k.ports.Snapshot()
	case KInfoVFS:
		p.PendingResult = k.vfs.List()
	default:
		p.PendingResult = nil
	}
	p.State = StateReady
}

func (k *Kernel) dispatchKill(p *Process, r KillRequest) {
	k.appendLog(p.PID, "kill signal '"+r.Signal+"' sent to pid "+strconv.Itoa(r.Target))
	if target, ok := k.processes.Get(r.Target); ok && target.State != StateTerminated {
		target.ExitCode = -1
		target.State = StateTerminated
		target.clearBlockFields()
	}
	p.PendingResult = true
	p.State = StateReady
}
