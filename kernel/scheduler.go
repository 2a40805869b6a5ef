package kernel

// TickResult reports what happened during one Tick call, for a host that
// wants to print per-tick activity.
type TickResult struct {
	Time    int64
	Ran     bool
	PID     int
	Crashed bool
}

// Tick runs exactly one syscall of exactly one process (spec §4.1):
//
//  1. advance the logical clock
//  2. unblock any process whose sleep or port-recv timeout has elapsed
//  3. select the highest-priority ready process, skipping stale entries
//  4. resume it and dispatch whatever it yields
//  5. an unrecognized yield is a no-op, logged and returned as null
//
// If nothing is runnable, Tick still advances the clock and returns
// Ran=false.
func (k *Kernel) Tick() TickResult {
	now := k.clock.Advance()
	k.metrics.TicksTotal.Inc()

	k.unblockTimedOut(now)
	k.refreshStateMetrics()

	p := k.processes.SelectNext()
	if p == nil {
		return TickResult{Time: now, Ran: false}
	}

	p.State = StateRunning
	result := p.Routine.Step(p.PendingResult)
	p.PendingResult = nil

	switch result.Kind {
	case StepYielded:
		k.dispatchSafely(p, result.Request)
		if p.State == StateReady {
			k.processes.MarkReady(p)
		}
	case StepDone:
		p.ExitCode = result.Value
		p.State = StateTerminated
		p.clearBlockFields()
		k.appendLog(p.PID, "process exited")
	case StepCrashed:
		k.metrics.RoutineCrashesTotal.Inc()
		p.ExitCode = 1
		p.State = StateTerminated
		p.clearBlockFields()
		k.appendLog(p.PID, "process crashed: "+result.Err.Error())
		k.logger.Error("process_crashed", "pid", p.PID, "error", result.Err)
	}

	return TickResult{Time: now, Ran: true, PID: p.PID, Crashed: result.Kind == StepCrashed}
}

// unblockTimedOut implements the timed-unblock pass (spec §4.1 step 2):
// any process sleeping past its wake_time, or waiting on a port past its
// wait_timeout_at, becomes READY. A timed-out port wait resolves with a
// nil pending_result, the same null sentinel a non-owner recv_from_port
// gets.
func (k *Kernel) unblockTimedOut(now int64) {
	for _, p := range k.processes.All() {
		if p.State != StateBlocked {
			continue
		}
		switch p.BlockReason {
		case BlockSleep:
			if p.WakeTime != nil && *p.WakeTime <= now {
				p.PendingResult = true
				p.clearBlockFields()
				k.processes.MarkReady(p)
			}
		case BlockRecvPort:
			if p.WaitTimeoutAt != nil && *p.WaitTimeoutAt <= now {
				p.PendingResult = nil
				p.clearBlockFields()
				k.processes.MarkReady(p)
			}
		}
	}
}

func (k *Kernel) refreshStateMetrics() {
	counts := map[ProcessState]int{}
	ready := 0
	for _, p := range k.processes.All() {
		counts[p.State]++
		if p.State == StateReady {
			ready++
		}
	}
	for _, state := range []ProcessState{StateReady, StateRunning, StateBlocked, StateTerminated} {
		k.metrics.ProcessesByState.WithLabelValues(string(state)).Set(float64(counts[state]))
	}
	k.metrics.ReadyQueueDepth.Set(float64(ready))
	k.metrics.MailboxQueueDepth.Set(float64(k.mailboxes.TotalQueued()))
	k.metrics.PortQueueDepth.Set(float64(k.ports.TotalQueued()))
}

// RunUntilIdle ticks the kernel until no process is runnable or maxTicks
// is reached, whichever comes first. Returns the number of ticks that
// actually ran a process.
func (k *Kernel) RunUntilIdle(maxTicks int) int {
	ran := 0
	for i := 0; i < maxTicks; i++ {
		res := k.Tick()
		if res.Ran {
			ran++
		} else if k.allTerminatedOrBlocked() {
			break
		}
	}
	return ran
}

func (k *Kernel) allTerminatedOrBlocked() bool {
	for _, p := range k.processes.All() {
		if p.State == StateReady || p.State == StateRunning {
			return false
		}
	}
	return true
}
