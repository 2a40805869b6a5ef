package kernel

import (
	"fmt"
	"runtime/debug"
)

// dispatchSafely resumes dispatch under panic recovery: a panic inside a
// dispatch* handler terminates the calling process with exit code 1
// instead of taking the whole Tick down with it, mirroring how a
// StepCrashed routine is handled.
func (k *Kernel) dispatchSafely(p *Process, req SyscallRequest) {
	syscallErr := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				stack := string(debug.Stack())
				k.logger.Error("dispatch_panic_recovered",
					"pid", p.PID,
					"syscall", req.Type(),
					"panic", rec,
					"stack", stack,
				)
				err = fmt.Errorf("panic dispatching %s for pid %d: %v", req.Type(), p.PID, rec)
			}
		}()
		k.dispatch(p, req)
		return nil
	}()

	if syscallErr != nil {
		k.metrics.RoutineCrashesTotal.Inc()
		p.ExitCode = 1
		p.State = StateTerminated
		p.clearBlockFields()
		k.appendLog(p.PID, "kernel panic during dispatch: "+syscallErr.Error())
	}
}
