// Kernel is the composition root for the process table, mailbox and port
// registries, file namespace, program registry, and clock. It composes:
//   - ProcessTable (process lifecycle + priority ready-queue)
//   - MailboxRegistry (direct pid-addressed IPC)
//   - PortRegistry (named, single-owner rendezvous IPC)
//   - VFS (in-memory file namespace)
//   - ProgramRegistry (name -> routine factory)
//   - Clock (logical time)
//   - a bounded log ring
package kernel

import (
	"time"

	"github.com/go-opsim/opsim/config"
	"github.com/go-opsim/opsim/observability"
)

// Logger is the structured logging contract the kernel writes through.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// noopLogger discards everything; used when NewKernel is given a nil
// logger so call sites never need a nil check.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Kernel is the single-node OS-kernel simulation described by spec.md.
type Kernel struct {
	logger Logger
	config *config.KernelConfig

	processes *ProcessTable
	mailboxes *MailboxRegistry
	ports     *PortRegistry
	vfs       *VFS
	programs  *ProgramRegistry
	clock     *Clock
	logs      *logRing

	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewKernel constructs a kernel. A nil cfg uses spec defaults
// (tick_ms=50); a nil logger discards log output; a nil vfs starts with
// an empty namespace seeded with /etc/motd.
func NewKernel(logger Logger, cfg *config.KernelConfig, vfs *VFS) (*Kernel, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg == nil {
		cfg = config.DefaultKernelConfig()
	}
	if cfg.TickMS <= 0 {
		return nil, &InvalidConfigError{Field: "tick_ms", Reason: "must be a positive integer"}
	}
	if vfs == nil {
		vfs = NewVFS()
		vfs.WriteFile("/etc/motd", defaultMOTD, 0)
	}

	k := &Kernel{
		logger:    logger,
		config:    cfg,
		processes: NewProcessTable(),
		mailboxes: NewMailboxRegistry(),
		ports:     NewPortRegistry(),
		vfs:       vfs,
		programs:  NewProgramRegistry(),
		clock:     NewClock(int64(cfg.TickMS)),
		logs:      newLogRing(),
		metrics:   observability.NewMetrics(),
		tracer:    observability.NewTracer("opsim-kernel"),
	}

	k.logger.Info("kernel_initialized", "tick_ms", cfg.TickMS)
	return k, nil
}

// SetGlobalTracer installs this kernel's tracer provider as the
// process-wide OpenTelemetry default, for a host that wants other
// instrumented code to share its trace context.
func (k *Kernel) SetGlobalTracer() {
	k.tracer.SetGlobal()
}

// RegisterProgram installs a userland program factory under name.
func (k *Kernel) RegisterProgram(name string, factory Factory) {
	k.programs.Register(name, factory)
	k.logger.Debug("program_registered", "name", name)
}

// Spawn is the host-facing entry point (spec §6): create and schedule a
// process running factory with opts, returning the new pid.
func (k *Kernel) Spawn(factory Factory, opts config.SpawnOptions) int {
	opts = opts.WithDefaults()
	pid := k.processes.AllocatePID()
	routine := NewGoroutineRoutine(factory(opts.Args...))

	p := newProcess(pid, opts.Name, opts.Priority, routine, time.Now())
	k.processes.Insert(p)
	k.mailboxes.Register(pid)
	k.metrics.ProcessesSpawned.Inc()
	k.logger.Info("process_spawned", "pid", pid, "name", opts.Name, "priority", opts.Priority)
	return pid
}

// ReapTerminated implements reap_terminated() (spec §4.9): removes every
// TERMINATED process from the table, along with its mailbox and every
// port it owns. This is explicit, host-driven cleanup, not a background
// goroutine, since nothing in this kernel runs without the host calling
// Tick or ReapTerminated directly.
func (k *Kernel) ReapTerminated() int {
	reaped := 0
	for _, p := range k.processes.All() {
		if p.State != StateTerminated {
			continue
		}
		k.mailboxes.Reap(p.PID)
		k.ports.ReapOwnedBy(p.PID)
		k.processes.Remove(p.PID)
		reaped++
	}
	if reaped > 0 {
		k.logger.Debug("reap_completed", "count", reaped)
	}
	return reaped
}

// Logger exposes the kernel's logger, for host binaries that want to log
// through the same sink.
func (k *Kernel) Logger() Logger { return k.logger }

// Now returns the kernel's current logical time.
func (k *Kernel) Now() int64 { return k.clock.Now() }

// SeedFile preloads a file into the namespace, for a host that wants to
// stage content before the first tick (e.g. from a HostConfig's
// seed_files map).
func (k *Kernel) SeedFile(path, content string) {
	k.vfs.WriteFile(path, content, k.clock.Now())
}

// SnapshotVFS renders the file namespace in the persistence contract's wire
// shape (spec §6), for a host that wants to serialize it to durable
// storage. Restore the result with RestoreVFS and pass that to NewKernel.
func (k *Kernel) SnapshotVFS() map[string]FileEntry {
	return k.vfs.Snapshot()
}
