// Package observability provides Prometheus metrics and in-process
// tracing for the kernel, scoped to scheduler ticks and syscalls.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every Prometheus collector the kernel updates. Each
// Kernel owns its own registry so multiple kernels (e.g. one per test)
// never collide on global metric names.
type Metrics struct {
	registry *prometheus.Registry

	TicksTotal          prometheus.Counter
	SyscallsTotal       *prometheus.CounterVec
	ProcessesSpawned    prometheus.Counter
	ProcessesByState    *prometheus.GaugeVec
	ReadyQueueDepth     prometheus.Gauge
	MailboxQueueDepth   prometheus.Gauge
	PortQueueDepth      prometheus.Gauge
	RoutineCrashesTotal prometheus.Counter
}

// NewMetrics registers a fresh, isolated set of collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsim_ticks_total",
			Help: "Total number of scheduler ticks executed.",
		}),
		SyscallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "opsim_syscalls_total",
			Help: "Total number of syscalls dispatched, by type.",
		}, []string{"type"}),
		ProcessesSpawned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsim_processes_spawned_total",
			Help: "Total number of processes spawned.",
		}),
		ProcessesByState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "opsim_processes_by_state",
			Help: "Current process count, by state.",
		}, []string{"state"}),
		ReadyQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "opsim_scheduler_ready_queue_depth",
			Help: "Number of processes currently READY.",
		}),
		MailboxQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "opsim_mailbox_queue_depth",
			Help: "Total buffered messages across all mailboxes.",
		}),
		PortQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "opsim_port_queue_depth",
			Help: "Total buffered messages across all port queues.",
		}),
		RoutineCrashesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "opsim_routine_crashes_total",
			Help: "Total number of routines that terminated via panic.",
		}),
	}

	reg.MustRegister(
		m.TicksTotal,
		m.SyscallsTotal,
		m.ProcessesSpawned,
		m.ProcessesByState,
		m.ReadyQueueDepth,
		m.MailboxQueueDepth,
		m.PortQueueDepth,
		m.RoutineCrashesTotal,
	)
	return m
}

// Registry exposes the underlying Prometheus registry, e.g. for a host
// binary that wants to serve /metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
