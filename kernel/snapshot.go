package kernel

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-opsim/opsim/observability"
)

// ProcessSummary is the read-only projection returned by process_table()
// (spec §6).
type ProcessSummary struct {
	PID         int          `json:"pid"`
	Name        string       `json:"name"`
	Priority    int          `json:"priority"`
	State       ProcessState `json:"state"`
	BlockReason BlockReason  `json:"block_reason"`
	WakeTime    *int64       `json:"wake_time,omitempty"`
	ExitCode    int          `json:"exit_code"`
	SpawnTime   int64        `json:"spawn_time_unix_ms"`
}

// ProcessTableSnapshot implements process_table() (spec §6): every live
// process, sorted by pid for deterministic host-side rendering.
func (k *Kernel) ProcessTableSnapshot() []ProcessSummary {
	all := k.processes.All()
	out := make([]ProcessSummary, 0, len(all))
	for _, p := range all {
		out = append(out, ProcessSummary{
			PID:         p.PID,
			Name:        p.Name,
			Priority:    p.Priority,
			State:       p.State,
			BlockReason: p.BlockReason,
			WakeTime:    p.WakeTime,
			ExitCode:    p.ExitCode,
			SpawnTime:   p.SpawnTime.UnixMilli(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// PortsTable implements ports_table() (spec §6).
func (k *Kernel) PortsTable() []PortSummary {
	return k.ports.Snapshot()
}

// ListFiles implements list_files() (spec §6) for host callers.
func (k *Kernel) ListFiles() []FileSummary {
	return k.vfs.List()
}

// Logs implements logs(limit) (spec §6): the limit most-recent-last
// entries from the kernel's bounded log ring.
func (k *Kernel) Logs(limit int) []LogEntry {
	return k.logs.recent(limit)
}

// RecentSpans returns the limit most-recent-last syscall-dispatch spans
// recorded by the kernel's in-process tracer, for a host that wants to
// inspect per-syscall tracing without a real collector attached.
func (k *Kernel) RecentSpans(limit int) []observability.SpanRecord {
	return k.tracer.RecentSpans(limit)
}

// MetricsRegistry exposes the kernel's isolated Prometheus registry, for
// a host that wants to serve it over /metrics.
func (k *Kernel) MetricsRegistry() *prometheus.Registry {
	return k.metrics.Registry()
}
