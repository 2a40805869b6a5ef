// Package config provides kernel construction options.
//
// This module contains ONLY the options the kernel itself needs: the
// logical-time step per tick and, for the standalone host binary, which
// programs to seed and which files to preload. Anything about how a UI
// renders process/log/port snapshots belongs to the (out of scope) host,
// not here.
package config

// KernelConfig configures a Kernel (spec §6): "{tick_ms: positive
// integer, default 50}". tick_ms is the logical-time step per tick,
// independent of the host's wall-clock cadence.
type KernelConfig struct {
	TickMS int `json:"tick_ms" yaml:"tick_ms"`
}

// DefaultKernelConfig returns the default construction options: a 50ms
// logical tick step.
func DefaultKernelConfig() *KernelConfig {
	return &KernelConfig{TickMS: 50}
}

// SpawnOptions mirrors spec §6's spawn opts: {name, priority = 1, args = []}.
type SpawnOptions struct {
	Name     string
	Priority int
	Args     []any
}

// WithDefaults fills in the default priority for a zero-valued field.
func (o SpawnOptions) WithDefaults() SpawnOptions {
	if o.Priority == 0 {
		o.Priority = 1
	}
	return o
}

// HostConfig is the optional YAML overlay for cmd/simkerneld: kernel
// options plus a batch of programs to spawn at startup and files to seed
// into the namespace before the first tick.
type HostConfig struct {
	Kernel    KernelConfig      `yaml:"kernel"`
	SeedFiles map[string]string `yaml:"seed_files"`
	AutoSpawn []AutoSpawnEntry  `yaml:"auto_spawn"`
	TickCount int               `yaml:"tick_count"`
}

// AutoSpawnEntry names a program the host should spawn at startup.
type AutoSpawnEntry struct {
	Program  string `yaml:"program"`
	Name     string `yaml:"name"`
	Priority int    `yaml:"priority"`
	Args     []any  `yaml:"args"`
}

// DefaultHostConfig returns sane defaults for the standalone binary.
func DefaultHostConfig() *HostConfig {
	return &HostConfig{
		Kernel:    *DefaultKernelConfig(),
		TickCount: 200,
	}
}
