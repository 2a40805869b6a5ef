package kernel

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-opsim/opsim/config"
)

type testLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *testLogger) Debug(msg string, _ ...any) { l.record("DEBUG: " + msg) }
func (l *testLogger) Info(msg string, _ ...any)  { l.record("INFO: " + msg) }
func (l *testLogger) Warn(msg string, _ ...any)  { l.record("WARN: " + msg) }
func (l *testLogger) Error(msg string, _ ...any) { l.record("ERROR: " + msg) }

func (l *testLogger) record(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, s)
}

func (l *testLogger) has(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.logs {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

// exitLoop yields a single EXIT syscall with code.
func exitLoop(code int) ProgramFunc {
	return func(sys *Syscalls) int {
		sys.Exit(code)
		return code
	}
}

func TestNewKernel_Defaults(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, k)

	text, found := k.vfs.ReadFile("/etc/motd")
	assert.True(t, found)
	assert.Equal(t, defaultMOTD, text)
}

func TestNewKernel_InvalidTickMS(t *testing.T) {
	_, err := NewKernel(nil, &config.KernelConfig{TickMS: 0}, nil)
	require.Error(t, err)
	var cfgErr *InvalidConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestKernel_SpawnAndTick_ExitsWithCode(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	pid := k.Spawn(func(args ...any) ProgramFunc { return exitLoop(7) }, config.SpawnOptions{Name: "quit"})
	k.Tick()

	p, ok := k.processes.Get(pid)
	require.True(t, ok)
	assert.Equal(t, StateTerminated, p.State)
	assert.Equal(t, 7, p.ExitCode)
}

func TestKernel_ReapTerminated(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	pid := k.Spawn(func(args ...any) ProgramFunc { return exitLoop(0) }, config.SpawnOptions{})
	k.Tick()

	reaped := k.ReapTerminated()
	assert.Equal(t, 1, reaped)
	_, ok := k.processes.Get(pid)
	assert.False(t, ok)
}

func TestKernel_UnknownSyscallIsNoOp(t *testing.T) {
	logger := &testLogger{}
	k, err := NewKernel(logger, nil, nil)
	require.NoError(t, err)

	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			sys.yield(unknownRequest{})
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.Tick() // dispatches the unknown syscall
	k.Tick() // now runs exit

	assert.True(t, logger.has("unknown_syscall"))
}

// unknownRequest satisfies SyscallRequest but matches no dispatcher case.
type unknownRequest struct{}

func (unknownRequest) Type() SyscallType { return SyscallType("BOGUS") }
