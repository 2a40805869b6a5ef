package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-opsim/opsim/config"
)

// TestKernel_GetPID_ReturnsOwnPID exercises the GET_PID syscall end to end.
func TestKernel_GetPID_ReturnsOwnPID(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var seen int
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			seen = sys.GetPID()
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	pid := k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	assert.Equal(t, pid, seen)
}

// TestKernel_HeapSetGet_RoundTripsPerProcess covers the per-process
// key/value heap: a value set by one syscall is visible to a later get by
// the same process.
func TestKernel_HeapSetGet_RoundTripsPerProcess(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var got any
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			sys.HeapSet("color", "blue")
			got = sys.HeapGet("color")
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	assert.Equal(t, "blue", got)
}

// TestKernel_HeapGet_UnknownKeyReturnsNil covers the miss case: getting a
// key nobody set resolves to nil, not a zero value or panic.
func TestKernel_HeapGet_UnknownKeyReturnsNil(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var got any
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			got = sys.HeapGet("missing")
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	assert.Nil(t, got)
}

// TestKernel_WriteFile_ThenReadFile_RoundTrips covers the write_file/
// read_file pair used by userland programs that don't go through a file
// descriptor.
func TestKernel_WriteFile_ThenReadFile_RoundTrips(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var readBack *string
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			sys.WriteFile("/scratch/note", "hello")
			readBack = sys.ReadFile("/scratch/note")
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	require.NotNil(t, readBack)
	assert.Equal(t, "hello", *readBack)
}

// TestKernel_OpenWriteReadClose_FullSyscallSurface drives the file-
// descriptor path through the actual syscalls rather than the VFS's own
// methods directly: open for write, write at an offset, close, reopen for
// read, and read the bytes back, confirming allocFD and the fd table carry
// position state across calls by the same process.
func TestKernel_OpenWriteReadClose_FullSyscallSurface(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)
	k.SeedFile("/data", "0123456789")

	var writeFD, readFD int
	var written int
	var readBack *string
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			writeFD = sys.Open("/data", OpenWrite)
			written = sys.Write(writeFD, "AB")
			written += sys.Write(writeFD, "CD")
			sys.Close(writeFD)

			readFD = sys.Open("/data", OpenRead)
			readBack = sys.Read(readFD, nil)
			sys.Close(readFD)

			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(10)

	<-done
	assert.NotEqual(t, -1, writeFD)
	assert.Equal(t, 4, written)
	require.NotNil(t, readBack)
	assert.Equal(t, "ABCD", *readBack)
}

// TestKernel_Write_StdoutStderrFDsBypassFileTable covers the fd==1/2
// diagnostic special case: writing to the pre-allocated stdout/stderr
// descriptors never touches the VFS and always reports the byte count
// written, even though neither fd was ever open()'d.
func TestKernel_Write_StdoutStderrFDsBypassFileTable(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var stdout, stderr int
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			stdout = sys.Write(1, "hi")
			stderr = sys.Write(2, "oops")
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	assert.Equal(t, 2, stdout)
	assert.Equal(t, 4, stderr)
}

// TestKernel_Read_UnknownFDReturnsNil covers the bad-fd path: reading a
// descriptor the process never opened resolves to the null sentinel
// instead of panicking on a missing map entry.
func TestKernel_Read_UnknownFDReturnsNil(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	var result *string
	done := make(chan struct{})
	program := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			result = sys.Read(99, nil)
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(program, config.SpawnOptions{})
	k.RunUntilIdle(5)

	<-done
	assert.Nil(t, result)
}

// TestKernel_Kill_ThenReap_RemovesMailboxPortAndPCB covers spec §8's
// required property: after kill(pid) followed by reap_terminated(), no
// mailbox, port, or PCB carrying that pid remains. The victim owns a port
// and holds a buffered mailbox message when it is killed.
func TestKernel_Kill_ThenReap_RemovesMailboxPortAndPCB(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)

	blockForever := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			sys.Listen("victim-port")
			sys.Recv(nil) // blocks indefinitely; never resumes
			sys.Exit(0)
			return 0
		}
	}
	victimPID := k.Spawn(blockForever, config.SpawnOptions{Priority: 1})
	k.Tick() // LISTEN
	k.Tick() // RECV, blocks on mailbox

	v, ok := k.processes.Get(victimPID)
	require.True(t, ok)
	require.Equal(t, StateBlocked, v.State)

	k.mailboxes.Enqueue(victimPID, MailboxMessage{From: 0, Payload: "buffered"})
	require.Equal(t, 1, k.mailboxes.TotalQueued())

	killer := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			sys.Kill(victimPID, "SIGKILL")
			sys.Exit(0)
			return 0
		}
	}
	k.Spawn(killer, config.SpawnOptions{Priority: 2})
	k.RunUntilIdle(5)

	v, ok = k.processes.Get(victimPID)
	require.True(t, ok)
	assert.Equal(t, StateTerminated, v.State)

	reaped := k.ReapTerminated()
	assert.GreaterOrEqual(t, reaped, 1)

	_, stillThere := k.processes.Get(victimPID)
	assert.False(t, stillThere)

	_, portOwned := k.ports.Owner("victim-port")
	assert.False(t, portOwned)

	assert.Equal(t, 0, k.mailboxes.TotalQueued())
}

// TestKernel_Exec_PreservesFDTableHeapAndOwnedPort covers the open
// question recorded for exec (spec §4.7, §9): unlike a real OS exec, pid,
// fd table, mailbox, heap, and owned ports all survive exec's replacement
// of the running routine.
func TestKernel_Exec_PreservesFDTableHeapAndOwnedPort(t *testing.T) {
	k, err := NewKernel(nil, nil, nil)
	require.NoError(t, err)
	k.SeedFile("/keep", "persisted")

	var pidBefore, pidAfter int
	var fdBefore int
	var heapAfter any
	var readAfter *string
	done := make(chan struct{})

	second := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			pidAfter = sys.GetPID()
			heapAfter = sys.HeapGet("carried")
			readAfter = sys.Read(fdBefore, nil)
			close(done)
			sys.Exit(0)
			return 0
		}
	}
	k.RegisterProgram("exec_target", second)

	first := func(args ...any) ProgramFunc {
		return func(sys *Syscalls) int {
			pidBefore = sys.GetPID()
			fdBefore = sys.Open("/keep", OpenRead)
			sys.HeapSet("carried", "yes")
			sys.Listen("exec-port")
			sys.Exec("exec_target")
			// exec replaces the routine; this program never resumes.
			return 0
		}
	}
	k.Spawn(first, config.SpawnOptions{})
	k.RunUntilIdle(10)

	<-done
	assert.Equal(t, pidBefore, pidAfter)
	assert.Equal(t, "yes", heapAfter)
	require.NotNil(t, readAfter)
	assert.Equal(t, "persisted", *readAfter)

	ownerPID, stillOwner := k.ports.Owner("exec-port")
	assert.True(t, stillOwner)
	assert.Equal(t, pidAfter, ownerPID)
}
