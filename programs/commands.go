package programs

import (
	"fmt"
	"strings"

	"github.com/go-opsim/opsim/kernel"
	"github.com/go-opsim/opsim/typeutil"
)

// PS logs the process table, one line per process (pid, name, state),
// and exits 0. A real
// shell would print to the caller's terminal; here the log ring is the
// only diagnostic channel, so PS writes there.
func PS(_ ...any) kernel.ProgramFunc {
	return func(sys *kernel.Syscalls) int {
		table, _ := sys.KernelInfo(kernel.KInfoPS).([]kernel.ProcessSummary)
		lines := make([]string, 0, len(table))
		for _, p := range table {
			lines = append(lines, fmt.Sprintf("%d\t%s\t%s", p.PID, p.Name, p.State))
		}
		sys.Log("ps:\n" + strings.Join(lines, "\n"))
		return 0
	}
}

// LS logs the file namespace's summary listing and exits 0.
func LS(_ ...any) kernel.ProgramFunc {
	return func(sys *kernel.Syscalls) int {
		files := sys.ListFiles()
		lines := make([]string, 0, len(files))
		for _, f := range files {
			lines = append(lines, fmt.Sprintf("%s\t%d", f.Path, f.Size))
		}
		sys.Log("ls:\n" + strings.Join(lines, "\n"))
		return 0
	}
}

// Cat reads args[0] as a path, logs its content (or a not-found note),
// and exits 0 on success or 1 if the file does not exist.
func Cat(args ...any) kernel.ProgramFunc {
	path, _ := typeutil.SafeString(firstArg(args))
	return func(sys *kernel.Syscalls) int {
		content := sys.ReadFile(path)
		if content == nil {
			sys.Log(fmt.Sprintf("cat: %s: no such file", path))
			return 1
		}
		sys.Log(fmt.Sprintf("cat %s:\n%s", path, *content))
		return 0
	}
}

// Rm removes args[0] and exits 0 if it existed, 1 otherwise.
func Rm(args ...any) kernel.ProgramFunc {
	path, _ := typeutil.SafeString(firstArg(args))
	return func(sys *kernel.Syscalls) int {
		if sys.Unlink(path) {
			sys.Log(fmt.Sprintf("rm: removed %s", path))
			return 0
		}
		sys.Log(fmt.Sprintf("rm: %s: no such file", path))
		return 1
	}
}

// Netstat logs the port table and exits 0.
func Netstat(_ ...any) kernel.ProgramFunc {
	return func(sys *kernel.Syscalls) int {
		ports := sys.ListPorts()
		lines := make([]string, 0, len(ports))
		for _, p := range ports {
			lines = append(lines, fmt.Sprintf("%s\t%d\t%d", p.Port, p.OwnerPID, p.QueueLength))
		}
		sys.Log("netstat:\n" + strings.Join(lines, "\n"))
		return 0
	}
}

func firstArg(args []any) any {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}
