package programs

import (
	"fmt"

	"github.com/go-opsim/opsim/kernel"
	"github.com/go-opsim/opsim/typeutil"
)

// ShellPort is the conventional port the shell listens on (spec §6).
const ShellPort = 9999

// Shell listens on ShellPort for {command: string, args: [...]} requests
// and replies over the caller's mailbox with a SHELL_RESULT envelope.
// The shell itself never executes a command directly: every recognized
// command is a child process spawned by name, matching scenario 6's
// "the shell spawns a ps child and replies" contract.
func Shell(_ ...any) kernel.ProgramFunc {
	return func(sys *kernel.Syscalls) int {
		if !sys.Listen(ShellPort) {
			sys.Log("shell: port already owned")
			return 1
		}
		sys.Log(fmt.Sprintf("shell: listening on %d", ShellPort))
		for {
			msg := sys.RecvFromPort(ShellPort, nil)
			if msg == nil {
				continue
			}
			reply := dispatchCommand(sys, msg.Payload)
			sys.Send(msg.FromPID, reply)
		}
	}
}

func dispatchCommand(sys *kernel.Syscalls, payload any) map[string]any {
	request, ok := typeutil.SafeMapStringAny(payload)
	if !ok {
		return shellResult(false, "malformed request")
	}
	command, ok := typeutil.SafeString(request["command"])
	if !ok || command == "" {
		return shellResult(false, "missing command")
	}
	args, _ := typeutil.SafeSlice(request["args"])

	if _, registered := shellCommands[command]; !registered {
		return shellResult(false, fmt.Sprintf("unknown command %q", command))
	}

	pid := sys.Spawn(command, command, 1, args...)
	if pid == -1 {
		return shellResult(false, fmt.Sprintf("program %q not registered", command))
	}
	return shellResult(true, fmt.Sprintf("Started %s (pid=%d)", command, pid))
}

func shellResult(ok bool, output string) map[string]any {
	return map[string]any{
		"type":   "SHELL_RESULT",
		"ok":     ok,
		"output": output,
	}
}

// shellCommands is the set of program names the shell will spawn on
// request; every entry must also be registered in the kernel's program
// registry by the host for a spawn to actually succeed.
var shellCommands = map[string]bool{
	"ps":      true,
	"ls":      true,
	"cat":     true,
	"rm":      true,
	"netstat": true,
}
