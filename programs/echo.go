// Package programs holds userland routines that exercise the kernel's
// syscall surface end to end: an echo server/client pair over ports, a
// shell that dispatches commands over its own well-known port, and the
// small commands the shell can spawn.
package programs

import (
	"fmt"

	"github.com/go-opsim/opsim/kernel"
)

// EchoServerPort is the conventional port for the echo server; nothing in
// the kernel treats it specially (spec §4.5's reserved-ports note).
const EchoServerPort = 8080

// EchoServer listens on EchoServerPort and, for every request it
// receives there, replies over the sender's direct mailbox with
// {echo: true, reply: payload} until killed. The reply travels by
// mailbox rather than by port since recv_from_port is owner-only and the
// client is never the port's owner.
func EchoServer(_ ...any) kernel.ProgramFunc {
	return func(sys *kernel.Syscalls) int {
		if !sys.Listen(EchoServerPort) {
			sys.Log("echo_server: port already owned")
			return 1
		}
		sys.Log(fmt.Sprintf("echo_server: listening on %d", EchoServerPort))
		for {
			msg := sys.RecvFromPort(EchoServerPort, nil)
			if msg == nil {
				continue
			}
			sys.Send(msg.FromPID, map[string]any{
				"echo":  true,
				"reply": msg.Payload,
			})
		}
	}
}

// EchoClient sends message to the echo server on port and waits on its
// own mailbox for a reply, logging it and exiting 0. It exits 1 only if
// the send itself fails (no such port); the mailbox recv that follows
// has no timeout, so a dead server leaves the client blocked rather
// than failing it.
func EchoClient(args ...any) kernel.ProgramFunc {
	port := EchoServerPort
	var message any = "hi"
	if len(args) > 0 {
		if p, ok := args[0].(int); ok {
			port = p
		}
	}
	if len(args) > 1 {
		message = args[1]
	}

	return func(sys *kernel.Syscalls) int {
		ok := sys.SendToPort(port, message)
		if !ok {
			sys.Log("echo_client: no such port")
			return 1
		}
		reply := sys.Recv(nil)
		sys.Log(fmt.Sprintf("reply = %v", reply.Payload))
		return 0
	}
}
