package programs

import "github.com/go-opsim/opsim/kernel"

// target is anything that can absorb a program registration; satisfied
// by *kernel.Kernel.
type target interface {
	RegisterProgram(name string, factory kernel.Factory)
}

// RegisterAll installs every program in this package into k under its
// conventional name, so a host can call programs.RegisterAll(k) once at
// startup instead of repeating eight RegisterProgram calls.
func RegisterAll(k target) {
	k.RegisterProgram("echo_server", EchoServer)
	k.RegisterProgram("echo_client", EchoClient)
	k.RegisterProgram("shell", Shell)
	k.RegisterProgram("ps", PS)
	k.RegisterProgram("ls", LS)
	k.RegisterProgram("cat", Cat)
	k.RegisterProgram("rm", Rm)
	k.RegisterProgram("netstat", Netstat)
}
