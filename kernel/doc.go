// Package kernel implements a single-node, in-process simulation of a
// small operating-system kernel.
//
// Userland programs are expressed as resumable routines that yield typed
// syscall requests; the kernel steps them cooperatively one syscall at a
// time, maintains a process table, routes messages between processes by
// destination pid and by named port, and exposes an in-memory file
// namespace with positional descriptors.
//
// Key concepts:
//   - Process: kernel-maintained record for one running routine (the PCB).
//   - Tick: one step of the scheduler, advancing exactly one process by
//     exactly one syscall.
//   - Mailbox: per-pid queue of direct messages.
//   - Port: named rendezvous queue with a single owner.
//   - VFS: the in-memory file namespace.
package kernel
