//go:build linux

package secverify

import "golang.org/x/sys/unix"

// SyscallStep is one entry of a scripted syscall sequence: the syscall to
// issue and the outcome it is expected to produce. Outcomes follow the
// libc convention: a step that fails has Ret -1 and a nonzero Errno, a
// step that succeeds has Errno 0.
type SyscallStep struct {
	// Nr is the syscall number for the subject's architecture.
	Nr uint32 `json:"nr"`

	// Args are the six syscall arguments; unused ones are zero.
	Args [6]uint64 `json:"args"`

	// Ret is the expected return value.
	Ret int64 `json:"ret"`

	// Errno is the expected errno, 0 for success.
	Errno uint32 `json:"errno"`

	// IgnoreRet compares only Errno, for syscalls whose successful return
	// value cannot be known when the script is built (getpid, getrandom).
	IgnoreRet bool `json:"ignoreRet,omitempty"`
}

// Script is an ordered sequence of syscall steps, executed strictly in
// order inside the subject process.
type Script []SyscallStep

// rawSyscallFn issues a raw syscall; overridden in tests.
var rawSyscallFn = unix.RawSyscall6

// runScript executes the script in order and stops at the first step
// whose outcome does not match. It returns 0 when every step matched,
// otherwise the 1-based index of the first mismatching step. The index
// becomes the subject's exit status: the only channel out of a fully
// sandboxed subject.
func runScript(script Script) int {
	for i, step := range script {
		r1, _, errno := rawSyscallFn(uintptr(step.Nr),
			uintptr(step.Args[0]), uintptr(step.Args[1]), uintptr(step.Args[2]),
			uintptr(step.Args[3]), uintptr(step.Args[4]), uintptr(step.Args[5]))
		ret := int64(r1)
		if errno != 0 {
			ret = -1
		}
		if uint32(errno) != step.Errno || (!step.IgnoreRet && ret != step.Ret) {
			return i + 1
		}
	}
	return 0
}
