// Package policy compiles a small textual syscall-filter policy language
// into a seccomp BPF program ready to install with
// prctl(PR_SET_SECCOMP, SECCOMP_MODE_FILTER, ...).
//
// The language is line-oriented. Comments start with "//" or "#" and run
// to end of line. A policy consists of exactly one default action and any
// number of rule blocks:
//
//	default allow
//	kill  { ptrace, mount }
//	trap  { reboot }
//	errno(EACCES) { openat, swapoff }
//
// Actions are allow, kill, trap and errno(E), where E is an errno name
// (EACCES, EPERM, ...) or a decimal number. Syscalls are referenced by
// name and resolved against a per-architecture table; naming a syscall
// the running architecture does not have is a compilation error.
//
// The generated program checks the audit architecture first and kills the
// process on a mismatch, then dispatches on the syscall number. The kill
// action uses SECCOMP_RET_KILL_PROCESS, so a killed subject terminates as
// a whole with SIGSYS.
package policy
