//go:build linux

package secverify

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Function variables for the install syscalls, overridden in tests.
var (
	prctlFn = unix.Prctl

	seccompInstallFn = func(fprog *unix.SockFprog) error {
		_, _, errno := unix.RawSyscall(unix.SYS_PRCTL, unix.PR_SET_SECCOMP,
			unix.SECCOMP_MODE_FILTER, uintptr(unsafe.Pointer(fprog)))
		if errno != 0 {
			return errno
		}
		return nil
	}
)

// installFilter applies the filter to the calling thread: first
// PR_SET_NO_NEW_PRIVS (required to install a filter without
// CAP_SYS_ADMIN), then PR_SET_SECCOMP in filter mode. The caller must be
// locked to its OS thread and must be the thread that will execute the
// subject, since the filter binds to the installing thread.
func installFilter(filter []unix.SockFilter) error {
	if len(filter) == 0 {
		return errors.New("empty filter program")
	}
	if err := prctlFn(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl(PR_SET_NO_NEW_PRIVS): %w", err)
	}
	fprog := unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}
	if err := seccompInstallFn(&fprog); err != nil {
		return fmt.Errorf("prctl(PR_SET_SECCOMP): %w", err)
	}
	return nil
}
