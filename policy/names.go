//go:build linux

package policy

import (
	"fmt"
	"runtime"
)

// Audit architecture constants, as reported in the arch field of
// struct seccomp_data.
const (
	auditArchX86_64  = 0xc000003e
	auditArchAarch64 = 0xc00000b7
)

// GOARCH values with syscall tables.
const (
	archAMD64 = "amd64"
	archARM64 = "arm64"
)

// syscallsAMD64 maps the syscall names the policy language can reference
// to x86_64 syscall numbers.
var syscallsAMD64 = map[string]uint32{
	"read":        0,
	"write":       1,
	"open":        2,
	"close":       3,
	"stat":        4,
	"fstat":       5,
	"lstat":       6,
	"poll":        7,
	"lseek":       8,
	"mmap":        9,
	"mprotect":    10,
	"munmap":      11,
	"brk":         12,
	"ioctl":       16,
	"access":      21,
	"pipe":        22,
	"select":      23,
	"sched_yield": 24,
	"madvise":     28,
	"dup":         32,
	"dup2":        33,
	"nanosleep":   35,
	"getpid":      39,
	"socket":      41,
	"connect":     42,
	"accept":      43,
	"sendto":      44,
	"recvfrom":    45,
	"bind":        49,
	"listen":      50,
	"clone":       56,
	"fork":        57,
	"vfork":       58,
	"execve":      59,
	"exit":        60,
	"wait4":       61,
	"kill":        62,
	"uname":       63,
	"fcntl":       72,
	"flock":       73,
	"fsync":       74,
	"ftruncate":   77,
	"getcwd":      79,
	"chdir":       80,
	"rename":      82,
	"mkdir":       83,
	"rmdir":       84,
	"creat":       85,
	"link":        86,
	"unlink":      87,
	"symlink":     88,
	"readlink":    89,
	"chmod":       90,
	"fchmod":      91,
	"chown":       92,
	"fchown":      93,
	"umask":       95,
	"ptrace":      101,
	"getuid":      102,
	"getgid":      104,
	"setuid":      105,
	"setgid":      106,
	"geteuid":     107,
	"getegid":     108,
	"getppid":     110,
	"mknod":       133,
	"prctl":       157,
	"chroot":      161,
	"mount":       165,
	"umount2":     166,
	"swapon":      167,
	"swapoff":     168,
	"reboot":      169,
	"gettid":      186,
	"futex":       202,
	"getdents64":  217,
	"exit_group":  231,
	"openat":      257,
	"mkdirat":     258,
	"mknodat":     259,
	"fchownat":    260,
	"unlinkat":    263,
	"renameat":    264,
	"linkat":      265,
	"symlinkat":   266,
	"readlinkat":  267,
	"fchmodat":    268,
	"faccessat":   269,
	"dup3":        292,
	"pipe2":       293,
	"renameat2":   316,
	"seccomp":     317,
	"getrandom":   318,
	"execveat":    322,
	"statx":       332,
	"pidfd_open":  434,
	"clone3":      435,
	"openat2":     437,
	"faccessat2":  439,
}

// syscallsARM64 maps syscall names to aarch64 syscall numbers. Legacy
// path syscalls (open, rename, dup2, fork, ...) do not exist on arm64 and
// are deliberately absent; referencing them in a policy compiled on arm64
// is a compilation error.
var syscallsARM64 = map[string]uint32{
	"getcwd":      17,
	"dup":         23,
	"dup3":        24,
	"fcntl":       25,
	"ioctl":       29,
	"flock":       32,
	"mknodat":     33,
	"mkdirat":     34,
	"unlinkat":    35,
	"symlinkat":   36,
	"linkat":      37,
	"renameat":    38,
	"umount2":     39,
	"mount":       40,
	"ftruncate":   46,
	"faccessat":   48,
	"chdir":       49,
	"chroot":      51,
	"fchmod":      52,
	"fchmodat":    53,
	"fchownat":    54,
	"fchown":      55,
	"openat":      56,
	"close":       57,
	"pipe2":       59,
	"getdents64":  61,
	"lseek":       62,
	"read":        63,
	"write":       64,
	"readlinkat":  78,
	"fstat":       80,
	"fsync":       82,
	"exit":        93,
	"exit_group":  94,
	"futex":       98,
	"nanosleep":   101,
	"ptrace":      117,
	"sched_yield": 124,
	"kill":        129,
	"reboot":      142,
	"setgid":      144,
	"setuid":      146,
	"uname":       160,
	"umask":       166,
	"prctl":       167,
	"getpid":      172,
	"getppid":     173,
	"getuid":      174,
	"geteuid":     175,
	"getgid":      176,
	"getegid":     177,
	"gettid":      178,
	"socket":      198,
	"bind":        200,
	"listen":      201,
	"accept":      202,
	"connect":     203,
	"sendto":      206,
	"recvfrom":    207,
	"brk":         214,
	"munmap":      215,
	"clone":       220,
	"execve":      221,
	"mmap":        222,
	"swapon":      224,
	"swapoff":     225,
	"mprotect":    226,
	"madvise":     233,
	"wait4":       260,
	"renameat2":   276,
	"seccomp":     277,
	"getrandom":   278,
	"execveat":    281,
	"statx":       291,
	"pidfd_open":  434,
	"clone3":      435,
	"openat2":     437,
	"faccessat2":  439,
}

// archTable returns the syscall name table and audit architecture
// constant for the given GOARCH string.
func archTable(goarch string) (map[string]uint32, uint32, error) {
	switch goarch {
	case archAMD64:
		return syscallsAMD64, auditArchX86_64, nil
	case archARM64:
		return syscallsARM64, auditArchAarch64, nil
	default:
		return nil, 0, fmt.Errorf("unsupported architecture: %s", goarch)
	}
}

// archTableFn resolves the table for the running architecture. Tests
// override it to compile against a synthetic table.
var archTableFn = func() (map[string]uint32, uint32, error) {
	return archTable(runtime.GOARCH)
}

// SyscallNumber resolves a syscall name against the running
// architecture's table. The second return value reports whether the name
// is known on this architecture.
func SyscallNumber(name string) (uint32, bool) {
	table, _, err := archTableFn()
	if err != nil {
		return 0, false
	}
	nr, ok := table[name]
	return nr, ok
}
