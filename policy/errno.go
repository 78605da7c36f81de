//go:build linux

package policy

// errnoNames maps errno symbol names to their Linux values. The values
// are identical on amd64 and arm64.
var errnoNames = map[string]uint32{
	"EPERM":        1,
	"ENOENT":       2,
	"ESRCH":        3,
	"EINTR":        4,
	"EIO":          5,
	"ENXIO":        6,
	"E2BIG":        7,
	"ENOEXEC":      8,
	"EBADF":        9,
	"ECHILD":       10,
	"EAGAIN":       11,
	"ENOMEM":       12,
	"EACCES":       13,
	"EFAULT":       14,
	"ENOTBLK":      15,
	"EBUSY":        16,
	"EEXIST":       17,
	"EXDEV":        18,
	"ENODEV":       19,
	"ENOTDIR":      20,
	"EISDIR":       21,
	"EINVAL":       22,
	"ENFILE":       23,
	"EMFILE":       24,
	"ENOTTY":       25,
	"ETXTBSY":      26,
	"EFBIG":        27,
	"ENOSPC":       28,
	"ESPIPE":       29,
	"EROFS":        30,
	"EMLINK":       31,
	"EPIPE":        32,
	"ERANGE":       34,
	"ENAMETOOLONG": 36,
	"ENOSYS":       38,
	"ELOOP":        40,
}

// ErrnoNumber resolves an errno symbol name such as "EACCES". The second
// return value reports whether the name is known.
func ErrnoNumber(name string) (uint32, bool) {
	n, ok := errnoNames[name]
	return n, ok
}
