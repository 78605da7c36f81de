//go:build linux

package secverify

import (
	"log/slog"
	"time"
)

// Option configures a Session.
type Option func(*Session)

// WithTimeout sets the bound on how long a single enforcement check waits
// for its subject to terminate. A subject still running at the deadline
// is forcibly killed and the check fails as timed out. The default is one
// second.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger for operational debug logs. Defaults to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExecutable sets the binary re-executed as the subject process.
// Defaults to the current executable. The binary must call
// MaybeRunSubject before anything else.
func WithExecutable(path string) Option {
	return func(s *Session) {
		if path != "" {
			s.executable = path
		}
	}
}
