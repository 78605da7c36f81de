//go:build linux

package secverify

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zhangyunhao116/secverify/policy"
)

// defaultTimeout bounds how long a check waits for its subject.
const defaultTimeout = time.Second

// Session owns the policy under test: the compiled filter program and the
// flag recording whether the most recent compilation succeeded. Both are
// written only by Compile and read by each Verify call; a Session must
// not be used from multiple goroutines concurrently.
//
// A zero-compiled Session (Compile never called, or last Compile failed)
// skips every enforcement check as vacuously passed: there is no valid
// filter whose enforcement could be tested.
type Session struct {
	logger     *slog.Logger
	timeout    time.Duration
	executable string

	prog  *policy.Program
	valid bool
}

// NewSession creates a Session with no compiled policy.
func NewSession(opts ...Option) *Session {
	s := &Session{
		logger:  slog.Default(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Compile compiles policy source text and makes the result the session's
// current filter. The previous filter is released first. On failure the
// session is left with no filter and subsequent checks are skipped as
// vacuously passed; the returned error wraps *policy.CompilationError.
func (s *Session) Compile(source string) error {
	s.prog = nil
	s.valid = false

	prog, err := policy.Compile(source)
	if err != nil {
		s.logger.Debug("policy compilation failed", "err", err)
		return fmt.Errorf("secverify: %w", err)
	}
	s.prog = prog
	s.valid = true
	s.logger.Debug("policy compiled", "instructions", prog.Len())
	return nil
}

// Valid reports whether the session holds a successfully compiled filter.
func (s *Session) Valid() bool {
	return s.valid
}

// VerifyScript runs one enforcement check: it spawns a subject with the
// current filter installed, executes the script inside it, and classifies
// the subject's termination against shouldKill.
func (s *Session) VerifyScript(script Script, shouldKill bool) Verdict {
	return s.verify(scriptSubject, script, shouldKill)
}

// VerifySubject runs one enforcement check whose subject is the function
// registered under name. The function runs in the subject process after
// the filter is installed and its return value becomes the subject's
// exit status.
func (s *Session) VerifySubject(name string, shouldKill bool) Verdict {
	return s.verify(name, nil, shouldKill)
}
