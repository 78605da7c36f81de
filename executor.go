//go:build linux

package secverify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/zhangyunhao116/secverify/internal/envutil"
)

// maxConfigBytes bounds the serialized subject config. The config is
// written to the pipe in full before the subject is spawned, so it must
// fit the kernel pipe buffer without blocking.
const maxConfigBytes = 1 << 15

// Function variables for the spawn boundary, overridden in tests.
var (
	forkExecFn     = syscall.ForkExec
	osExecutableFn = os.Executable
)

// verify runs one enforcement check end to end: skip if there is no valid
// filter, arm the monitor, spawn the subject, wait for its termination,
// classify.
func (s *Session) verify(subject string, script Script, shouldKill bool) Verdict {
	if !s.valid {
		// Nothing valid to enforce; vacuously passed so one bad policy
		// does not cascade into false enforcement failures.
		return Verdict{Passed: true, Message: "skipped: no valid policy"}
	}
	if subject != scriptSubject {
		if _, ok := lookupSubject(subject); !ok {
			return Verdict{Message: fmt.Sprintf("%v: %q", ErrUnknownSubject, subject)}
		}
	}

	m := newMonitor(s.timeout)
	m.arm()

	pid, err := s.spawn(subjectConfig{
		Filter:  s.prog.Instructions(),
		Subject: subject,
		Script:  script,
	})
	if err != nil {
		m.disarm()
		return Verdict{Message: fmt.Sprintf("could not fork: %v", err)}
	}
	s.logger.Debug("subject spawned", "pid", pid, "subject", subject, "shouldKill", shouldKill)

	report, err := m.wait(pid)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return Verdict{Message: "timed out"}
		}
		return Verdict{Message: err.Error()}
	}
	s.logger.Debug("subject terminated", "pid", pid, "report", report.String())

	return classify(report, shouldKill)
}

// spawn re-executes the session's binary as a subject process with the
// serialized config on fd 3 and the subject marker in the environment.
// The config is written and the write end closed before the fork, so the
// subject reads a complete, EOF-terminated document.
func (s *Session) spawn(cfg subjectConfig) (int, error) {
	exe := s.executable
	if exe == "" {
		var err error
		exe, err = osExecutableFn()
		if err != nil {
			return 0, fmt.Errorf("resolving executable: %w", err)
		}
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return 0, fmt.Errorf("encoding subject config: %w", err)
	}
	if len(payload) > maxConfigBytes {
		return 0, fmt.Errorf("subject config too large: %d bytes (max %d)", len(payload), maxConfigBytes)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return 0, fmt.Errorf("config pipe: %w", err)
	}
	defer r.Close()
	if _, err := w.Write(payload); err != nil {
		w.Close()
		return 0, fmt.Errorf("writing subject config: %w", err)
	}
	w.Close()

	const configFd = 3
	pid, err := forkExecFn(exe, []string{exe}, &syscall.ProcAttr{
		Env:   envutil.SetEnv(os.Environ(), subjectEnvKey, strconv.Itoa(configFd)),
		Files: []uintptr{0, 1, 2, r.Fd()},
	})
	if err != nil {
		return 0, err
	}
	return pid, nil
}
