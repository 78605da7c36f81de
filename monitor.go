//go:build linux

package secverify

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"
)

// Function variables for the monitor's OS boundary, overridden in tests.
var (
	wait4Fn = unix.Wait4
	killFn  = unix.Kill
)

// monitor deterministically observes the termination of one subject
// process within a bounded timeout. The SIGCHLD notification channel is
// registered before the subject is spawned, so a subject that terminates
// before the parent starts waiting cannot be missed: the notification
// accumulates in the channel instead of being lost. This replaces the
// block-SIGCHLD-then-signalfd sequence of a single-threaded harness,
// which a Go process cannot use because the runtime dispatches
// process-directed signals across all of its threads.
type monitor struct {
	ch      chan os.Signal
	timeout time.Duration
	armed   bool
}

func newMonitor(timeout time.Duration) *monitor {
	return &monitor{
		ch:      make(chan os.Signal, 16),
		timeout: timeout,
	}
}

// arm registers for SIGCHLD notifications. Must happen before the subject
// is spawned.
func (m *monitor) arm() {
	signal.Notify(m.ch, unix.SIGCHLD)
	m.armed = true
}

// disarm unregisters the notification channel. It runs on every exit
// path, so no check leaks signal registrations into the next one; the
// thread's signal mask is never modified at all.
func (m *monitor) disarm() {
	if m.armed {
		signal.Stop(m.ch)
		m.armed = false
	}
}

// wait blocks until pid terminates or the timeout expires. On timeout or
// wait failure the subject is forcibly killed and reaped before the error
// returns, so no exit path leaves a zombie behind.
func (m *monitor) wait(pid int) (TerminationReport, error) {
	defer m.disarm()

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	for {
		select {
		case <-m.ch:
			var ws unix.WaitStatus
			rpid, err := wait4Fn(pid, &ws, unix.WNOHANG, nil)
			if err == unix.EINTR {
				continue
			}
			if err != nil {
				m.killAndReap(pid)
				return TerminationReport{}, fmt.Errorf("wait failed: rv %d, errno %v, reaped pid %d, subject pid %d", rpid, err, rpid, pid)
			}
			if rpid == 0 {
				// SIGCHLD for some other child, or a state change that is
				// not a termination. Keep waiting within the same deadline.
				continue
			}
			if rpid != pid {
				m.killAndReap(pid)
				return TerminationReport{}, fmt.Errorf("wait failed: rv %d, errno 0, reaped pid %d, subject pid %d", rpid, rpid, pid)
			}
			return reportFromWaitStatus(ws), nil

		case <-timer.C:
			m.killAndReap(pid)
			return TerminationReport{}, ErrTimeout
		}
	}
}

// killAndReap forcibly terminates the subject, best effort. If the kill
// signal was delivered, the reap blocks until the subject is gone; if the
// subject already exited the kill fails and a non-blocking reap collects
// whatever is left without risking a hang.
func (m *monitor) killAndReap(pid int) {
	var ws unix.WaitStatus
	if err := killFn(pid, unix.SIGKILL); err == nil {
		for {
			_, err := wait4Fn(pid, &ws, 0, nil)
			if err != unix.EINTR {
				return
			}
		}
	}
	_, _ = wait4Fn(pid, &ws, unix.WNOHANG, nil)
}
