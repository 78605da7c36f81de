//go:build linux

package secverify

import (
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// waitCall records one Wait4 invocation.
type waitCall struct {
	pid     int
	options int
}

// waitStep scripts one Wait4 result.
type waitStep struct {
	rpid int
	ws   unix.WaitStatus
	err  error
}

// monitorSeams replaces the monitor's OS boundary and records what it is
// asked to do.
type monitorSeams struct {
	waits []waitCall
	kills []unix.Signal
	steps []waitStep
}

func installMonitorSeams(t *testing.T, killErr error, steps ...waitStep) *monitorSeams {
	t.Helper()
	seams := &monitorSeams{steps: steps}
	origWait, origKill := wait4Fn, killFn
	t.Cleanup(func() { wait4Fn, killFn = origWait, origKill })
	wait4Fn = func(pid int, ws *unix.WaitStatus, options int, ru *unix.Rusage) (int, error) {
		seams.waits = append(seams.waits, waitCall{pid: pid, options: options})
		if len(seams.waits) > len(seams.steps) {
			t.Fatalf("unexpected Wait4 call %d", len(seams.waits))
		}
		step := seams.steps[len(seams.waits)-1]
		if ws != nil {
			*ws = step.ws
		}
		return step.rpid, step.err
	}
	killFn = func(pid int, sig unix.Signal) error {
		seams.kills = append(seams.kills, sig)
		return killErr
	}
	return seams
}

// exitStatus builds a WaitStatus for a normal exit.
func exitStatus(code int) unix.WaitStatus {
	return unix.WaitStatus(code << 8)
}

// notify pre-loads n termination notifications, standing in for SIGCHLD
// deliveries that arrived while the monitor was not yet selecting.
func notify(m *monitor, n int) {
	for i := 0; i < n; i++ {
		m.ch <- unix.SIGCHLD
	}
}

// TestMonitorWait_ReapsExitedSubject verifies the straight-line path:
// notification, non-blocking reap of exactly the subject pid, report.
func TestMonitorWait_ReapsExitedSubject(t *testing.T) {
	seams := installMonitorSeams(t, nil, waitStep{rpid: 1234, ws: exitStatus(3)})

	m := newMonitor(time.Second)
	notify(m, 1)
	report, err := m.wait(1234)
	if err != nil {
		t.Fatalf("wait() error: %v", err)
	}
	if !report.Exited || report.ExitStatus != 3 {
		t.Errorf("report = %+v, want exited with status 3", report)
	}
	want := []waitCall{{pid: 1234, options: unix.WNOHANG}}
	if len(seams.waits) != 1 || seams.waits[0] != want[0] {
		t.Errorf("waits = %+v, want %+v", seams.waits, want)
	}
	if len(seams.kills) != 0 {
		t.Errorf("kills = %v, want none", seams.kills)
	}
}

// TestMonitorWait_SignaledSubject verifies a SIGSYS kill is reported as a
// signaled termination.
func TestMonitorWait_SignaledSubject(t *testing.T) {
	installMonitorSeams(t, nil, waitStep{rpid: 77, ws: unix.WaitStatus(unix.SIGSYS)})

	m := newMonitor(time.Second)
	notify(m, 1)
	report, err := m.wait(77)
	if err != nil {
		t.Fatalf("wait() error: %v", err)
	}
	if !report.Signaled || report.Signal != unix.SIGSYS {
		t.Errorf("report = %+v, want killed by SIGSYS", report)
	}
}

// TestMonitorWait_SpuriousNotification verifies a SIGCHLD that does not
// correspond to the subject's termination re-arms the wait instead of
// failing the check.
func TestMonitorWait_SpuriousNotification(t *testing.T) {
	seams := installMonitorSeams(t, nil,
		waitStep{rpid: 0}, // subject still running
		waitStep{rpid: 55, ws: exitStatus(0)},
	)

	m := newMonitor(time.Second)
	notify(m, 2)
	report, err := m.wait(55)
	if err != nil {
		t.Fatalf("wait() error: %v", err)
	}
	if !report.Exited || report.ExitStatus != 0 {
		t.Errorf("report = %+v, want clean exit", report)
	}
	if len(seams.waits) != 2 {
		t.Errorf("issued %d waits, want 2", len(seams.waits))
	}
}

// TestMonitorWait_EINTRRetry verifies an interrupted reap is retried
// transparently.
func TestMonitorWait_EINTRRetry(t *testing.T) {
	installMonitorSeams(t, nil,
		waitStep{err: unix.EINTR},
		waitStep{rpid: 55, ws: exitStatus(0)},
	)

	m := newMonitor(time.Second)
	notify(m, 2)
	if _, err := m.wait(55); err != nil {
		t.Fatalf("wait() error: %v", err)
	}
}

// TestMonitorWait_WrongPid verifies reaping a different process is a
// monitor failure whose diagnostic names both pids, and that the subject
// is still cleaned up.
func TestMonitorWait_WrongPid(t *testing.T) {
	seams := installMonitorSeams(t, nil,
		waitStep{rpid: 999, ws: exitStatus(0)},
		waitStep{rpid: 55}, // blocking reap inside killAndReap
	)

	m := newMonitor(time.Second)
	notify(m, 1)
	_, err := m.wait(55)
	if err == nil {
		t.Fatal("wait() expected error, got nil")
	}
	for _, want := range []string{"999", "55"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	if len(seams.kills) != 1 || seams.kills[0] != unix.SIGKILL {
		t.Errorf("kills = %v, want [SIGKILL]", seams.kills)
	}
}

// TestMonitorWait_WaitError verifies a non-EINTR wait error fails the
// check after forced cleanup.
func TestMonitorWait_WaitError(t *testing.T) {
	seams := installMonitorSeams(t, nil,
		waitStep{rpid: -1, err: unix.ECHILD},
		waitStep{rpid: 55}, // blocking reap inside killAndReap
	)

	m := newMonitor(time.Second)
	notify(m, 1)
	_, err := m.wait(55)
	if err == nil {
		t.Fatal("wait() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "wait failed") {
		t.Errorf("error = %v, want 'wait failed'", err)
	}
	if len(seams.kills) != 1 {
		t.Errorf("kills = %v, want one SIGKILL", seams.kills)
	}
}

// TestMonitorWait_Timeout verifies deadline expiry force-kills the
// subject, reaps it with a blocking wait, and reports ErrTimeout.
func TestMonitorWait_Timeout(t *testing.T) {
	seams := installMonitorSeams(t, nil, waitStep{rpid: 55})

	m := newMonitor(20 * time.Millisecond)
	start := time.Now()
	_, err := m.wait(55)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("wait() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("wait() took %v, want ~20ms", elapsed)
	}
	if len(seams.kills) != 1 || seams.kills[0] != unix.SIGKILL {
		t.Errorf("kills = %v, want [SIGKILL]", seams.kills)
	}
	if len(seams.waits) != 1 || seams.waits[0].options != 0 {
		t.Errorf("waits = %+v, want one blocking reap", seams.waits)
	}
}

// TestMonitorWait_TimeoutKillRaces verifies the cleanup falls back to a
// non-blocking reap when the kill cannot be delivered because the subject
// already exited.
func TestMonitorWait_TimeoutKillRaces(t *testing.T) {
	seams := installMonitorSeams(t, unix.ESRCH, waitStep{rpid: 55, ws: exitStatus(0)})

	m := newMonitor(20 * time.Millisecond)
	_, err := m.wait(55)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("wait() error = %v, want ErrTimeout", err)
	}
	if len(seams.waits) != 1 || seams.waits[0].options != unix.WNOHANG {
		t.Errorf("waits = %+v, want one non-blocking reap", seams.waits)
	}
}

// TestMonitor_DisarmIdempotent verifies disarm can run on every exit path
// without double-unregistering.
func TestMonitor_DisarmIdempotent(t *testing.T) {
	m := newMonitor(time.Second)
	m.arm()
	m.disarm()
	m.disarm()
	if m.armed {
		t.Error("armed = true after disarm")
	}
}
