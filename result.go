//go:build linux

package secverify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Verdict is the final result of one enforcement check.
type Verdict struct {
	// Passed reports whether the check succeeded.
	Passed bool

	// Message explains a failure; empty on success unless the check was
	// vacuously skipped.
	Message string
}

// TerminationReport describes how a subject process terminated.
type TerminationReport struct {
	// Exited reports a normal exit; ExitStatus is its status.
	Exited     bool
	ExitStatus int

	// Signaled reports termination by a signal; Signal names it.
	Signaled bool
	Signal   unix.Signal
}

// String renders the report for diagnostics.
func (r TerminationReport) String() string {
	switch {
	case r.Exited:
		return fmt.Sprintf("exited with status %d", r.ExitStatus)
	case r.Signaled:
		return fmt.Sprintf("killed by signal %d (%s)", int(r.Signal), r.Signal)
	default:
		return "did not terminate cleanly"
	}
}

// reportFromWaitStatus converts a wait status from Wait4 into a
// TerminationReport.
func reportFromWaitStatus(ws unix.WaitStatus) TerminationReport {
	var r TerminationReport
	if ws.Exited() {
		r.Exited = true
		r.ExitStatus = ws.ExitStatus()
	}
	if ws.Signaled() {
		r.Signaled = true
		r.Signal = ws.Signal()
	}
	return r
}
