//go:build linux

package secverify

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// killSignal is the signal the kernel delivers when a filter's kill
// action fires.
const killSignal = unix.SIGSYS

// classify interprets a subject's termination against the check's
// expectation. The conditions are evaluated in precedence order; the
// first match decides the verdict.
func classify(report TerminationReport, shouldKill bool) Verdict {
	switch {
	case report.Exited && report.ExitStatus != 0:
		if shouldKill {
			return failf("should be killed by seccomp; non-zero (%d) exit code instead", report.ExitStatus)
		}
		return failf("non-zero (%d) exit code", report.ExitStatus)

	case shouldKill && (!report.Signaled || report.Signal != killSignal):
		return failf("should be killed by seccomp")

	case report.Signaled && report.Signal == killSignal && !shouldKill:
		return failf("should not be killed by seccomp")

	case report.Signaled && report.Signal != killSignal:
		return failf("killed by signal %d", int(report.Signal))

	case !report.Exited && !report.Signaled:
		return failf("not exited normally")
	}
	return Verdict{Passed: true}
}

func failf(format string, args ...any) Verdict {
	return Verdict{Message: fmt.Sprintf(format, args...)}
}
