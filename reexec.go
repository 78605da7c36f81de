//go:build linux

package secverify

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// subjectEnvKey is the environment variable that marks the process as a
// re-executed subject. Its value is the file descriptor number of the
// pipe carrying the serialized subjectConfig.
const subjectEnvKey = "_SECVERIFY_SUBJECT"

// Subject exit statuses for failures in the subject itself.
const (
	// subjectSetupStatus is exited with when the subject cannot even
	// reach the filter install: bad config descriptor, undecodable
	// config, or an unregistered subject name.
	subjectSetupStatus = 254

	// installFailedStatus is exited with when PR_SET_NO_NEW_PRIVS or the
	// filter activation fails, mirroring the pre-filter exit(-1) of the
	// classic harness. The classifier sees a generic non-zero exit and
	// cannot tell it from a scripted syscall denied before install
	// completed; that ambiguity is part of the contract.
	installFailedStatus = 255
)

// subjectConfig travels from the parent to the subject over the config
// pipe.
type subjectConfig struct {
	Filter  []bpf.RawInstruction `json:"filter"`
	Subject string               `json:"subject"`
	Script  Script               `json:"script,omitempty"`
}

// Function variables for dependency injection in tests.
var (
	installFilterFn = installFilter
	exitFn          = unix.Exit
)

// MaybeRunSubject checks whether the current process was re-executed as a
// filter-test subject. If so it runs the subject to completion and exits;
// it only returns (false) in a normal process. Call it at the very
// beginning of main and of TestMain, before any other initialization.
func MaybeRunSubject() bool {
	fdStr := os.Getenv(subjectEnvKey)
	if fdStr == "" {
		return false
	}
	exitFn(runSubject(fdStr))
	return true // unreachable, but satisfies the compiler
}

// runSubject is the subject-process entry point: decode the config from
// the inherited pipe, install the filter, run the subject function, and
// exit with its status. The exit always goes through exitFn (a raw
// exit_group), never the runtime's normal exit path, so no teardown
// syscalls run after the subject function returns.
func runSubject(fdStr string) int {
	// The filter binds to the installing thread; lock and never unlock,
	// the process exits from here.
	runtime.LockOSThread()

	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "secverify: invalid config fd %q: %v\n", fdStr, err)
		return subjectSetupStatus
	}
	configFile := os.NewFile(uintptr(fd), "config-pipe")
	if configFile == nil {
		fmt.Fprintf(os.Stderr, "secverify: cannot open config fd %d\n", fd)
		return subjectSetupStatus
	}

	var cfg subjectConfig
	if err := json.NewDecoder(configFile).Decode(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "secverify: decode config: %v\n", err)
		return subjectSetupStatus
	}
	_ = configFile.Close()

	var fn SubjectFunc
	if cfg.Subject == scriptSubject {
		fn = func() int { return runScript(cfg.Script) }
	} else {
		registered, ok := lookupSubject(cfg.Subject)
		if !ok {
			fmt.Fprintf(os.Stderr, "secverify: unknown subject %q\n", cfg.Subject)
			return subjectSetupStatus
		}
		fn = registered
	}

	filter := make([]unix.SockFilter, len(cfg.Filter))
	for i, in := range cfg.Filter {
		filter[i] = unix.SockFilter{Code: in.Op, Jt: in.Jt, Jf: in.Jf, K: in.K}
	}

	// Keep a re-exec of the subject (should the subject function exec)
	// from re-entering subject mode.
	_ = os.Unsetenv(subjectEnvKey)

	if err := installFilterFn(filter); err != nil {
		return installFailedStatus
	}

	exitFn(fn())
	return 0 // unreachable
}
