// Package secverify verifies that a compiled seccomp BPF policy actually
// enforces its restrictions on a real process.
//
// A Session owns one compiled policy at a time. Each enforcement check
// re-executes the current binary as a sandboxed subject process, installs
// the filter there, drives it through a scripted syscall sequence (or a
// registered subject function), waits for it to terminate with a bounded
// timeout, and classifies the termination against the check's
// expectation.
//
// Because the subject is the re-executed binary itself, every binary that
// embeds this package must give the subject half a chance to run before
// doing anything else:
//
//	func main() {
//	    if secverify.MaybeRunSubject() {
//	        return
//	    }
//	    // ... rest of main
//	}
//
// Test binaries do the same from TestMain.
//
// Basic usage:
//
//	s := secverify.NewSession()
//	if err := s.Compile("default allow\nkill { swapon }"); err != nil {
//	    log.Fatal(err)
//	}
//	nr, _ := policy.SyscallNumber("swapon")
//	v := s.VerifyScript(secverify.Script{{Nr: nr}}, true)
//	fmt.Println(v.Passed, v.Message)
//
// The subject is a Go process, so runtime threads keep issuing
// scheduling and memory syscalls after the filter is installed. Policies
// verified through this harness should either allow that baseline or
// express denials as targeted kill/errno rules over a "default allow".
package secverify
