//go:build linux

package secverify

import (
	"fmt"
	"sync"
)

// SubjectFunc runs inside the subject process after the filter has been
// installed. Its return value becomes the subject's exit status, so 0
// means success and small positive values can encode a failure position.
type SubjectFunc func() int

// scriptSubject is the reserved name of the built-in subject that
// executes a serialized Script.
const scriptSubject = "script"

var (
	subjectsMu sync.RWMutex
	subjects   = make(map[string]SubjectFunc)
)

// RegisterSubject registers fn under name so VerifySubject can run it in
// a subject process. Registration normally happens in an init function,
// so the registry is identical in the parent and in the re-executed
// subject. It panics on an empty or reserved name, a nil function, or a
// duplicate registration.
func RegisterSubject(name string, fn SubjectFunc) {
	if name == "" {
		panic("secverify: RegisterSubject with empty name")
	}
	if name == scriptSubject {
		panic(fmt.Sprintf("secverify: subject name %q is reserved", name))
	}
	if fn == nil {
		panic(fmt.Sprintf("secverify: RegisterSubject(%q) with nil function", name))
	}
	subjectsMu.Lock()
	defer subjectsMu.Unlock()
	if _, dup := subjects[name]; dup {
		panic(fmt.Sprintf("secverify: subject %q already registered", name))
	}
	subjects[name] = fn
}

// lookupSubject resolves a registered subject by name.
func lookupSubject(name string) (SubjectFunc, bool) {
	subjectsMu.RLock()
	defer subjectsMu.RUnlock()
	fn, ok := subjects[name]
	return fn, ok
}
