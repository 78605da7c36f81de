//go:build linux

package secverify

import "errors"

// Sentinel errors returned by the secverify package.
var (
	// ErrTimeout indicates the subject did not terminate within the
	// monitor deadline and was forcibly killed.
	ErrTimeout = errors.New("secverify: subject timed out")

	// ErrUnknownSubject indicates a subject name that was never registered.
	ErrUnknownSubject = errors.New("secverify: unknown subject")
)
