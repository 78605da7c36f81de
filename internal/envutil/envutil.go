// Package envutil manipulates environment slices of KEY=value entries,
// as passed to ForkExec when spawning a subject process.
package envutil

import "strings"

// SetEnv sets or replaces a variable in an env slice and returns the
// modified slice. An existing entry is updated in place; otherwise the
// new entry is appended.
func SetEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, e := range env {
		if strings.HasPrefix(e, prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}

// GetEnv looks a variable up in an env slice. It returns the value and
// whether the key was present.
func GetEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, e := range env {
		if strings.HasPrefix(e, prefix) {
			return e[len(prefix):], true
		}
	}
	return "", false
}
