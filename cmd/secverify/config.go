//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tailscale/hujson"
	"github.com/zhangyunhao116/secverify"
	"github.com/zhangyunhao116/secverify/policy"
)

// checkFile is the document a check file holds: one policy and the
// enforcement checks to run against it. Files may contain comments and
// trailing commas (JSONC), standardized via hujson before decoding.
type checkFile struct {
	// Policy is inline policy source text. Exactly one of Policy and
	// PolicyFile must be set.
	Policy string `json:"policy,omitempty"`

	// PolicyFile names a file containing the policy source, relative to
	// the check file.
	PolicyFile string `json:"policyFile,omitempty"`

	// Checks are run in order against the compiled policy.
	Checks []checkSpec `json:"checks"`
}

// checkSpec is one enforcement check. Exactly one of Subject and Script
// must be set.
type checkSpec struct {
	Name       string     `json:"name"`
	ShouldKill bool       `json:"shouldKill,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Script     []stepSpec `json:"script,omitempty"`
}

// stepSpec is one script step with syscall and errno referenced by name.
type stepSpec struct {
	Syscall   string   `json:"syscall"`
	Args      []uint64 `json:"args,omitempty"`
	Ret       int64    `json:"ret,omitempty"`
	Errno     string   `json:"errno,omitempty"`
	IgnoreRet bool     `json:"ignoreRet,omitempty"`
}

// loadCheckFile reads, standardizes and validates a JSONC check file. A
// policyFile reference is resolved relative to the check file and read
// into Policy.
func loadCheckFile(path string) (*checkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var cf checkFile
	if err := json.Unmarshal(standardized, &cf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	switch {
	case cf.Policy != "" && cf.PolicyFile != "":
		return nil, fmt.Errorf("%s: policy and policyFile are mutually exclusive", path)
	case cf.Policy == "" && cf.PolicyFile == "":
		return nil, fmt.Errorf("%s: missing policy", path)
	case cf.PolicyFile != "":
		src, err := os.ReadFile(filepath.Join(filepath.Dir(path), cf.PolicyFile))
		if err != nil {
			return nil, fmt.Errorf("%s: policyFile: %w", path, err)
		}
		cf.Policy = string(src)
		cf.PolicyFile = ""
	}

	if len(cf.Checks) == 0 {
		return nil, fmt.Errorf("%s: no checks", path)
	}
	for i, c := range cf.Checks {
		if c.Name == "" {
			return nil, fmt.Errorf("%s: check %d: missing name", path, i)
		}
		if (c.Subject == "") == (len(c.Script) == 0) {
			return nil, fmt.Errorf("%s: check %q: exactly one of subject and script must be set", path, c.Name)
		}
	}
	return &cf, nil
}

// buildScript resolves a step list into a Script, mapping syscall and
// errno names to numbers for the running architecture.
func buildScript(steps []stepSpec) (secverify.Script, error) {
	script := make(secverify.Script, 0, len(steps))
	for i, st := range steps {
		nr, ok := policy.SyscallNumber(st.Syscall)
		if !ok {
			return nil, fmt.Errorf("step %d: unknown syscall %q", i+1, st.Syscall)
		}
		if len(st.Args) > 6 {
			return nil, fmt.Errorf("step %d: too many args: %d (max 6)", i+1, len(st.Args))
		}
		step := secverify.SyscallStep{
			Nr:        nr,
			Ret:       st.Ret,
			IgnoreRet: st.IgnoreRet,
		}
		copy(step.Args[:], st.Args)
		if st.Errno != "" {
			e, ok := policy.ErrnoNumber(st.Errno)
			if !ok {
				n, err := strconv.ParseUint(st.Errno, 10, 16)
				if err != nil {
					return nil, fmt.Errorf("step %d: unknown errno %q", i+1, st.Errno)
				}
				e = uint32(n)
			}
			step.Errno = e
		}
		script = append(script, step)
	}
	return script, nil
}
