//go:build linux

package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/zhangyunhao116/secverify"
)

// TestMain lets the checks in this package spawn the test binary as
// their sandboxed subject.
func TestMain(m *testing.M) {
	if secverify.MaybeRunSubject() {
		return
	}
	os.Exit(m.Run())
}

func TestRun_AllChecksPass(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "testdata/allow.jsonc"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("run() = %d, want 0\nstdout:\n%s\nstderr:\n%s", code, stdout.String(), stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{"PASS getpid allowed", "PASS swapon killed"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "FAIL") {
		t.Errorf("stdout contains FAIL:\n%s", out)
	}
}

func TestRun_CompileFailureSkipsChecks(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-f", "testdata/badpolicy.jsonc"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("run() = %d, want 1\nstdout:\n%s", code, stdout.String())
	}
	out := stdout.String()
	if !strings.Contains(out, "FAIL policy:") {
		t.Errorf("stdout missing compile failure:\n%s", out)
	}
	if !strings.Contains(out, "PASS vacuous") {
		t.Errorf("stdout missing skipped check:\n%s", out)
	}
}

func TestRun_MissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"-f", "testdata/nosuch.jsonc"}, &stdout, &stderr); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
}

func TestRun_FileFlagRequired(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "required") {
		t.Errorf("stderr = %q, want a 'required' notice", stderr.String())
	}
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run([]string{"--bogus"}, &stdout, &stderr); code != 2 {
		t.Errorf("run() = %d, want 2", code)
	}
}
