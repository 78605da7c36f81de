//go:build linux

// Command secverify runs seccomp policy enforcement checks described in a
// JSONC check file: it compiles the policy, runs each check in a
// sandboxed subject process, and prints one PASS/FAIL line per check.
//
// Exit status: 0 if the policy compiled and every check passed, 1 if the
// compile or any check failed, 2 on usage or check-file errors.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/zhangyunhao116/secverify"
)

func main() {
	if secverify.MaybeRunSubject() {
		return
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("secverify", flag.ContinueOnError)
	flags.SetOutput(stderr)
	file := flags.StringP("file", "f", "", "JSONC check file to run (required)")
	timeout := flags.DurationP("timeout", "t", time.Second, "per-check subject timeout")
	verbose := flags.BoolP("verbose", "v", false, "enable debug logging")
	if err := flags.Parse(args); err != nil {
		return 2
	}
	if *file == "" {
		fmt.Fprintln(stderr, "secverify: -f/--file is required")
		fmt.Fprintln(stderr, "Usage of secverify:")
		flags.PrintDefaults()
		return 2
	}

	cf, err := loadCheckFile(*file)
	if err != nil {
		fmt.Fprintf(stderr, "secverify: %v\n", err)
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	session := secverify.NewSession(
		secverify.WithTimeout(*timeout),
		secverify.WithLogger(logger),
	)

	failed := 0
	if err := session.Compile(cf.Policy); err != nil {
		// Enforcement checks against an uncompilable policy are skipped
		// as vacuously passed; the compile failure itself is the failure.
		fmt.Fprintf(stdout, "FAIL policy: %v\n", err)
		failed++
	}

	for _, c := range cf.Checks {
		var verdict secverify.Verdict
		if c.Subject != "" {
			verdict = session.VerifySubject(c.Subject, c.ShouldKill)
		} else {
			script, err := buildScript(c.Script)
			if err != nil {
				fmt.Fprintf(stdout, "FAIL %s: %v\n", c.Name, err)
				failed++
				continue
			}
			verdict = session.VerifyScript(script, c.ShouldKill)
		}
		if verdict.Passed {
			if verdict.Message != "" {
				fmt.Fprintf(stdout, "PASS %s (%s)\n", c.Name, verdict.Message)
			} else {
				fmt.Fprintf(stdout, "PASS %s\n", c.Name)
			}
		} else {
			fmt.Fprintf(stdout, "FAIL %s: %s\n", c.Name, verdict.Message)
			failed++
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
