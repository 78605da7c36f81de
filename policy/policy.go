//go:build linux

package policy

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// Seccomp filter return actions, as placed in the BPF return value.
const (
	retAllow       = 0x7fff0000 // SECCOMP_RET_ALLOW
	retTrap        = 0x00030000 // SECCOMP_RET_TRAP
	retErrnoBase   = 0x00050000 // SECCOMP_RET_ERRNO, errno in the low 16 bits
	retKillProcess = 0x80000000 // SECCOMP_RET_KILL_PROCESS
)

// Offsets into struct seccomp_data.
const (
	seccompDataNrOffset   = 0
	seccompDataArchOffset = 4
)

// maxRuleSyscalls bounds the number of rule syscalls in one policy. The
// generated program is a straight line of jump/return pairs and the arch
// check must be able to jump over all of them with an 8-bit BPF offset.
const maxRuleSyscalls = 126

// maxErrno bounds the errno value an errno() action may carry; the kernel
// rejects larger values in SECCOMP_RET_DATA.
const maxErrno = 0xfff

// CompilationError describes why a policy failed to compile.
type CompilationError struct {
	// Line is the 1-based source line the error refers to, or 0 when the
	// error is not tied to a specific line.
	Line int

	// Message is the human-readable diagnostic.
	Message string
}

func (e *CompilationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("policy: line %d: %s", e.Line, e.Message)
	}
	return "policy: " + e.Message
}

// Program is a compiled seccomp BPF filter program.
type Program struct {
	insns []bpf.RawInstruction
}

// Len returns the number of BPF instructions in the program.
func (p *Program) Len() int {
	return len(p.insns)
}

// Instructions returns a copy of the program's raw BPF instructions.
func (p *Program) Instructions() []bpf.RawInstruction {
	out := make([]bpf.RawInstruction, len(p.insns))
	copy(out, p.insns)
	return out
}

// SockFilter returns the program in the form prctl(PR_SET_SECCOMP)
// expects.
func (p *Program) SockFilter() []unix.SockFilter {
	out := make([]unix.SockFilter, len(p.insns))
	for i, in := range p.insns {
		out[i] = unix.SockFilter{Code: in.Op, Jt: in.Jt, Jf: in.Jf, K: in.K}
	}
	return out
}

// rule binds one syscall to a filter action.
type rule struct {
	name   string
	nr     uint32
	action uint32
}

// token is one lexical element of a policy source, tagged with its line
// for diagnostics.
type token struct {
	text string
	line int
}

// tokenize splits policy source into tokens. Comments ("//" or "#") run
// to end of line; braces, parentheses and commas are standalone tokens.
func tokenize(source string) []token {
	var toks []token
	for i, line := range strings.Split(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		for _, p := range []string{"{", "}", "(", ")", ","} {
			line = strings.ReplaceAll(line, p, " "+p+" ")
		}
		for _, f := range strings.Fields(line) {
			toks = append(toks, token{text: f, line: i + 1})
		}
	}
	return toks
}

type parser struct {
	toks []token
	pos  int
}

// peek returns the next token without consuming it, or a zero token at
// end of input.
func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

// lastLine returns the line of the most recently consumed token, for
// diagnostics at unexpected end of input.
func (p *parser) lastLine() int {
	if p.pos == 0 {
		return 1
	}
	return p.toks[p.pos-1].line
}

func errf(line int, format string, args ...any) error {
	return &CompilationError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// Compile compiles policy source text into a seccomp BPF program. On
// failure it returns a *CompilationError describing the first problem
// found.
func Compile(source string) (*Program, error) {
	table, auditArch, err := archTableFn()
	if err != nil {
		return nil, &CompilationError{Message: err.Error()}
	}

	p := &parser{toks: tokenize(source)}
	var rules []rule
	seen := make(map[string]int) // syscall name -> line of first rule
	defaultAction := uint32(0)
	haveDefault := false

	for {
		tok, ok := p.next()
		if !ok {
			break
		}
		switch tok.text {
		case "default":
			if haveDefault {
				return nil, errf(tok.line, "duplicate default action")
			}
			action, err := p.parseAction(tok.line)
			if err != nil {
				return nil, err
			}
			defaultAction = action
			haveDefault = true
		case "allow", "kill", "trap", "errno":
			p.pos-- // parseAction consumes the keyword
			action, err := p.parseAction(tok.line)
			if err != nil {
				return nil, err
			}
			names, err := p.parseBlock(tok.line)
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				nr, ok := table[n.text]
				if !ok {
					return nil, errf(n.line, "unknown syscall %q", n.text)
				}
				if prev, dup := seen[n.text]; dup {
					return nil, errf(n.line, "duplicate rule for syscall %q (first on line %d)", n.text, prev)
				}
				seen[n.text] = n.line
				rules = append(rules, rule{name: n.text, nr: nr, action: action})
			}
		default:
			return nil, errf(tok.line, "unexpected token %q", tok.text)
		}
	}

	if !haveDefault {
		return nil, &CompilationError{Message: "missing default action"}
	}
	return assemble(rules, defaultAction, auditArch)
}

// parseAction consumes an action: allow, kill, trap, or errno(E).
func (p *parser) parseAction(line int) (uint32, error) {
	tok, ok := p.next()
	if !ok {
		return 0, errf(line, "missing action")
	}
	switch tok.text {
	case "allow":
		return retAllow, nil
	case "kill":
		return retKillProcess, nil
	case "trap":
		return retTrap, nil
	case "errno":
		if t, ok := p.next(); !ok || t.text != "(" {
			return 0, errf(tok.line, "errno action requires a value, e.g. errno(EACCES)")
		}
		val, ok := p.next()
		if !ok {
			return 0, errf(tok.line, "errno action requires a value")
		}
		e, err := parseErrno(val)
		if err != nil {
			return 0, err
		}
		if t, ok := p.next(); !ok || t.text != ")" {
			return 0, errf(val.line, "unclosed errno value")
		}
		return retErrnoBase | e, nil
	default:
		return 0, errf(tok.line, "unknown action %q", tok.text)
	}
}

// parseErrno resolves an errno token: a symbol name or a decimal number.
func parseErrno(tok token) (uint32, error) {
	if n, ok := ErrnoNumber(tok.text); ok {
		return n, nil
	}
	n, err := strconv.ParseUint(tok.text, 10, 32)
	if err != nil {
		return 0, errf(tok.line, "unknown errno %q", tok.text)
	}
	if n == 0 || n > maxErrno {
		return 0, errf(tok.line, "errno %d out of range (1..%d)", n, maxErrno)
	}
	return uint32(n), nil
}

// parseBlock consumes "{ name, name, ... }" and returns the name tokens.
func (p *parser) parseBlock(line int) ([]token, error) {
	tok, ok := p.next()
	if !ok || tok.text != "{" {
		return nil, errf(line, "expected '{' after action")
	}
	var names []token
	for {
		tok, ok := p.next()
		if !ok {
			return nil, errf(p.lastLine(), "unclosed rule block")
		}
		switch tok.text {
		case "}":
			if len(names) == 0 {
				return nil, errf(tok.line, "empty rule block")
			}
			return names, nil
		case ",":
			// separator
		case "{", "(", ")":
			return nil, errf(tok.line, "unexpected token %q in rule block", tok.text)
		default:
			names = append(names, tok)
		}
	}
}

// assemble lays out the filter program: load arch, arch check (kill on
// mismatch), load syscall number, one jump/return pair per rule, default
// action, arch-mismatch kill.
func assemble(rules []rule, defaultAction, auditArch uint32) (*Program, error) {
	if len(rules) > maxRuleSyscalls {
		return nil, &CompilationError{
			Message: fmt.Sprintf("too many rule syscalls: %d (max %d)", len(rules), maxRuleSyscalls),
		}
	}

	insns := make([]bpf.Instruction, 0, 2*len(rules)+5)
	insns = append(insns,
		bpf.LoadAbsolute{Off: seccompDataArchOffset, Size: 4},
		// On mismatch, jump over everything to the trailing kill return.
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: auditArch, SkipFalse: uint8(2*len(rules) + 2)},
		bpf.LoadAbsolute{Off: seccompDataNrOffset, Size: 4},
	)
	for _, r := range rules {
		insns = append(insns,
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: r.nr, SkipFalse: 1},
			bpf.RetConstant{Val: r.action},
		)
	}
	insns = append(insns,
		bpf.RetConstant{Val: defaultAction},
		bpf.RetConstant{Val: retKillProcess},
	)

	raw, err := bpf.Assemble(insns)
	if err != nil {
		return nil, &CompilationError{Message: fmt.Sprintf("assembling filter: %v", err)}
	}
	return &Program{insns: raw}, nil
}
