// Package asm implements the textual-assembly-to-bytecode assembler
// contract spec.md treats as an external collaborator: one instruction
// per line, uppercase mnemonics, `name:` labels at column 0, `;`
// comments, decimal or `0x` hex literal operands. Grounded on
// db47h-ngaro's asm package (asm.go, parser.go): a two-pass compile
// (collect every label's address, then emit and resolve references)
// over a Forth-like textual source, adapted from ngaro's single-cell
// ISA to this compiler's own mnemonic set.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eduardojvieira/stc/internal/cerrors"
)

// operandSize is the width in bytes of every instruction operand cell.
const operandSize = 4

// DebugEntry maps one assembled program counter to the source line the
// generator annotated it with via `; @source <line>`.
type DebugEntry struct {
	PC   int
	Line int
}

// Assembled is the result of assembling one program's textual assembly:
// the raw code bytes, the byte offsets of every control-flow operand
// (the ones internal/project must rewrite when concatenating programs),
// and an optional debug map built from source annotations.
type Assembled struct {
	Code       []byte
	RelocSites []int
	Labels     map[string]int
	DebugMap   []DebugEntry
}

// line is one source line already split into a label definition (if
// any) and the remaining instruction text.
type line struct {
	no          int
	label       string
	mnemonic    string
	operand     string
	hasOperand  bool
	sourceLine  int // 0 means "no @source annotation precedes this line"
}

func (a *Assembler) errf(lineNo int, format string, args ...interface{}) error {
	return cerrors.New(cerrors.Asm, cerrors.Position{Line: lineNo}, fmt.Sprintf(format, args...), a.source, a.name)
}

// Assembler holds the state of one Assemble call; like internal/codegen's
// Generator, nothing here outlives a single call.
type Assembler struct {
	source string
	name   string
}

// Assemble compiles one program's textual VM assembly into bytecode.
// name is used only to label diagnostics (the originating file or
// program name).
func Assemble(name, source string) (*Assembled, error) {
	a := &Assembler{source: source, name: name}
	lines, err := a.scan(source)
	if err != nil {
		return nil, err
	}
	labels, err := a.collectLabels(lines)
	if err != nil {
		return nil, err
	}
	return a.emit(lines, labels)
}

var sourceAnnotation = "@source "

// scan splits source into logical lines: a label definition, an
// instruction (mnemonic plus at most one operand token), or both when a
// label and an instruction share one physical line. Comment-only lines
// are dropped, except `; @source N` annotations, which attach to the
// next instruction line.
func (a *Assembler) scan(source string) ([]*line, error) {
	var out []*line
	pendingSource := 0
	for i, raw := range strings.Split(source, "\n") {
		lineNo := i + 1
		text := raw
		if idx := strings.IndexByte(text, ';'); idx >= 0 {
			comment := strings.TrimSpace(text[idx+1:])
			text = text[:idx]
			if strings.HasPrefix(comment, sourceAnnotation) {
				n, err := strconv.Atoi(strings.TrimSpace(comment[len(sourceAnnotation):]))
				if err != nil {
					return nil, a.errf(lineNo, "malformed @source annotation: %s", comment)
				}
				pendingSource = n
				continue
			}
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		l := &line{no: lineNo, sourceLine: pendingSource}
		pendingSource = 0

		if colon := strings.IndexByte(text, ':'); colon >= 0 && !strings.ContainsAny(text[:colon], " \t") {
			l.label = text[:colon]
			text = strings.TrimSpace(text[colon+1:])
			if text == "" {
				out = append(out, l)
				continue
			}
		}

		fields := strings.Fields(text)
		l.mnemonic = strings.ToUpper(fields[0])
		if len(fields) > 1 {
			l.operand = strings.TrimSuffix(fields[1], ",")
			l.hasOperand = true
		}
		out = append(out, l)
	}
	return out, nil
}

// collectLabels runs the first pass: walk every line computing its byte
// address exactly as emit will, recording where each label lands.
func (a *Assembler) collectLabels(lines []*line) (map[string]int, error) {
	labels := make(map[string]int, len(lines))
	pc := 0
	for _, l := range lines {
		if l.label != "" {
			if _, dup := labels[l.label]; dup {
				return nil, a.errf(l.no, "duplicate label %q", l.label)
			}
			labels[l.label] = pc
		}
		if l.mnemonic == "" {
			continue
		}
		op, ok := opcodesByName[l.mnemonic]
		if !ok {
			return nil, a.errf(l.no, "unknown mnemonic %q", l.mnemonic)
		}
		pc++
		if op.hasOperand() {
			pc += operandSize
		}
	}
	return labels, nil
}

// emit runs the second pass: re-walk the same lines, writing each
// opcode byte and resolving its operand (a literal or a label address)
// into the code buffer.
func (a *Assembler) emit(lines []*line, labels map[string]int) (*Assembled, error) {
	asmd := &Assembled{Labels: labels}
	pc := 0
	for _, l := range lines {
		if l.mnemonic == "" {
			continue
		}
		op := opcodesByName[l.mnemonic]
		if l.sourceLine != 0 {
			asmd.DebugMap = append(asmd.DebugMap, DebugEntry{PC: pc, Line: l.sourceLine})
		}
		asmd.Code = append(asmd.Code, op.code)
		pc++
		if op.hasOperand() {
			if !l.hasOperand {
				return nil, a.errf(l.no, "%s requires an operand", l.mnemonic)
			}
			val, err := a.resolveOperand(l, labels)
			if err != nil {
				return nil, err
			}
			asmd.Code = append(asmd.Code, encodeInt32(val)...)
			if op.isControlFlow() {
				asmd.RelocSites = append(asmd.RelocSites, pc)
			}
			pc += operandSize
		} else if l.hasOperand {
			return nil, a.errf(l.no, "%s takes no operand", l.mnemonic)
		}
	}
	return asmd, nil
}

func (a *Assembler) resolveOperand(l *line, labels map[string]int) (int, error) {
	if n, ok := parseIntLiteral(l.operand); ok {
		return n, nil
	}
	addr, ok := labels[l.operand]
	if !ok {
		return 0, a.errf(l.no, "undefined label %q", l.operand)
	}
	return addr, nil
}

// parseIntLiteral accepts a decimal or `0x` hex integer literal, per
// spec.md §6's textual-assembly surface.
func parseIntLiteral(s string) (int, bool) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	n, err := strconv.ParseInt(s, base, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func encodeInt32(n int) []byte {
	u := uint32(int32(n))
	return []byte{byte(u), byte(u >> 8), byte(u >> 16), byte(u >> 24)}
}

func decodeInt32(b []byte) int {
	u := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return int(int32(u))
}
