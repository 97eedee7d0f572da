package asm

import (
	"fmt"
	"io"
)

// Disassemble writes a textual listing of code to w, one instruction per
// line, resolving operands back to decimal literals (label names are not
// recoverable once assembled, matching db47h-ngaro's Disassemble, which
// also renders resolved addresses rather than original label text).
func Disassemble(code []byte, w io.Writer) error {
	pc := 0
	for pc < len(code) {
		start := pc
		b := code[pc]
		if int(b) >= len(namesByCode) {
			return fmt.Errorf("disassemble: unknown opcode %d at offset %d", b, pc)
		}
		op := opcodesByCode[b]
		name := namesByCode[b]
		pc++
		if op.hasOperand() {
			if pc+operandSize > len(code) {
				return fmt.Errorf("disassemble: truncated operand for %s at offset %d", name, start)
			}
			val := decodeInt32(code[pc : pc+operandSize])
			if _, err := fmt.Fprintf(w, "%06d\t%s %d\n", start, name, val); err != nil {
				return err
			}
			pc += operandSize
		} else {
			if _, err := fmt.Fprintf(w, "%06d\t%s\n", start, name); err != nil {
				return err
			}
		}
	}
	return nil
}
