package stdlib

import (
	"strconv"

	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// sizeOp returns the load/store opcode mnemonic for a value of the given
// byte width, matching internal/codegen's width-directed opcode selection
// (BOOL/SINT/USINT load/store as a single byte; INT/UINT as a word;
// DINT/UDINT/REAL/TIME/DATE/TOD as a double word; LINT/ULINT/LREAL/DT as a
// quad word).
func sizeOp(size int, store bool) string {
	var base string
	switch size {
	case 1:
		base = "B"
	case 2:
		base = "W"
	case 4:
		base = "D"
	default:
		base = "Q"
	}
	if store {
		return base + "STORE"
	}
	return base + "LOAD"
}

func itoa(n int) string { return strconv.Itoa(n) }

// addr returns the absolute address of member m within the instance based
// at cap.Base.
func addr(cap *Capability, m *symbols.Member) int { return m.AbsoluteAddress(cap.Base) }

// loadMember emits a load of member m's current value onto stack.
func loadMember(cap *Capability, m *symbols.Member) {
	cap.Sink.Instr(sizeOp(m.Size, false), itoa(addr(cap, m)))
}

// storeMember emits a store of the top-of-stack value into member m.
func storeMember(cap *Capability, m *symbols.Member) {
	cap.Sink.Instr(sizeOp(m.Size, true), itoa(addr(cap, m)))
}

// storeImmediate emits `PUSH n` then stores it into member m.
func storeImmediate(cap *Capability, m *symbols.Member, value int) {
	cap.Sink.Instr("PUSH", itoa(value))
	storeMember(cap, m)
}

// evalInputMember evaluates the named input argument (if bound, else its
// IEC default) and stores it to the member's address. Stateful blocks call
// this once per declared input at the top of their template, per spec's
// invocation contract: "first store each named input parameter to the
// instance's member address".
func evalInputMember(cap *Capability, paramName string, m *symbols.Member) error {
	if e, ok := cap.Arg(paramName); ok {
		if err := cap.Expr.Expr(e); err != nil {
			return err
		}
		storeMember(cap, m)
		return nil
	}
	storeImmediate(cap, m, 0)
	return nil
}

func member(name string, size int, typ types.Type) *symbols.Member {
	return &symbols.Member{Name: name, Size: size, Type: typ}
}
