package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

// bufferCapacity is the fixed element count baked into the generic FIFO and
// LIFO catalog entries. A project needing a different depth declares its own
// user FB wrapping repeated PUSH/POP calls, same as these stdlib entries are
// fixed-shape templates rather than generic containers.
const bufferCapacity = 16

func bufferLayout() []*symbols.Member {
	members := []*symbols.Member{
		member("IN", 4, types.Dint),
		member("PUSH", 1, types.Bool),
		member("POP", 1, types.Bool),
		member("OUT", 4, types.Dint),
		member("EMPTY", 1, types.Bool),
		member("FULL", 1, types.Bool),
		member("_count", 4, types.Dint),
		member("_head", 4, types.Dint),
		member("_tail", 4, types.Dint),
		member("_last_push", 1, types.Bool),
		member("_last_pop", 1, types.Bool),
	}
	for i := 0; i < bufferCapacity; i++ {
		members = append(members, member("_data"+itoa(i), 4, types.Dint))
	}
	return members
}

func registerFIFOBlock(c *Catalog) {
	registerBuffer(c, "FIFO", false)
}

func registerLIFOBlock(c *Catalog) {
	registerBuffer(c, "LIFO", true)
}

// registerBuffer registers a fixed-capacity circular FIFO or a stack-
// ordered LIFO. Both share the same member layout and push behavior
// (always at _head); they differ only in where POP reads from: FIFO
// reads the oldest element at _tail and advances it, LIFO reads the
// newest element by stepping _head back.
func registerBuffer(c *Catalog, name string, lifo bool) {
	typ := symbols.NewStdlibBlockType(name, bufferLayout())
	in, push, pop, out := typ.ByName["in"], typ.ByName["push"], typ.ByName["pop"], typ.ByName["out"]
	empty, full := typ.ByName["empty"], typ.ByName["full"]
	count, head, tail := typ.ByName["_count"], typ.ByName["_head"], typ.ByName["_tail"]
	lastPush, lastPop := typ.ByName["_last_push"], typ.ByName["_last_pop"]
	data := make([]*symbols.Member, bufferCapacity)
	for i := range data {
		data[i] = typ.ByName["_data"+itoa(i)]
	}
	prefix := lowerName(name)

	c.addBlock(name, typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "IN", in); err != nil {
			return err
		}
		if err := evalInputMember(cap, "PUSH", push); err != nil {
			return err
		}
		if err := evalInputMember(cap, "POP", pop); err != nil {
			return err
		}
		cap.Sink.Comment("%s %s", name, cap.Instance)

		lSkipPush := cap.Labels.NewLabel(prefix + "_skip_push")
		lSkipPop := cap.Labels.NewLabel(prefix + "_skip_pop")

		// push: on rising edge of PUSH, if not full, write IN at _head and
		// advance _head modulo capacity.
		loadMember(cap, push)
		loadMember(cap, lastPush)
		cap.Sink.Instr("NOT")
		cap.Sink.Instr("AND")
		cap.Sink.Instr("JZ", lSkipPush)
		loadMember(cap, count)
		cap.Sink.Instr("PUSH", itoa(bufferCapacity))
		cap.Sink.Instr("GE")
		cap.Sink.Instr("JNZ", lSkipPush)

		emitIndexedStore(cap, data, head, func() { loadMember(cap, in) })
		loadMember(cap, head)
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		cap.Sink.Instr("PUSH", itoa(bufferCapacity))
		cap.Sink.Instr("MOD")
		storeMember(cap, head)
		loadMember(cap, count)
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("ADD")
		storeMember(cap, count)

		cap.Sink.Label(lSkipPush)
		loadMember(cap, push)
		storeMember(cap, lastPush)

		// pop: on rising edge of POP, if not empty, read the appropriate
		// end and advance its index modulo capacity.
		loadMember(cap, pop)
		loadMember(cap, lastPop)
		cap.Sink.Instr("NOT")
		cap.Sink.Instr("AND")
		cap.Sink.Instr("JZ", lSkipPop)
		loadMember(cap, count)
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("LE")
		cap.Sink.Instr("JNZ", lSkipPop)

		if lifo {
			loadMember(cap, head)
			cap.Sink.Instr("PUSH", "1")
			cap.Sink.Instr("SUB")
			cap.Sink.Instr("PUSH", itoa(bufferCapacity))
			cap.Sink.Instr("ADD")
			cap.Sink.Instr("PUSH", itoa(bufferCapacity))
			cap.Sink.Instr("MOD")
			storeMember(cap, head)
			emitIndexedLoad(cap, data, head)
		} else {
			emitIndexedLoad(cap, data, tail)
			loadMember(cap, tail)
			cap.Sink.Instr("PUSH", "1")
			cap.Sink.Instr("ADD")
			cap.Sink.Instr("PUSH", itoa(bufferCapacity))
			cap.Sink.Instr("MOD")
			storeMember(cap, tail)
		}
		storeMember(cap, out)
		loadMember(cap, count)
		cap.Sink.Instr("PUSH", "1")
		cap.Sink.Instr("SUB")
		storeMember(cap, count)

		cap.Sink.Label(lSkipPop)
		loadMember(cap, pop)
		storeMember(cap, lastPop)

		loadMember(cap, count)
		cap.Sink.Instr("PUSH", "0")
		cap.Sink.Instr("EQ")
		storeMember(cap, empty)
		loadMember(cap, count)
		cap.Sink.Instr("PUSH", itoa(bufferCapacity))
		cap.Sink.Instr("GE")
		storeMember(cap, full)
		return nil
	})
}

func lowerName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// emitIndexedLoad emits a runtime-indexed load from the data array:
// compute the element's address from the base of element 0 plus the
// index times the element size, then use the VM's indirect load.
func emitIndexedLoad(cap *Capability, data []*symbols.Member, index *symbols.Member) {
	emitIndexAddress(cap, data, index)
	cap.Sink.Instr("DLOADIN")
}

// emitIndexedStore emits push(value) then an indirect store to the
// computed element address. value is emitted by the caller-supplied
// thunk so the value expression can be arbitrary emission code.
func emitIndexedStore(cap *Capability, data []*symbols.Member, index *symbols.Member, value func()) {
	value()
	emitIndexAddress(cap, data, index)
	cap.Sink.Instr("DSTOREIN")
}

func emitIndexAddress(cap *Capability, data []*symbols.Member, index *symbols.Member) {
	base := addr(cap, data[0])
	loadMember(cap, index)
	cap.Sink.Instr("PUSH", "4")
	cap.Sink.Instr("MUL")
	cap.Sink.Instr("PUSH", itoa(base))
	cap.Sink.Instr("ADD")
}
