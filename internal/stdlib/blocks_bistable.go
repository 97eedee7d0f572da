package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

func bistableLayout(setName, resetName string) []*symbols.Member {
	return []*symbols.Member{
		member(setName, 1, types.Bool),
		member(resetName, 1, types.Bool),
		member("Q1", 1, types.Bool),
	}
}

func registerBistableBlocks(c *Catalog) {
	registerSR(c)
	registerRS(c)
}

// registerSR registers the set-dominant bistable: SET1 wins when both
// inputs are true simultaneously.
func registerSR(c *Catalog) {
	typ := symbols.NewStdlibBlockType("SR", bistableLayout("SET1", "RESET"))
	set, reset, q1 := typ.ByName["set1"], typ.ByName["reset"], typ.ByName["q1"]
	c.addBlock("SR", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "SET1", set); err != nil {
			return err
		}
		if err := evalInputMember(cap, "RESET", reset); err != nil {
			return err
		}
		cap.Sink.Comment("SR %s", cap.Instance)
		lReset := cap.Labels.NewLabel("sr_reset")
		lEnd := cap.Labels.NewLabel("sr_end")

		loadMember(cap, set)
		cap.Sink.Instr("JZ", lReset)
		storeImmediate(cap, q1, 1)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lReset)
		loadMember(cap, reset)
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q1, 0)

		cap.Sink.Label(lEnd)
		return nil
	})
}

// registerRS registers the reset-dominant bistable: RESET wins when both
// inputs are true simultaneously.
func registerRS(c *Catalog) {
	typ := symbols.NewStdlibBlockType("RS", bistableLayout("SET", "RESET1"))
	set, reset, q1 := typ.ByName["set"], typ.ByName["reset1"], typ.ByName["q1"]
	c.addBlock("RS", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "SET", set); err != nil {
			return err
		}
		if err := evalInputMember(cap, "RESET1", reset); err != nil {
			return err
		}
		cap.Sink.Comment("RS %s", cap.Instance)
		lSet := cap.Labels.NewLabel("rs_set")
		lEnd := cap.Labels.NewLabel("rs_end")

		loadMember(cap, reset)
		cap.Sink.Instr("JZ", lSet)
		storeImmediate(cap, q1, 0)
		cap.Sink.Instr("JMP", lEnd)

		cap.Sink.Label(lSet)
		loadMember(cap, set)
		cap.Sink.Instr("JZ", lEnd)
		storeImmediate(cap, q1, 1)

		cap.Sink.Label(lEnd)
		return nil
	})
}
