package stdlib

import (
	"github.com/eduardojvieira/stc/internal/symbols"
	"github.com/eduardojvieira/stc/internal/types"
)

func edgeLayout() []*symbols.Member {
	return []*symbols.Member{
		member("CLK", 1, types.Bool),
		member("Q", 1, types.Bool),
		member("_last", 1, types.Bool),
	}
}

func registerEdgeBlocks(c *Catalog) {
	registerRTrig(c)
	registerFTrig(c)
}

// registerRTrig registers the rising-edge detector: Q pulses true for the
// one cycle in which CLK transitions from false to true.
func registerRTrig(c *Catalog) {
	typ := symbols.NewStdlibBlockType("R_TRIG", edgeLayout())
	clk, q, last := typ.ByName["clk"], typ.ByName["q"], typ.ByName["_last"]
	c.addBlock("R_TRIG", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "CLK", clk); err != nil {
			return err
		}
		cap.Sink.Comment("R_TRIG %s", cap.Instance)
		loadMember(cap, clk)
		loadMember(cap, last)
		cap.Sink.Instr("NOT")
		cap.Sink.Instr("AND")
		storeMember(cap, q)
		loadMember(cap, clk)
		storeMember(cap, last)
		return nil
	})
}

// registerFTrig registers the falling-edge detector: Q pulses true for the
// one cycle in which CLK transitions from true to false.
func registerFTrig(c *Catalog) {
	typ := symbols.NewStdlibBlockType("F_TRIG", edgeLayout())
	clk, q, last := typ.ByName["clk"], typ.ByName["q"], typ.ByName["_last"]
	c.addBlock("F_TRIG", typ, func(cap *Capability) error {
		if err := evalInputMember(cap, "CLK", clk); err != nil {
			return err
		}
		cap.Sink.Comment("F_TRIG %s", cap.Instance)
		loadMember(cap, last)
		loadMember(cap, clk)
		cap.Sink.Instr("NOT")
		cap.Sink.Instr("AND")
		storeMember(cap, q)
		loadMember(cap, clk)
		storeMember(cap, last)
		return nil
	})
}
