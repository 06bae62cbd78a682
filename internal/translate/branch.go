package translate

import (
	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
)

func registerBranch(t *decode.Table[handler]) {
	mustAdd(t, "b", "cccc1010vvvvvvvvvvvvvvvvvvvvvvvv", makeBranchHandler(false))
	mustAdd(t, "bl", "cccc1011vvvvvvvvvvvvvvvvvvvvvvvv", makeBranchHandler(true))
	mustAdd(t, "bx", "cccc000100101111111111110001mmmm", makeIndirectBranchHandler(false))
	mustAdd(t, "blx.r", "cccc000100101111111111110011mmmm", makeIndirectBranchHandler(true))
}

// makeIndirectBranchHandler lowers BX/BLX(register): the target comes from
// a register at run time, so unlike B/BL it cannot be named by a static
// loc.Descriptor baked into a LinkBlock terminal — this is BranchWritePC's
// one real use, handing the dynamic target to the dispatcher's full lookup
// via ReturnToDispatch instead. This implementation never decodes Thumb, so
// Rm's interworking bit 0 (switch to Thumb) is masked off rather than acted
// on.
func makeIndirectBranchHandler(link bool) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		rm := b.GetRegister(uint8(f.Get('m')))
		target := b.And(rm, ir.Const(0xFFFFFFFE))

		if link {
			next := c.at.AdvancePC(4)
			b.PushRSB(next)
			b.SetRegister(14, ir.Const(uint64(next.PC)))
		}

		b.BranchWritePC(target)
		if link {
			// A register-form call: the target is rarely an address this
			// same call already returns to, so there's nothing for the RSB
			// fast path to hit.
			return stop(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
		}
		// The canonical `bx lr` return idiom: try the RSB fast path first,
		// since the target is very likely a live return address this same
		// call site's BL/BLX pushed.
		return stop(ir.CheckHalt{Inner: ir.PopRSBHint{}})
	}
}

// branchTarget decodes the signed 24-bit word-offset immediate shared by
// B and BL into an absolute target PC, relative to this instruction's
// address plus 8 (the classic ARM pipeline convention).
func branchTarget(at uint32, imm24 uint32) uint32 {
	signExtended := int32(imm24<<8) >> 8 // sign-extend 24 -> 32
	offset := signExtended << 2
	return uint32(int64(at) + 8 + int64(offset))
}

func makeBranchHandler(link bool) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		cond := armisa.Cond(f.Get('c'))
		target := branchTarget(c.at.PC, f.Get('v'))
		targetLoc := c.at.SetPC(target)
		next := c.at.AdvancePC(4)

		// Every taken transfer out of a block is a suspension point (spec's
		// concurrency model: halt_requested is polled at every LinkBlockFast
		// boundary as well as every explicit CheckHalt), so branches always
		// link through the fast variant rather than bare LinkBlock.
		if cond == armisa.CondAL {
			if link {
				b.PushRSB(next)
				b.SetRegister(14, ir.Const(uint64(next.PC)))
			}
			return stop(ir.LinkBlockFast{Target: targetLoc})
		}

		// BL's own side effects (the RSB push and the LR write) must take
		// effect exactly when the branch is taken, never on the not-taken
		// path — guarded under the same condition the terminal below
		// branches on, rather than unconditionally emitted the way the AL
		// case above does it.
		flagsCond := evalCond(b, cond)
		if link {
			b.SetGuard(flagsCond)
			b.PushRSB(next)
			b.SetRegister(14, ir.Const(uint64(next.PC)))
			b.ClearGuard()
		}
		return stop(ir.If{
			Cond: flagsCond,
			Then: ir.LinkBlockFast{Target: targetLoc},
			Else: ir.LinkBlockFast{Target: next},
		})
	}
}

// evalCond builds the IR boolean expression for a non-AL condition field,
// evaluated from the current N/Z/C/V flags.
func evalCond(b *ir.Builder, cond armisa.Cond) ir.Operand {
	n, z, c, v := b.GetNFlag(), b.GetZFlag(), b.GetCFlag(), b.GetVFlag()
	switch cond {
	case armisa.CondEQ:
		return z
	case armisa.CondNE:
		return b.NotBool(z)
	case armisa.CondCS:
		return c
	case armisa.CondCC:
		return b.NotBool(c)
	case armisa.CondMI:
		return n
	case armisa.CondPL:
		return b.NotBool(n)
	case armisa.CondVS:
		return v
	case armisa.CondVC:
		return b.NotBool(v)
	case armisa.CondHI:
		return b.AndBool(c, b.NotBool(z))
	case armisa.CondLS:
		return b.OrBool(b.NotBool(c), z)
	case armisa.CondGE:
		return b.NotBool(b.EorBool(n, v))
	case armisa.CondLT:
		return b.EorBool(n, v)
	case armisa.CondGT:
		return b.AndBool(b.NotBool(b.EorBool(n, v)), b.NotBool(z))
	case armisa.CondLE:
		return b.OrBool(b.EorBool(n, v), z)
	default:
		return ir.Const(1)
	}
}
