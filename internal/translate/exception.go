package translate

import (
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
)

// registerException wires the three guest-exception-raising instructions:
// SVC (supervisor call), BKPT (breakpoint), and UDF (explicit undefined
// instruction trap). SVC pushes its return address to the RSB (see
// handleSVC); BKPT and UDF push nothing. All three always end their block
// — there is no "continue" outcome for an exception.
func registerException(t *decode.Table[handler]) {
	mustAdd(t, "svc", "cccc1111vvvvvvvvvvvvvvvvvvvvvvvv", handleSVC)
	mustAdd(t, "bkpt", "cccc00010010vvvvvvvvvvvv0111zzzz", handleBKPT)
	mustAdd(t, "udf", "cccc01111111vvvvvvvvvvvv1111zzzz", handleUDF)
}

// handleSVC lowers a supervisor call. Grounded on the real interpreter's
// shape: record the return address in the RSB the same as a BL, write the
// immediate through CallSupervisor, and terminate with a halt check so a
// callback that requested a stop takes effect before the next block runs.
func handleSVC(c *context, f decode.Extracted) outcome {
	b := c.b
	next := c.at.AdvancePC(4)
	b.PushRSB(next)
	b.CallSupervisor(ir.Const(uint64(f.Get('v'))))
	return stop(ir.CheckHalt{Inner: ir.LinkBlock{Target: next}})
}

func handleBKPT(c *context, f decode.Extracted) outcome {
	c.b.SetRegister(15, ir.Const(uint64(c.at.PC)))
	c.b.ExceptionRaised(ExceptionBreakpoint)
	return stop(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
}

func handleUDF(c *context, f decode.Extracted) outcome {
	kind := uint8(ExceptionUndefined)
	if !c.policy.DefineUndefinedBehaviourInUDF {
		kind = ExceptionUnpredictable
	}
	c.b.SetRegister(15, ir.Const(uint64(c.at.PC)))
	c.b.ExceptionRaised(kind)
	return stop(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
}
