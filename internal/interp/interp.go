// Package interp implements the reference interpreter the translator
// bails out to (the IR Interpret terminal) for a word neither decode table
// matches; the translator routes no UNPREDICTABLE encoding here, whatever
// the policy. It executes exactly one guest instruction per Step call
// by compiling a one-instruction block the same way the JIT compiles any
// other block, rather than duplicating instruction semantics in a second
// implementation that could drift from the translator's.
package interp

import (
	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/loc"
	"github.com/vexdbt/armjit/internal/translate"
)

// Interpreter holds the same inputs the dispatcher's translation pipeline
// does, minus the optimizer and code cache — a one-instruction block is
// too short for either to pay for itself, and caching it would need the
// same staleness handling as the JIT path for no benefit, since Step is
// only ever reached through a cold, rarely-taken terminal.
type Interpreter struct {
	fetch  translate.FetchFunc
	cb     emit.Callbacks
	policy translate.Policy
}

// New returns an interpreter sharing the dispatcher's fetch callback,
// guest-environment callbacks, and translation policy.
func New(fetch translate.FetchFunc, cb emit.Callbacks, policy translate.Policy) *Interpreter {
	return &Interpreter{fetch: fetch, cb: cb, policy: policy}
}

// Step executes the single guest instruction at "at" against st and
// advances st to its successor location (the instruction's own fallthrough,
// or a branch target it takes). If the instruction's condition does not
// hold, Step performs no architectural effect beyond advancing the PC,
// matching how a real core retires a failed-condition instruction.
func (ip *Interpreter) Step(st *guest.State, at loc.Descriptor) {
	word := ip.fetch(at.PC)
	cond := armisa.Cond(word >> 28)

	// cond is never NV here: the translator's own block loop already skips
	// NV-conditioned words at translate time (CanProveFalse), before they
	// could ever reach an Interpret terminal.
	if cond != armisa.CondAL {
		flags := armisa.Flags{N: st.N, Z: st.Z, C: st.C, V: st.V}
		if !armisa.Passed(cond, flags) {
			// The instruction the block-level translator bailed out on still
			// retires exactly once here, architecturally a no-op — bill its
			// one tick directly, since the caller's bailout block (Cycles=0,
			// see translate.Translate) deliberately didn't.
			ip.cb.AddTicks(1)
			st.SetLocation(at.AdvancePC(4))
			return
		}
	}

	block := translate.TranslateOne(at, ip.fetch, ip.policy)
	code := emit.Compile(block, ip.cb, ip)
	exit := code(st)

	// Every exit other than a halt carries the successor in Next, whichever
	// terminal TranslateOne produced: ReturnToDispatch reads it from R15
	// (TranslateOne writes PC+4 there for an instruction that does not end
	// the block), and a branch's link terminals name their target directly.
	if exit.Reason != emit.ExitHalted {
		st.SetLocation(exit.Next)
	}
}

// Resolve implements emit.Linker for the one case a single-instruction
// block can still need it: a forced-AL BL/BLX executed through the
// interpreter pushes a real RSB entry, and that entry's code must resolve
// through the same get-or-translate path everything else uses.
func (ip *Interpreter) Resolve(target loc.Descriptor) emit.HostCode {
	block := translate.Translate(target, ip.fetch, ip.policy)
	return emit.Compile(block, ip.cb, ip)
}
