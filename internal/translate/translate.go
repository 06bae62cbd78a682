// Package translate implements the translator/visitor (C5): it lifts a
// contiguous run of guest instructions starting at a location descriptor
// into one IR basic block.
package translate

import (
	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
	"github.com/vexdbt/armjit/internal/loc"
)

// Policy carries the translation-policy options spec §4.2 recognizes.
type Policy struct {
	DefineUnpredictableBehaviour  bool
	DefineUndefinedBehaviourInUDF bool
}

// FetchFunc fetches a 32-bit guest instruction word, the "guest_u32(addr)"
// callback.
type FetchFunc func(addr uint32) uint32

// maxBlockInstructions is the heuristic size cap that terminates a block
// even when no control-flow instruction was seen.
const maxBlockInstructions = 128

// ExceptionKind values passed to ir.Builder.ExceptionRaised, interpreted
// by internal/callbacks.
const (
	ExceptionBreakpoint      = 0
	ExceptionUndefined       = 1
	ExceptionUnpredictable   = 2
)

// outcome is a handler's report: Continue means "this instruction did not
// terminate the block, keep translating"; otherwise Term is the block's
// final terminal.
type outcome struct {
	Continue bool
	Term     ir.Terminal
}

func cont() outcome                  { return outcome{Continue: true} }
func stop(t ir.Terminal) outcome     { return outcome{Term: t} }

// context is the per-instruction translation state threaded through
// handlers: the shared builder, the current instruction's location, and
// the active policy.
type context struct {
	b      *ir.Builder
	at     loc.Descriptor
	policy Policy
	fetch  FetchFunc
}

type handler func(c *context, f decode.Extracted) outcome

var condTable = buildConditionalTable()
var uncondTable = buildUnconditionalTable()

// buildConditionalTable assembles every handler whose top nibble is a real
// condition field (cond != NV), in priority order: data processing first
// since it is by far the most frequent class, then load/store, branch,
// media, the VFP data-transfer subset, and finally the exception-raising
// instructions.
func buildConditionalTable() *decode.Table[handler] {
	t := decode.NewConditionalTable[handler]()
	registerDataProcessing(t)
	registerLoadStore(t)
	registerBranch(t)
	registerMedia(t)
	registerVFP(t)
	registerException(t)
	return t
}

// buildUnconditionalTable assembles the handlers that live in the cond=NV
// (0xF) encoding space; the table is empty. Translate skips every word
// whose top nibble is 0xF before consulting any table (CanProveFalse), so
// unconditional guest instructions (SETEND, PLD/PLI/CLREX, unconditional
// BLX) are not executed by translated blocks; TranslateOne and Disassemble
// find no handler for them here.
func buildUnconditionalTable() *decode.Table[handler] {
	return decode.NewTable[handler]()
}

// Translate lifts guest instructions starting at start into one IR basic
// block, per spec §4.2.
func Translate(start loc.Descriptor, fetch FetchFunc, policy Policy) *ir.BasicBlock {
	b := ir.NewBuilder(start)
	cur := start

	for i := 0; i < maxBlockInstructions; i++ {
		word := fetch(cur.PC)

		condField := armisa.Cond(word >> 28)
		if armisa.CanProveFalse(condField) {
			// NV: spec §4.2 step 1 — proved false at translate time, skip
			// the instruction entirely rather than emitting anything.
			cur = cur.AdvancePC(4)
			b.AddCycles(1)
			continue
		}

		var entry decode.Entry[handler]
		var fields decode.Extracted
		var ok bool
		if word&0xF0000000 == 0xF0000000 {
			entry, fields, ok = uncondTable.Match(word)
		} else {
			entry, fields, ok = condTable.Match(word)
		}

		if !ok {
			// No AddCycles here: the word is still retired, but not by this
			// block — internal/interp.Step bills exactly one tick for it,
			// whichever path it takes (condition failed, or TranslateOne's
			// own compiled block), so this bailout block must stay Cycles=0
			// or the instruction is billed twice.
			b.SetTerm(ir.Interpret{At: cur})
			finish(b, cur)
			return b.Block()
		}

		// A non-AL condition on anything but a branch mnemonic (branch
		// handlers build their own If terminal via evalCond, see branch.go)
		// is lowered as a per-instruction guard per spec's step 1: the
		// instruction's operands and pure computation run unconditionally,
		// exactly as on real hardware, and its state writes are predicated
		// on the condition so a failed check leaves guest state untouched
		// without ever leaving the JIT for this instruction.
		if condField != armisa.CondAL && !isBranchMnemonic(entry.Mnemonic) {
			flagsCond := evalCond(b, condField)
			b.SetGuard(flagsCond)
			c := &context{b: b, at: cur, policy: policy, fetch: fetch}
			out := entry.Value(c, fields)
			b.ClearGuard()
			b.AddCycles(1)

			if out.Continue {
				cur = cur.AdvancePC(4)
				continue
			}

			// The instruction wanted to end the block outright (writing
			// R15 directly, or raising an exception) — its own writes are
			// already guarded above, so its terminal only ever applies
			// when the condition held; a failed condition instead falls
			// through to the next instruction's address, same as a
			// not-taken branch.
			next := cur.AdvancePC(4)
			b.SetTerm(ir.If{
				Cond: flagsCond,
				Then: out.Term,
				Else: ir.LinkBlockFast{Target: next},
			})
			finish(b, cur)
			return b.Block()
		}

		c := &context{b: b, at: cur, policy: policy, fetch: fetch}
		out := entry.Value(c, fields)
		if !out.Continue {
			// The instruction that ends the block (a taken or conditional
			// branch) still retires and still costs a cycle — without this,
			// a block consisting solely of a self-branch would report zero
			// cycles and a tick-budget-only caller would never terminate.
			b.AddCycles(1)
			b.SetTerm(out.Term)
			finish(b, cur)
			return b.Block()
		}

		cur = cur.AdvancePC(4)
		b.AddCycles(1)
	}

	// Size cap reached: fall through to the next block via ordinary
	// linking, which the dispatcher/emitter will resolve lazily. Uses the
	// halt-polling variant since a run of straight-line blocks hitting this
	// cap repeatedly is exactly the kind of boundary that must stay
	// responsive to a pending halt or invalidation.
	b.SetTerm(ir.LinkBlockFast{Target: cur})
	finish(b, cur)
	return b.Block()
}

// TranslateOne lifts exactly one guest instruction at "at" into its own
// one-instruction block, used by internal/interp to execute the
// instruction at an Interpret terminal, which Translate emits for a word
// neither decode table matches. Unlike Translate, it runs a
// matched handler regardless of the word's condition field — the caller
// (internal/interp) has already decided the condition passed, by the same
// armisa.Passed rule a real core applies, before calling this.
func TranslateOne(at loc.Descriptor, fetch FetchFunc, policy Policy) *ir.BasicBlock {
	b := ir.NewBuilder(at)
	word := fetch(at.PC)

	var entry decode.Entry[handler]
	var fields decode.Extracted
	var ok bool
	if word&0xF0000000 == 0xF0000000 {
		entry, fields, ok = uncondTable.Match(word)
	} else {
		entry, fields, ok = condTable.Match(word)
	}

	if !ok {
		// Nothing left to fall back to: treat an encoding unknown even to
		// the interpreter's own decode step as an undefined trap.
		b.AddCycles(1)
		b.SetRegister(15, ir.Const(uint64(at.PC)))
		b.ExceptionRaised(ExceptionUnpredictable)
		b.SetTerm(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
		finish(b, at)
		return b.Block()
	}

	c := &context{b: b, at: at, policy: policy, fetch: fetch}
	out := entry.Value(c, fields)
	b.AddCycles(1)
	if out.Continue {
		b.SetRegister(15, ir.Const(uint64(at.PC+4)))
		b.SetTerm(ir.ReturnToDispatch{})
	} else {
		b.SetTerm(out.Term)
	}
	finish(b, at)
	return b.Block()
}

func finish(b *ir.Builder, last loc.Descriptor) {
	blk := b.Block()
	blk.GuestSizeBytes = last.PC + 4 - blk.GuestStartPC
}

// isBranchMnemonic names the mnemonics whose own handler already builds a
// per-instruction If{Then,Else} terminal from evalCond, rather than relying
// on the generic guard the translate loop wraps around every other
// non-AL-conditioned instruction: "b" (no side effect beyond the chosen
// target PC) and "bl" (LR write and RSB push, themselves lowered under a
// Builder guard matching the same condition — see makeBranchHandler). The
// register-indirect forms, "bx"/"blx", are not listed: a non-AL bx/blx
// takes the generic guarded path, its terminal wrapped in an If that falls
// through to the next instruction when the condition fails.
func isBranchMnemonic(m string) bool {
	return m == "b" || m == "bl"
}
