package optimize

import "github.com/vexdbt/armjit/internal/ir"

// stateSlot names one piece of split guest state a Get/Set pair can
// address: register file and extended register file are keyed by their
// Imm (register index); every flag has exactly one slot, Imm always 0.
type stateSlot struct {
	setOp ir.Opcode
	idx   uint64
}

var getToSet = map[ir.Opcode]ir.Opcode{
	ir.OpGetRegister: ir.OpSetRegister,
	ir.OpGetExtReg:   ir.OpSetExtReg,
	ir.OpGetFPSCR:    ir.OpSetFPSCR,
	ir.OpGetNFlag:    ir.OpSetNFlag,
	ir.OpGetZFlag:    ir.OpSetZFlag,
	ir.OpGetCFlag:    ir.OpSetCFlag,
	ir.OpGetVFlag:    ir.OpSetVFlag,
	ir.OpGetQFlag:    ir.OpSetQFlag,
	ir.OpGetGE:       ir.OpSetGE,
}

var isStateSet = invert(getToSet)

func invert(m map[ir.Opcode]ir.Opcode) map[ir.Opcode]bool {
	out := make(map[ir.Opcode]bool, len(m))
	for _, v := range m {
		out[v] = true
	}
	return out
}

// getSetElimination folds every "SetRegister r, v; ...; GetRegister r"
// pair (no intervening write to r) into a direct use of v, and drops any
// SetRegister that a later SetRegister of the same slot overwrites before
// ever being read. Applies uniformly to registers, extended registers, and
// every split flag, since they share the same Get/Set shape. Single
// forward sweep, per the pipeline's per-pass sweep contract.
func getSetElimination(b *ir.BasicBlock) {
	pendingSet := map[stateSlot]int{} // slot -> op index of an unread Set
	dead := make([]bool, len(b.Ops))
	subst := make([]ir.Operand, len(b.Ops))
	hasSubst := make([]bool, len(b.Ops))
	changed := false

	for i, op := range b.Ops {
		if setOp, isGet := getToSet[op.Op]; isGet {
			slot := stateSlot{setOp, op.Imm}
			if setIdx, ok := pendingSet[slot]; ok {
				subst[i] = b.Ops[setIdx].Args[0]
				hasSubst[i] = true
				dead[i] = true
				changed = true
			}
			delete(pendingSet, slot)
			continue
		}
		if isStateSet[op.Op] {
			slot := stateSlot{op.Op, op.Imm}
			if op.HasGuard {
				// A predicated set may or may not take effect at run time,
				// so neither an earlier pending set nor this one can be
				// assumed dead or foldable through — leave both opaque to
				// this pass and let an intervening Get genuinely re-read
				// the slot.
				delete(pendingSet, slot)
				continue
			}
			if prevIdx, ok := pendingSet[slot]; ok {
				dead[prevIdx] = true
				changed = true
			}
			pendingSet[slot] = i
		}
	}

	if !changed {
		return
	}
	applySubstitution(b, hasSubst, subst)
	compact(b, dead)
}

// applySubstitution rewrites every argument (and the terminal's condition)
// that referenced a now-redundant Get with the value its matching Set
// originally carried.
func applySubstitution(b *ir.BasicBlock, hasSubst []bool, subst []ir.Operand) {
	rewrite := func(op *ir.Operand) {
		if !op.IsConst && hasSubst[op.Ref] {
			*op = subst[op.Ref]
		}
	}
	for _, op := range b.Ops {
		for i := range op.Args {
			rewrite(&op.Args[i])
		}
	}
	if iff, ok := b.Term.(ir.If); ok {
		rewrite(&iff.Cond)
		b.Term = iff
	}
}
