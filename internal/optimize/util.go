package optimize

import "github.com/vexdbt/armjit/internal/ir"

// compact removes every op index where dead[i] is true and remaps every
// remaining reference (in op arguments and in the block's terminal) to the
// new, dense index space. Kept at every pass boundary rather than only at
// the end of the pipeline, so each pass always sees a block with no gaps
// and Ref i really does mean "the i-th remaining op".
func compact(b *ir.BasicBlock, dead []bool) {
	newIndex := make([]ir.Ref, len(b.Ops))
	kept := make([]*ir.MicroOp, 0, len(b.Ops))
	for i, op := range b.Ops {
		if dead[i] {
			continue
		}
		newIndex[i] = ir.Ref(len(kept))
		kept = append(kept, op)
	}

	remap := func(args []ir.Operand) {
		for i, a := range args {
			if !a.IsConst {
				args[i].Ref = newIndex[a.Ref]
			}
		}
	}
	for _, op := range kept {
		remap(op.Args)
		if op.HasGuard && !op.Guard.IsConst {
			op.Guard.Ref = newIndex[op.Guard.Ref]
		}
	}
	b.Ops = kept
	remapTerminal(b, newIndex)
}

// remapTerminal rewrites the one Operand field a terminal may carry (If's
// condition) through the same index remapping as compact's op arguments.
func remapTerminal(b *ir.BasicBlock, newIndex []ir.Ref) {
	if iff, ok := b.Term.(ir.If); ok {
		if !iff.Cond.IsConst {
			iff.Cond.Ref = newIndex[iff.Cond.Ref]
		}
		b.Term = iff
	}
}

// resolveConst reports the constant value of op, if known: directly for a
// constant operand, or by checking whether the op it references was itself
// folded to OpConst by an earlier pass.
func resolveConst(ops []*ir.MicroOp, op ir.Operand) (uint64, bool) {
	if op.IsConst {
		return op.ConstVal, true
	}
	src := ops[op.Ref]
	if src.Op == ir.OpConst {
		return src.Imm, true
	}
	return 0, false
}
