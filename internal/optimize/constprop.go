package optimize

import "github.com/vexdbt/armjit/internal/ir"

// constantPropagation evaluates every pure arithmetic/logic/shift/media op
// whose arguments are all now known constants (either literal operands or
// earlier ops this same forward sweep already folded to OpConst), masks
// the result to the op's declared type, and rewrites the op in place.
// Every operand naming an op already folded to OpConst is replaced by the
// constant itself, leaving that OpConst for the next dead-code sweep.
// Conditionals whose predicate resolves to a constant have their terminal
// replaced outright by the taken branch.
func constantPropagation(b *ir.BasicBlock) {
	for _, op := range b.Ops {
		for i, a := range op.Args {
			if v, ok := resolveConst(b.Ops, a); ok {
				op.Args[i] = ir.Const(v)
			}
		}
		fold(b.Ops, op)
	}
	if iff, ok := b.Term.(ir.If); ok {
		if v, isConst := resolveConst(b.Ops, iff.Cond); isConst {
			if v&1 != 0 {
				b.Term = iff.Then
			} else {
				b.Term = iff.Else
			}
		}
	}
}

func fold(ops []*ir.MicroOp, op *ir.MicroOp) {
	if op.Op == ir.OpConst {
		return
	}
	args := make([]uint64, len(op.Args))
	for i, a := range op.Args {
		v, ok := resolveConst(ops, a)
		if !ok {
			return
		}
		args[i] = v
	}
	result, ok := evalConst(op.Op, op.Imm, args)
	if !ok {
		return
	}
	op.Op = ir.OpConst
	op.Imm = maskToType(result, op.Type)
	op.Args = nil
}

func maskToType(v uint64, t ir.Type) uint64 {
	switch t {
	case ir.TypeI1:
		return v & 1
	case ir.TypeI8:
		return v & 0xFF
	case ir.TypeI16:
		return v & 0xFFFF
	case ir.TypeI32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}
