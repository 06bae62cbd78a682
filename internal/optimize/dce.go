package optimize

import "github.com/vexdbt/armjit/internal/ir"

// deadCodeElimination removes every micro-op whose result has no uses and
// which is pure. A single backward sweep is enough to cascade fully: by
// the time the sweep reaches op i, every later op's liveness is already
// decided, so i is live iff it is side-effecting or some live op still
// references it — in which case its own arguments are marked live too.
func deadCodeElimination(b *ir.BasicBlock) {
	live := make([]bool, len(b.Ops))
	if iff, ok := b.Term.(ir.If); ok && !iff.Cond.IsConst {
		live[iff.Cond.Ref] = true
	}

	dead := make([]bool, len(b.Ops))
	changed := false
	for i := len(b.Ops) - 1; i >= 0; i-- {
		op := b.Ops[i]
		if !live[i] && ir.IsPure(op.Op) {
			dead[i] = true
			changed = true
			continue
		}
		for _, a := range op.Args {
			if !a.IsConst {
				live[a.Ref] = true
			}
		}
		if op.HasGuard && !op.Guard.IsConst {
			live[op.Guard.Ref] = true
		}
	}
	if !changed {
		return
	}
	compact(b, dead)
}
