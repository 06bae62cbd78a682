// Package optimize implements the fixed 7-pass pipeline (C6) applied to
// every freshly translated block: GetSet elimination, two dead-code-
// elimination sweeps bracketing constant-memory substitution and constant
// propagation, an interpret-block merge, and a final verification pass.
// Every pass is a single forward or backward sweep and is idempotent —
// running the whole pipeline twice on its own output is a no-op.
package optimize

import "github.com/vexdbt/armjit/internal/ir"

// ConstMemoryReader answers whether addr lies in a page the consumer has
// declared read-only and, if so, the word stored there — the "policy
// callback" pass 3 substitutes constant loads through.
type ConstMemoryReader func(addr uint32) (value uint32, readOnly bool)

// Run applies the fixed pipeline to b in place. mem may be nil, in which
// case pass 3 is skipped (no load is ever foldable).
func Run(b *ir.BasicBlock, mem ConstMemoryReader) {
	getSetElimination(b)
	deadCodeElimination(b)
	if mem != nil {
		constantMemoryReads(b, mem)
	}
	constantPropagation(b)
	deadCodeElimination(b)
	mergeInterpretBlocks(b)
	Verify(b)
}
