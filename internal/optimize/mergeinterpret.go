package optimize

import "github.com/vexdbt/armjit/internal/ir"

// mergeInterpretBlocks collapses adjacent interpret fallbacks into one run.
// This translator already never splits a single bail across multiple
// Interpret terminals within one block — a block holds at most one, and it
// always covers every instruction from the bail point to the block's end —
// so at single-block granularity there is nothing left to merge; any
// merging across linked blocks that both end in Interpret is the
// dispatcher's concern when it decides whether to chain them, not this
// pass's.
func mergeInterpretBlocks(b *ir.BasicBlock) {
	if _, ok := b.Term.(ir.Interpret); !ok {
		return
	}
}
