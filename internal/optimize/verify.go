package optimize

import (
	"fmt"

	"github.com/vexdbt/armjit/internal/ir"
)

// Verify asserts the IR invariants the rest of the pipeline depends on:
// every argument reference points strictly backward within the block, the
// terminal's operand (if any) does too, and every terminal type is
// structurally well-formed. A failure here means an earlier pass produced
// malformed IR — a fatal bug in this implementation, not a guest-code
// translation error, so it panics rather than returning an error.
func Verify(b *ir.BasicBlock) {
	for i, op := range b.Ops {
		for _, a := range op.Args {
			if a.IsConst {
				continue
			}
			if int(a.Ref) >= i {
				panic(fmt.Sprintf("optimize: op %d references non-prior ref %d", i, a.Ref))
			}
		}
		if len(op.FlagUseScratch) != 0 && len(op.FlagUseScratch) != len(op.Args) {
			panic(fmt.Sprintf("optimize: op %d has %d FlagUseScratch entries for %d args", i, len(op.FlagUseScratch), len(op.Args)))
		}
		if op.HasGuard && !op.Guard.IsConst && int(op.Guard.Ref) >= i {
			panic(fmt.Sprintf("optimize: op %d's Guard references non-prior ref %d", i, op.Guard.Ref))
		}
	}
	verifyTerminal(b, b.Term)
}

func verifyTerminal(b *ir.BasicBlock, t ir.Terminal) {
	switch term := t.(type) {
	case nil:
		panic("optimize: block has no terminal")
	case ir.If:
		if !term.Cond.IsConst && int(term.Cond.Ref) >= len(b.Ops) {
			panic("optimize: If.Cond references out-of-range ref")
		}
		if term.Then == nil || term.Else == nil {
			panic("optimize: If terminal missing a branch")
		}
		verifyTerminal(b, term.Then)
		verifyTerminal(b, term.Else)
	case ir.CheckBit:
		if term.Then == nil || term.Else == nil {
			panic("optimize: CheckBit terminal missing a branch")
		}
		verifyTerminal(b, term.Then)
		verifyTerminal(b, term.Else)
	case ir.CheckHalt:
		if term.Inner == nil {
			panic("optimize: CheckHalt terminal missing its inner terminal")
		}
		verifyTerminal(b, term.Inner)
	case ir.Interpret, ir.ReturnToDispatch, ir.LinkBlock, ir.LinkBlockFast, ir.PopRSBHint, ir.FastDispatchHint:
		// Leaf terminals: no further structure to check.
	default:
		panic(fmt.Sprintf("optimize: unrecognized terminal type %T", t))
	}
}
