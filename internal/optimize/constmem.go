package optimize

import "github.com/vexdbt/armjit/internal/ir"

// constantMemoryReads substitutes any OpReadMemory32 whose address is a
// known constant and which mem reports as lying in a read-only page with
// the word actually stored there — turning a runtime load into a folded
// constant the next pass can propagate further.
func constantMemoryReads(b *ir.BasicBlock, mem ConstMemoryReader) {
	for _, op := range b.Ops {
		if op.Op != ir.OpReadMemory32 {
			continue
		}
		addr, ok := resolveConst(b.Ops, op.Args[0])
		if !ok {
			continue
		}
		value, readOnly := mem(uint32(addr))
		if !readOnly {
			continue
		}
		op.Op = ir.OpConst
		op.Imm = uint64(value)
		op.Args = nil
	}
}
