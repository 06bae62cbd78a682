package ir

import "github.com/vexdbt/armjit/internal/loc"

// BasicBlock is a maximal straight-line run of lifted guest instructions:
// an entry location, an ordered micro-op list, a cycle count, and a
// terminal.
type BasicBlock struct {
	Entry  loc.Descriptor
	Ops    []*MicroOp
	Cycles uint64
	Term   Terminal

	// GuestStartPC and GuestSizeBytes record the guest address range this
	// translation covers, needed by the range index (C7) independently of
	// Entry's full mode-bit descriptor.
	GuestStartPC   uint32
	GuestSizeBytes uint32
}

// Clone returns a deep-enough copy of b suitable for the optimizer's
// idempotence test (running the pipeline twice must produce the same IR):
// the slice backing arrays are copied so passes mutating one copy never
// affect the other.
func (b *BasicBlock) Clone() *BasicBlock {
	ops := make([]*MicroOp, len(b.Ops))
	for i, op := range b.Ops {
		clone := *op
		clone.Args = append([]Operand(nil), op.Args...)
		if op.FlagUseScratch != nil {
			clone.FlagUseScratch = append([]bool(nil), op.FlagUseScratch...)
		}
		ops[i] = &clone
	}
	return &BasicBlock{
		Entry:          b.Entry,
		Ops:            ops,
		Cycles:         b.Cycles,
		Term:           b.Term,
		GuestStartPC:   b.GuestStartPC,
		GuestSizeBytes: b.GuestSizeBytes,
	}
}
