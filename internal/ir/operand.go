package ir

// Ref is the SSA value number of a prior micro-op within the same block:
// an index into BasicBlock.Ops.
type Ref int

// Operand is a micro-op argument: either a pure constant value or a
// reference to a prior micro-op's result.
type Operand struct {
	IsConst  bool
	ConstVal uint64 // bit pattern, reinterpreted per the argument's expected Type
	Ref      Ref
}

// Const builds a constant operand carrying val's bit pattern.
func Const(val uint64) Operand {
	return Operand{IsConst: true, ConstVal: val}
}

// Use builds an operand referencing a prior micro-op's result.
func Use(ref Ref) Operand {
	return Operand{Ref: ref}
}
