package ir

import "github.com/vexdbt/armjit/internal/loc"

// Builder accumulates micro-ops for one basic block. The translator owns
// exactly one Builder per block it is constructing.
type Builder struct {
	block *BasicBlock
	guard *Operand
}

// NewBuilder starts a block at entry.
func NewBuilder(entry loc.Descriptor) *Builder {
	return &Builder{block: &BasicBlock{Entry: entry, GuestStartPC: entry.PC}}
}

// Block returns the block under construction. Valid to call at any point;
// the translator calls it once after SetTerm to finish the block.
func (b *Builder) Block() *BasicBlock { return b.block }

// SetGuard opens a predicated region: every void micro-op emitted from now
// until the matching ClearGuard only takes effect at run time when cond
// evaluates true. This is how a non-branch instruction's per-instruction
// conditional-execution guard (the block-level If terminal a branch uses
// has no equivalent for an instruction that doesn't end the block) gets
// lowered — the instruction's reads and pure computation still run
// unconditionally, exactly as on real hardware, and only its state writes
// are suppressed.
func (b *Builder) SetGuard(cond Operand) { b.guard = &cond }

// ClearGuard closes the predicated region opened by SetGuard.
func (b *Builder) ClearGuard() { b.guard = nil }

func (b *Builder) attachGuard(m *MicroOp, typ Type) {
	if typ == TypeVoid && b.guard != nil {
		m.HasGuard = true
		m.Guard = *b.guard
	}
}

// emit appends a micro-op and returns its SSA reference.
func (b *Builder) emit(op Opcode, typ Type, imm uint64, args ...Operand) Operand {
	ref := Ref(len(b.block.Ops))
	m := &MicroOp{Op: op, Imm: imm, Args: args, Type: typ}
	b.attachGuard(m, typ)
	b.block.Ops = append(b.block.Ops, m)
	return Use(ref)
}

// emitScratch is emit, but marks argIdx as a use-scratch flag input: read
// by this op, and also about to be overwritten elsewhere in the same
// instruction's lowering. See MicroOp.FlagUseScratch.
func (b *Builder) emitScratch(op Opcode, typ Type, imm uint64, scratchArg int, args ...Operand) Operand {
	ref := Ref(len(b.block.Ops))
	scratch := make([]bool, len(args))
	scratch[scratchArg] = true
	m := &MicroOp{Op: op, Imm: imm, Args: args, Type: typ, FlagUseScratch: scratch}
	b.attachGuard(m, typ)
	b.block.Ops = append(b.block.Ops, m)
	return Use(ref)
}

func (b *Builder) GetRegister(n uint8) Operand { return b.emit(OpGetRegister, TypeI32, uint64(n)) }
func (b *Builder) SetRegister(n uint8, v Operand) {
	b.emit(OpSetRegister, TypeVoid, uint64(n), v)
}
func (b *Builder) GetExtReg(n uint8) Operand { return b.emit(OpGetExtReg, TypeI32, uint64(n)) }
func (b *Builder) SetExtReg(n uint8, v Operand) {
	b.emit(OpSetExtReg, TypeVoid, uint64(n), v)
}

// GetFPSCR/SetFPSCR read and write the packed 32-bit FP status/control
// register (VMRS/VMSR's general-register form). The single-precision
// extension register values themselves never need unpacking into Go
// float32 here — VMOV just moves the raw 32-bit bit pattern between a core
// register and an ExtReg slot — only VMRS/VMSR deal with FPSCR as a value.
func (b *Builder) GetFPSCR() Operand  { return b.emit(OpGetFPSCR, TypeI32, 0) }
func (b *Builder) SetFPSCR(v Operand) { b.emit(OpSetFPSCR, TypeVoid, 0, v) }

func (b *Builder) GetNFlag() Operand { return b.emit(OpGetNFlag, TypeI1, 0) }
func (b *Builder) GetZFlag() Operand { return b.emit(OpGetZFlag, TypeI1, 0) }
func (b *Builder) GetCFlag() Operand { return b.emit(OpGetCFlag, TypeI1, 0) }
func (b *Builder) GetVFlag() Operand { return b.emit(OpGetVFlag, TypeI1, 0) }
func (b *Builder) GetQFlag() Operand { return b.emit(OpGetQFlag, TypeI1, 0) }
func (b *Builder) GetGE() Operand    { return b.emit(OpGetGE, TypeI8, 0) }

func (b *Builder) SetNFlag(v Operand) { b.emit(OpSetNFlag, TypeVoid, 0, v) }
func (b *Builder) SetZFlag(v Operand) { b.emit(OpSetZFlag, TypeVoid, 0, v) }
func (b *Builder) SetCFlag(v Operand) { b.emit(OpSetCFlag, TypeVoid, 0, v) }
func (b *Builder) SetVFlag(v Operand) { b.emit(OpSetVFlag, TypeVoid, 0, v) }
func (b *Builder) SetQFlag(v Operand) { b.emit(OpSetQFlag, TypeVoid, 0, v) }
func (b *Builder) SetGE(v Operand)    { b.emit(OpSetGE, TypeVoid, 0, v) }

// SetCFlagUseScratch sets C from v, where v was itself computed from the
// pre-update C flag (e.g. the carry-out of an ADC whose carry-in was the
// old C). Marking the dependency as use-scratch here, rather than at the
// read site, is what the design notes mean by "declared in the IR schema,
// not in every emitter": the write op itself records that its value
// operand transitively consumed the flag it is about to clobber.
func (b *Builder) SetCFlagUseScratch(v Operand) {
	b.emitScratch(OpSetCFlag, TypeVoid, 0, 0, v)
}

// NotBool, AndBool, OrBool and EorBool are the TypeI1-tagged twins of Not,
// And, Or and Eor: the opcodes are shared (OpNot/OpAnd/OpOr/OpEor carry no
// per-call type), but flag-valued operands must be tagged TypeI1 so the
// emitter masks results to bit 0 instead of treating them as 32-bit
// arithmetic — NOT of a 1-valued flag must come out 0, not 0xFFFFFFFE.
func (b *Builder) NotBool(a Operand) Operand    { return b.emit(OpNot, TypeI1, 0, a) }
func (b *Builder) AndBool(a, c Operand) Operand { return b.emit(OpAnd, TypeI1, 0, a, c) }
func (b *Builder) OrBool(a, c Operand) Operand  { return b.emit(OpOr, TypeI1, 0, a, c) }
func (b *Builder) EorBool(a, c Operand) Operand { return b.emit(OpEor, TypeI1, 0, a, c) }

func (b *Builder) Add(a, c Operand) Operand     { return b.emit(OpAdd, TypeI32, 0, a, c) }
func (b *Builder) Sub(a, c Operand) Operand     { return b.emit(OpSub, TypeI32, 0, a, c) }
func (b *Builder) And(a, c Operand) Operand     { return b.emit(OpAnd, TypeI32, 0, a, c) }
func (b *Builder) Or(a, c Operand) Operand      { return b.emit(OpOr, TypeI32, 0, a, c) }
func (b *Builder) Eor(a, c Operand) Operand     { return b.emit(OpEor, TypeI32, 0, a, c) }
func (b *Builder) Not(a Operand) Operand        { return b.emit(OpNot, TypeI32, 0, a) }

// AddWithCarry computes a + c + carryIn, where carryIn is itself a use of
// the pre-instruction carry flag: the instruction that both reads and
// writes C (ADC) must route that read through this op's carryIn argument
// and its result's carry-out through SetCFlagUseScratch, not a plain
// SetCFlag, so the allocator never believes the old C is dead too early.
func (b *Builder) AddWithCarry(a, c, carryIn Operand) Operand {
	return b.emit(OpAddWithCarry, TypeI32, 0, a, c, carryIn)
}
func (b *Builder) SubWithCarry(a, c, carryIn Operand) Operand {
	return b.emit(OpSubWithCarry, TypeI32, 0, a, c, carryIn)
}
func (b *Builder) CarryFromAdd(a, c, carryIn Operand) Operand {
	return b.emit(OpCarryFromAdd, TypeI1, 0, a, c, carryIn)
}
func (b *Builder) CarryFromSub(a, c, carryIn Operand) Operand {
	return b.emit(OpCarryFromSub, TypeI1, 0, a, c, carryIn)
}
func (b *Builder) OverflowFromAdd(a, c, carryIn Operand) Operand {
	return b.emit(OpOverflowFromAdd, TypeI1, 0, a, c, carryIn)
}
func (b *Builder) OverflowFromSub(a, c, carryIn Operand) Operand {
	return b.emit(OpOverflowFromSub, TypeI1, 0, a, c, carryIn)
}

func (b *Builder) LogicalShiftLeft(v, amount, carryIn Operand) Operand {
	return b.emit(OpLogicalShiftLeft, TypeI32, 0, v, amount, carryIn)
}
func (b *Builder) LogicalShiftRight(v, amount, carryIn Operand) Operand {
	return b.emit(OpLogicalShiftRight, TypeI32, 0, v, amount, carryIn)
}
func (b *Builder) ArithShiftRight(v, amount, carryIn Operand) Operand {
	return b.emit(OpArithShiftRight, TypeI32, 0, v, amount, carryIn)
}
func (b *Builder) RotateRight(v, amount, carryIn Operand) Operand {
	return b.emit(OpRotateRight, TypeI32, 0, v, amount, carryIn)
}
func (b *Builder) RotateRightExtended(v, carryIn Operand) Operand {
	return b.emit(OpRotateRightExtended, TypeI32, 0, v, carryIn)
}
func (b *Builder) ShiftCarryOut(shiftOp Opcode, v, amount, carryIn Operand) Operand {
	return b.emit(OpShiftCarryOut, TypeI1, uint64(shiftOp), v, amount, carryIn)
}

func (b *Builder) SignBit(v Operand) Operand { return b.emit(OpSignBit, TypeI1, 0, v) }
func (b *Builder) IsZero(v Operand) Operand  { return b.emit(OpIsZero, TypeI1, 0, v) }

func (b *Builder) SHSAX(rn, rm Operand) Operand { return b.emit(OpSHSAX, TypeI32, 0, rn, rm) }
func (b *Builder) UASX(rn, rm Operand) Operand  { return b.emit(OpUASX, TypeI32, 0, rn, rm) }
func (b *Builder) UASXGE(rn, rm Operand) Operand {
	return b.emit(OpUASXGE, TypeI8, 0, rn, rm)
}
func (b *Builder) SMUAD(rn, rm Operand) Operand { return b.emit(OpSMUAD, TypeI32, 0, rn, rm) }
func (b *Builder) SMUADQ(rn, rm Operand) Operand {
	return b.emit(OpSMUADQ, TypeI1, 0, rn, rm)
}

func (b *Builder) ReadMemory32(addr Operand) Operand {
	return b.emit(OpReadMemory32, TypeI32, 0, addr)
}
func (b *Builder) WriteMemory32(addr, v Operand) {
	b.emit(OpWriteMemory32, TypeVoid, 0, addr, v)
}
func (b *Builder) IsReadOnlyMemory(addr Operand) Operand {
	return b.emit(OpIsReadOnlyMemory, TypeI1, 0, addr)
}

// ExceptionRaised records a guest exception at the current PC. kind is an
// opaque value the callbacks layer interprets (breakpoint, undefined,
// unpredictable).
func (b *Builder) ExceptionRaised(kind uint8) {
	b.emit(OpExceptionRaised, TypeVoid, uint64(kind))
}

// CallSupervisor records a guest SVC with its 24-bit immediate.
func (b *Builder) CallSupervisor(imm32 Operand) {
	b.emit(OpCallSupervisor, TypeVoid, 0, imm32)
}

// PushRSB records a call-site return target for the RSB.
func (b *Builder) PushRSB(target loc.Descriptor) {
	b.emit(OpPushRSB, TypeVoid, target.Hash())
}

// BranchWritePC sets R15 to the branch target value, the canonical way
// every taken-branch instruction updates the guest PC before the block
// terminates.
func (b *Builder) BranchWritePC(target Operand) {
	b.SetRegister(15, target)
}

// SetTerm finalizes the block's terminal.
func (b *Builder) SetTerm(t Terminal) {
	b.block.Term = t
}

// AddCycles accounts for cycles this instruction consumes.
func (b *Builder) AddCycles(n uint64) {
	b.block.Cycles += n
}
