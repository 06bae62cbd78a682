// Package ir implements the typed SSA-form intermediate representation
// that the translator (C5) produces and the optimizer (C6) rewrites: basic
// blocks of micro-ops ending in a tagged terminal.
package ir

// Type tags the result of a micro-op.
type Type uint8

const (
	TypeVoid Type = iota
	TypeI1
	TypeI8
	TypeI16
	TypeI32
	TypeI64
	TypeVec128
	TypeF32
	TypeF64
)

// Opcode names a micro-op's operation.
type Opcode uint16

const (
	OpInvalid Opcode = iota

	// Guest register access. Imm holds the register index.
	OpGetRegister
	OpSetRegister
	OpGetExtReg
	OpSetExtReg

	// Split status-register field access.
	OpGetNFlag
	OpGetZFlag
	OpGetCFlag
	OpGetVFlag
	OpGetQFlag
	OpSetNFlag
	OpSetZFlag
	OpSetCFlag
	OpSetVFlag
	OpSetQFlag
	OpGetGE
	OpSetGE
	OpGetITState
	OpSetITState
	OpGetCPSR
	OpSetCPSR
	OpGetFPSCR
	OpSetFPSCR

	// Pure arithmetic / logic, evaluated over typed operands.
	OpConst // folded immediate; normally operands carry constants directly,
	// this opcode exists so the constant-propagation pass has a uniform
	// "replace with constant" target it can insert.
	OpAdd
	OpSub
	OpAnd
	OpOr
	OpEor
	OpNot
	OpNeg
	OpMul
	OpAddWithCarry    // a + b + carry-in, used by ADC
	OpSubWithCarry    // a - b - 1 + carry-in, used by SBC
	OpCarryFromAdd    // carry-out of an OpAdd/OpAddWithCarry pair (same args)
	OpCarryFromSub    // carry-out (borrow) of an OpSub/OpSubWithCarry pair
	OpOverflowFromAdd // signed overflow of an add
	OpOverflowFromSub // signed overflow of a subtract
	OpLogicalShiftLeft
	OpLogicalShiftRight
	OpArithShiftRight
	OpRotateRight
	OpRotateRightExtended
	OpShiftCarryOut // carry-out companion of the four shift ops above
	OpSignBit       // bit 31 of an I32 operand, as I1
	OpIsZero        // operand == 0, as I1

	// ARMv6 media (SIMD-in-GPR) instructions, evaluated as single opaque
	// pure ops: the spec specifies per-instruction semantics, not a
	// required micro-op decomposition below instruction granularity, and
	// these are exactly the shape the constant-propagation pass expects
	// (pure, foldable over constant inputs).
	OpSHSAX // result only; SHSAX sets no GE bits, so it has no GE companion op
	OpUASX
	OpUASXGE
	OpSMUAD
	OpSMUADQ

	OpZeroExtend
	OpSignExtend
	OpTruncate

	// Memory access, routed through the consumer's callbacks.
	OpReadMemory8
	OpReadMemory16
	OpReadMemory32
	OpReadMemory64
	OpWriteMemory8
	OpWriteMemory16
	OpWriteMemory32
	OpWriteMemory64
	OpIsReadOnlyMemory // pure query: guards the constant-memory-read pass

	// Control / exception side effects.
	OpExceptionRaised
	OpCallSupervisor
	OpPushRSB
)

// pureOpcodes is the set of opcodes with no observable side effect and a
// deterministic result given their arguments — eligible for dead-code
// elimination and constant propagation.
var pureOpcodes = map[Opcode]bool{
	OpGetRegister: true, OpGetExtReg: true,
	OpGetNFlag: true, OpGetZFlag: true, OpGetCFlag: true, OpGetVFlag: true, OpGetQFlag: true,
	OpGetGE: true, OpGetITState: true, OpGetCPSR: true, OpGetFPSCR: true,
	OpConst: true, OpAdd: true, OpSub: true, OpAnd: true, OpOr: true, OpEor: true,
	OpNot: true, OpNeg: true, OpMul: true, OpAddWithCarry: true, OpSubWithCarry: true,
	OpCarryFromAdd: true, OpCarryFromSub: true, OpOverflowFromAdd: true, OpOverflowFromSub: true,
	OpLogicalShiftLeft: true, OpLogicalShiftRight: true, OpArithShiftRight: true,
	OpRotateRight: true, OpRotateRightExtended: true, OpShiftCarryOut: true,
	OpSignBit: true, OpIsZero: true,
	OpSHSAX: true, OpUASX: true, OpUASXGE: true, OpSMUAD: true, OpSMUADQ: true,
	OpZeroExtend: true, OpSignExtend: true, OpTruncate: true,
	OpIsReadOnlyMemory: true,
	// OpReadMemory8/16/32/64 are deliberately absent: a load may hit MMIO,
	// so even an unused result must still reach the consumer's callback.
}

// IsPure reports whether op has no side effect, per the pass 2 / pass 5
// dead-code-elimination contract: "remove micro-ops whose result has no
// uses and which are pure". OpGetRegister etc. are "pure" even though they
// read mutable state, because within a single basic block no intervening
// write can be observed between two reads absent an explicit SetRegister
// — the optimizer still only removes them when genuinely unused.
func IsPure(op Opcode) bool {
	return pureOpcodes[op]
}
