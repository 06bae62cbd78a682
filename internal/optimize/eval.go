package optimize

import (
	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/ir"
)

// shiftTypeForOp recovers the armisa.ShiftType a shift micro-op's opcode
// denotes — needed both to evaluate the shift itself and, for
// OpShiftCarryOut, to evaluate the shift its Imm names.
func shiftTypeForOp(op ir.Opcode) (armisa.ShiftType, bool) {
	switch op {
	case ir.OpLogicalShiftLeft:
		return armisa.ShiftLSL, true
	case ir.OpLogicalShiftRight:
		return armisa.ShiftLSR, true
	case ir.OpArithShiftRight:
		return armisa.ShiftASR, true
	case ir.OpRotateRight:
		return armisa.ShiftROR, true
	}
	return 0, false
}

// evalConst evaluates a pure opcode over fully-constant arguments. ok is
// false for opcodes this implementation never folds at translate time
// (register/memory/CPSR reads, and the zero/sign-extend/truncate family no
// translator handler currently emits) — constant propagation is an
// optimization, not a correctness requirement, so leaving those untouched
// is always safe.
func evalConst(op ir.Opcode, imm uint64, args []uint64) (uint64, bool) {
	b32 := func(i int) uint32 { return uint32(args[i]) }
	bBool := func(i int) bool { return args[i]&1 != 0 }

	switch op {
	case ir.OpAdd:
		return uint64(b32(0) + b32(1)), true
	case ir.OpSub:
		return uint64(b32(0) - b32(1)), true
	case ir.OpMul:
		return uint64(b32(0) * b32(1)), true
	case ir.OpAnd:
		return args[0] & args[1], true
	case ir.OpOr:
		return args[0] | args[1], true
	case ir.OpEor:
		return args[0] ^ args[1], true
	case ir.OpNot:
		return ^args[0], true
	case ir.OpNeg:
		return uint64(-b32(0)), true

	case ir.OpAddWithCarry:
		carry := uint32(0)
		if bBool(2) {
			carry = 1
		}
		return uint64(b32(0) + b32(1) + carry), true
	case ir.OpSubWithCarry:
		carry := int64(0)
		if bBool(2) {
			carry = 1
		}
		wide := int64(b32(0)) - int64(b32(1)) - 1 + carry
		return uint64(uint32(wide)), true
	case ir.OpCarryFromAdd:
		carry := uint64(0)
		if bBool(2) {
			carry = 1
		}
		wide := uint64(b32(0)) + uint64(b32(1)) + carry
		return boolU64(wide>>32 != 0), true
	case ir.OpCarryFromSub:
		carry := int64(0)
		if bBool(2) {
			carry = 1
		}
		wide := int64(b32(0)) - int64(b32(1)) - 1 + carry
		return boolU64(wide >= 0), true
	case ir.OpOverflowFromAdd:
		carry := int64(0)
		if bBool(2) {
			carry = 1
		}
		wide := int64(int32(b32(0))) + int64(int32(b32(1))) + carry
		return boolU64(wide > 0x7FFFFFFF || wide < -0x80000000), true
	case ir.OpOverflowFromSub:
		carry := int64(0)
		if bBool(2) {
			carry = 1
		}
		wide := int64(int32(b32(0))) - int64(int32(b32(1))) - 1 + carry
		return boolU64(wide > 0x7FFFFFFF || wide < -0x80000000), true

	case ir.OpLogicalShiftLeft, ir.OpLogicalShiftRight, ir.OpArithShiftRight, ir.OpRotateRight:
		t, _ := shiftTypeForOp(op)
		result, _ := armisa.Shift(b32(0), t, uint8(b32(1)), bBool(2))
		return uint64(result), true
	case ir.OpRotateRightExtended:
		result, _ := armisa.Shift(b32(0), armisa.ShiftROR, 0, bBool(1))
		return uint64(result), true
	case ir.OpShiftCarryOut:
		t, ok := shiftTypeForOp(ir.Opcode(imm))
		if !ok {
			return 0, false
		}
		_, carryOut := armisa.Shift(b32(0), t, uint8(b32(1)), bBool(2))
		return boolU64(carryOut), true

	case ir.OpSignBit:
		return boolU64(b32(0)&(1<<31) != 0), true
	case ir.OpIsZero:
		return boolU64(b32(0) == 0), true

	case ir.OpSHSAX:
		return uint64(armisa.SHSAX(b32(0), b32(1))), true
	case ir.OpUASX:
		result, _ := armisa.UASX(b32(0), b32(1))
		return uint64(result), true
	case ir.OpUASXGE:
		_, ge := armisa.UASX(b32(0), b32(1))
		return uint64(ge), true
	case ir.OpSMUAD:
		result, _ := armisa.SMUAD(b32(0), b32(1))
		return uint64(result), true
	case ir.OpSMUADQ:
		_, q := armisa.SMUAD(b32(0), b32(1))
		return boolU64(q), true
	}
	return 0, false
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
