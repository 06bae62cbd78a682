package emit

import (
	"fmt"

	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/ir"
	"github.com/vexdbt/armjit/internal/loc"
)

// maskToType mirrors internal/optimize's translate-time masking rule at
// runtime: a TypeI1 result must come out as exactly 0 or 1 so the generic
// bitwise opcodes (shared between 32-bit arithmetic and boolean flag
// logic) produce correct logical semantics — NOT of a 1-valued flag must
// be 0, not the 32-bit pattern 0xFFFFFFFE.
func maskToType(v uint64, t ir.Type) uint64 {
	switch t {
	case ir.TypeI1:
		return v & 1
	case ir.TypeI8:
		return v & 0xFF
	case ir.TypeI16:
		return v & 0xFFFF
	case ir.TypeI32:
		return v & 0xFFFFFFFF
	default:
		return v
	}
}

// compileOp builds the closure that evaluates one micro-op at block-run
// time. linker is only ever used by the OpPushRSB case.
func compileOp(op *ir.MicroOp, linker Linker) opFunc {
	typ := op.Type
	imm := op.Imm
	args := op.Args

	store := func(v uint64) opFunc {
		masked := maskToType(v, typ)
		return func(env *execEnv, idx int) { env.values[idx] = masked }
	}

	switch op.Op {
	case ir.OpGetRegister:
		n := uint8(imm)
		return func(env *execEnv, idx int) { env.values[idx] = uint64(env.st.Regs[n]) }
	case ir.OpSetRegister:
		n := uint8(imm)
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.Regs[n] = env.arg32(a0) }
	case ir.OpGetExtReg:
		n := uint8(imm)
		return func(env *execEnv, idx int) { env.values[idx] = uint64(env.st.ExtRegs[n]) }
	case ir.OpSetExtReg:
		n := uint8(imm)
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.ExtRegs[n] = env.arg32(a0) }
	case ir.OpGetFPSCR:
		return func(env *execEnv, idx int) { env.values[idx] = uint64(env.st.FPSCR()) }
	case ir.OpSetFPSCR:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.SetFPSCR(env.arg32(a0)) }

	case ir.OpGetNFlag:
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.st.N) }
	case ir.OpGetZFlag:
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.st.Z) }
	case ir.OpGetCFlag:
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.st.C) }
	case ir.OpGetVFlag:
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.st.V) }
	case ir.OpGetQFlag:
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.st.Q) }
	case ir.OpGetGE:
		return func(env *execEnv, idx int) { env.values[idx] = uint64(env.st.GE) }
	case ir.OpSetNFlag:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.N = env.argBool(a0) }
	case ir.OpSetZFlag:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.Z = env.argBool(a0) }
	case ir.OpSetCFlag:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.C = env.argBool(a0) }
	case ir.OpSetVFlag:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.V = env.argBool(a0) }
	case ir.OpSetQFlag:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.Q = env.argBool(a0) }
	case ir.OpSetGE:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.st.GE = uint8(env.arg(a0)) }

	case ir.OpAdd:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(uint64(env.arg32(a0)+env.arg32(a1)), typ)
		}
	case ir.OpSub:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(uint64(env.arg32(a0)-env.arg32(a1)), typ)
		}
	case ir.OpMul:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(uint64(env.arg32(a0)*env.arg32(a1)), typ)
		}
	case ir.OpAnd:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(env.arg(a0)&env.arg(a1), typ)
		}
	case ir.OpOr:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(env.arg(a0)|env.arg(a1), typ)
		}
	case ir.OpEor:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(env.arg(a0)^env.arg(a1), typ)
		}
	case ir.OpNot:
		a0 := args[0]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(^env.arg(a0), typ)
		}
	case ir.OpNeg:
		a0 := args[0]
		return func(env *execEnv, idx int) {
			env.values[idx] = maskToType(uint64(-env.arg32(a0)), typ)
		}

	case ir.OpAddWithCarry:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := uint32(0)
			if env.argBool(a2) {
				carry = 1
			}
			env.values[idx] = maskToType(uint64(env.arg32(a0)+env.arg32(a1)+carry), typ)
		}
	case ir.OpSubWithCarry:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := int64(0)
			if env.argBool(a2) {
				carry = 1
			}
			wide := int64(env.arg32(a0)) - int64(env.arg32(a1)) - 1 + carry
			env.values[idx] = maskToType(uint64(uint32(wide)), typ)
		}
	case ir.OpCarryFromAdd:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := uint64(0)
			if env.argBool(a2) {
				carry = 1
			}
			wide := uint64(env.arg32(a0)) + uint64(env.arg32(a1)) + carry
			env.values[idx] = boolU64(wide>>32 != 0)
		}
	case ir.OpCarryFromSub:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := int64(0)
			if env.argBool(a2) {
				carry = 1
			}
			wide := int64(env.arg32(a0)) - int64(env.arg32(a1)) - 1 + carry
			env.values[idx] = boolU64(wide >= 0)
		}
	case ir.OpOverflowFromAdd:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := int64(0)
			if env.argBool(a2) {
				carry = 1
			}
			wide := int64(int32(env.arg32(a0))) + int64(int32(env.arg32(a1))) + carry
			env.values[idx] = boolU64(wide > 0x7FFFFFFF || wide < -0x80000000)
		}
	case ir.OpOverflowFromSub:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(env *execEnv, idx int) {
			carry := int64(0)
			if env.argBool(a2) {
				carry = 1
			}
			wide := int64(int32(env.arg32(a0))) - int64(int32(env.arg32(a1))) - 1 + carry
			env.values[idx] = boolU64(wide > 0x7FFFFFFF || wide < -0x80000000)
		}

	case ir.OpLogicalShiftLeft, ir.OpLogicalShiftRight, ir.OpArithShiftRight, ir.OpRotateRight:
		a0, a1, a2 := args[0], args[1], args[2]
		t, _ := shiftTypeForOp(op.Op)
		return func(env *execEnv, idx int) {
			result, _ := armisa.Shift(env.arg32(a0), t, uint8(env.arg32(a1)), env.argBool(a2))
			env.values[idx] = maskToType(uint64(result), typ)
		}
	case ir.OpRotateRightExtended:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			result, _ := armisa.Shift(env.arg32(a0), armisa.ShiftROR, 0, env.argBool(a1))
			env.values[idx] = maskToType(uint64(result), typ)
		}
	case ir.OpShiftCarryOut:
		a0, a1, a2 := args[0], args[1], args[2]
		t, _ := shiftTypeForOp(ir.Opcode(imm))
		return func(env *execEnv, idx int) {
			_, carryOut := armisa.Shift(env.arg32(a0), t, uint8(env.arg32(a1)), env.argBool(a2))
			env.values[idx] = boolU64(carryOut)
		}

	case ir.OpSignBit:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.arg32(a0)&(1<<31) != 0) }
	case ir.OpIsZero:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.arg32(a0) == 0) }

	case ir.OpSHSAX:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			env.values[idx] = uint64(armisa.SHSAX(env.arg32(a0), env.arg32(a1)))
		}
	case ir.OpUASX:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			result, _ := armisa.UASX(env.arg32(a0), env.arg32(a1))
			env.values[idx] = uint64(result)
		}
	case ir.OpUASXGE:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			_, ge := armisa.UASX(env.arg32(a0), env.arg32(a1))
			env.values[idx] = uint64(ge)
		}
	case ir.OpSMUAD:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			result, _ := armisa.SMUAD(env.arg32(a0), env.arg32(a1))
			env.values[idx] = uint64(result)
		}
	case ir.OpSMUADQ:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) {
			_, q := armisa.SMUAD(env.arg32(a0), env.arg32(a1))
			env.values[idx] = boolU64(q)
		}

	case ir.OpReadMemory32:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.values[idx] = uint64(env.cb.ReadMemory32(env.arg32(a0))) }
	case ir.OpWriteMemory32:
		a0, a1 := args[0], args[1]
		return func(env *execEnv, idx int) { env.cb.WriteMemory32(env.arg32(a0), env.arg32(a1)) }
	case ir.OpIsReadOnlyMemory:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.values[idx] = boolU64(env.cb.IsReadOnlyMemory(env.arg32(a0))) }

	case ir.OpExceptionRaised:
		kind := uint8(imm)
		return func(env *execEnv, idx int) { env.cb.ExceptionRaised(env.st.Regs[15], kind) }
	case ir.OpCallSupervisor:
		a0 := args[0]
		return func(env *execEnv, idx int) { env.cb.CallSupervisor(env.st.Regs[15], env.arg32(a0)) }
	case ir.OpPushRSB:
		hash := imm
		target := loc.DescriptorFromHash(hash)
		return func(env *execEnv, idx int) {
			env.st.PushRSB(hash, Box(linker.Resolve(target)))
		}

	case ir.OpConst:
		return store(imm)

	default:
		return func(env *execEnv, idx int) {
			panic(fmt.Sprintf("emit: unhandled opcode %v", op.Op))
		}
	}
}

func boolU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

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
