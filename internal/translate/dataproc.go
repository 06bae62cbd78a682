package translate

import (
	"github.com/vexdbt/armjit/internal/armisa"
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
)

// dpForm names which of the three ARM data-processing shifter-operand
// encodings a pattern uses.
type dpForm int

const (
	dpFormImmediate dpForm = iota // rotate + imm8
	dpFormImmShift                // Rm, shift-type, immediate shift amount
	dpFormRegShift                // Rm, shift-type, Rs (register shift amount)
)

// dpSpec describes one of the sixteen ARM data-processing ALU operations.
type dpSpec struct {
	Mnemonic   string
	OpcodeBits string // 4-char '0'/'1' string, bits[24:21]
	WritesRd   bool   // false for TST/TEQ/CMP/CMN
	Logical    bool   // true: S-bit sets C from shifter carry, V unaffected
}

var dpSpecs = []dpSpec{
	{"and", "0000", true, true},
	{"eor", "0001", true, true},
	{"sub", "0010", true, false},
	{"rsb", "0011", true, false},
	{"add", "0100", true, false},
	{"adc", "0101", true, false},
	{"sbc", "0110", true, false},
	{"rsc", "0111", true, false},
	{"tst", "1000", false, true},
	{"teq", "1001", false, true},
	{"cmp", "1010", false, false},
	{"cmn", "1011", false, false},
	{"orr", "1100", true, true},
	{"mov", "1101", true, true},
	{"bic", "1110", true, true},
	{"mvn", "1111", true, true},
}

func registerDataProcessing(t *decode.Table[handler]) {
	for _, spec := range dpSpecs {
		spec := spec
		mustAdd(t, spec.Mnemonic+".i", "cccc001"+spec.OpcodeBits+"snnnnddddrrrrvvvvvvvv",
			makeDPHandler(spec, dpFormImmediate))
		mustAdd(t, spec.Mnemonic+".s", "cccc000"+spec.OpcodeBits+"snnnnddddvvvvvrr0mmmm",
			makeDPHandler(spec, dpFormImmShift))
		mustAdd(t, spec.Mnemonic+".r", "cccc000"+spec.OpcodeBits+"snnnnddddqqqq0tt1mmmm",
			makeDPHandler(spec, dpFormRegShift))
	}
}

func mustAdd(t *decode.Table[handler], mnemonic, pattern string, h handler) {
	if err := t.Add(mnemonic, pattern, h); err != nil {
		panic(err)
	}
}

// shifterOperand evaluates the instruction's second operand and its
// shifter carry-out, per the encoding form.
func shifterOperand(b *ir.Builder, form dpForm, f decode.Extracted, carryIn ir.Operand) (value, shiftCarry ir.Operand) {
	switch form {
	case dpFormImmediate:
		imm8 := f.Get('v')
		rotate := f.Get('r') * 2
		rotated := rotateRightImm(imm8, rotate)
		value = ir.Const(uint64(rotated))
		if rotate == 0 {
			shiftCarry = carryIn
		} else {
			shiftCarry = ir.Const(boolToU64(rotated&(1<<31) != 0))
		}
		return value, shiftCarry
	case dpFormImmShift:
		rm := b.GetRegister(uint8(f.Get('m')))
		shiftType := armisa.ShiftType(f.Get('r'))
		amount := uint8(f.Get('v'))
		if amount == 0 && shiftType != armisa.ShiftLSL && shiftType != armisa.ShiftROR {
			amount = 32 // LSR/ASR #0 encodes #32
		}
		amountOp := ir.Const(uint64(amount))
		value = emitShift(b, shiftType, rm, amountOp, carryIn)
		shiftCarry = b.ShiftCarryOut(shiftOpFor(shiftType), rm, amountOp, carryIn)
		return value, shiftCarry
	default: // dpFormRegShift
		rm := b.GetRegister(uint8(f.Get('m')))
		rs := b.GetRegister(uint8(f.Get('q')))
		amount := b.And(rs, ir.Const(0xFF))
		shiftType := armisa.ShiftType(f.Get('t'))
		value = emitShift(b, shiftType, rm, amount, carryIn)
		shiftCarry = b.ShiftCarryOut(shiftOpFor(shiftType), rm, amount, carryIn)
		return value, shiftCarry
	}
}

func emitShift(b *ir.Builder, t armisa.ShiftType, v, amount, carryIn ir.Operand) ir.Operand {
	switch t {
	case armisa.ShiftLSL:
		return b.LogicalShiftLeft(v, amount, carryIn)
	case armisa.ShiftLSR:
		return b.LogicalShiftRight(v, amount, carryIn)
	case armisa.ShiftASR:
		return b.ArithShiftRight(v, amount, carryIn)
	default:
		return b.RotateRight(v, amount, carryIn)
	}
}

func shiftOpFor(t armisa.ShiftType) ir.Opcode {
	switch t {
	case armisa.ShiftLSL:
		return ir.OpLogicalShiftLeft
	case armisa.ShiftLSR:
		return ir.OpLogicalShiftRight
	case armisa.ShiftASR:
		return ir.OpArithShiftRight
	default:
		return ir.OpRotateRight
	}
}

// dpResult is what one ALU evaluation produces: the value (valid unless
// the mnemonic is a flags-only compare that no one writes back), and, for
// arithmetic ops, the carry/overflow a flag-setting form latches.
type dpResult struct {
	Value          ir.Operand
	Carry, Overflow ir.Operand
}

func evalALU(b *ir.Builder, mnemonic string, rn, op2, carryIn ir.Operand) dpResult {
	switch mnemonic {
	case "and", "tst":
		return dpResult{Value: b.And(rn, op2)}
	case "eor", "teq":
		return dpResult{Value: b.Eor(rn, op2)}
	case "orr":
		return dpResult{Value: b.Or(rn, op2)}
	case "bic":
		return dpResult{Value: b.And(rn, b.Not(op2))}
	case "mov":
		return dpResult{Value: op2}
	case "mvn":
		return dpResult{Value: b.Not(op2)}
	case "add", "cmn":
		return dpResult{
			Value:    b.Add(rn, op2),
			Carry:    b.CarryFromAdd(rn, op2, ir.Const(0)),
			Overflow: b.OverflowFromAdd(rn, op2, ir.Const(0)),
		}
	case "adc":
		return dpResult{
			Value:    b.AddWithCarry(rn, op2, carryIn),
			Carry:    b.CarryFromAdd(rn, op2, carryIn),
			Overflow: b.OverflowFromAdd(rn, op2, carryIn),
		}
	case "sub", "cmp":
		return dpResult{
			Value:    b.Sub(rn, op2),
			Carry:    b.CarryFromSub(rn, op2, ir.Const(1)),
			Overflow: b.OverflowFromSub(rn, op2, ir.Const(1)),
		}
	case "rsb":
		return dpResult{
			Value:    b.Sub(op2, rn),
			Carry:    b.CarryFromSub(op2, rn, ir.Const(1)),
			Overflow: b.OverflowFromSub(op2, rn, ir.Const(1)),
		}
	case "sbc":
		return dpResult{
			Value:    b.SubWithCarry(rn, op2, carryIn),
			Carry:    b.CarryFromSub(rn, op2, carryIn),
			Overflow: b.OverflowFromSub(rn, op2, carryIn),
		}
	case "rsc":
		return dpResult{
			Value:    b.SubWithCarry(op2, rn, carryIn),
			Carry:    b.CarryFromSub(op2, rn, carryIn),
			Overflow: b.OverflowFromSub(op2, rn, carryIn),
		}
	}
	return dpResult{}
}

func makeDPHandler(spec dpSpec, form dpForm) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		rn := b.GetRegister(uint8(f.Get('n')))
		carryIn := b.GetCFlag()

		op2, shiftCarry := shifterOperand(b, form, f, carryIn)
		res := evalALU(b, spec.Mnemonic, rn, op2, carryIn)

		rd := uint8(f.Get('d'))
		if spec.WritesRd {
			b.SetRegister(rd, res.Value)
		}

		if f.Get('s') != 0 {
			b.SetNFlag(b.SignBit(res.Value))
			b.SetZFlag(b.IsZero(res.Value))
			if spec.Logical {
				b.SetCFlagUseScratch(shiftCarry)
			} else {
				b.SetCFlagUseScratch(res.Carry)
				b.SetVFlag(res.Overflow)
			}
		}

		if rd == 15 && spec.WritesRd {
			return stop(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
		}
		return cont()
	}
}

func rotateRightImm(val, rotate uint32) uint32 {
	rotate &= 31
	if rotate == 0 {
		return val
	}
	return (val >> rotate) | (val << (32 - rotate))
}

func boolToU64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
