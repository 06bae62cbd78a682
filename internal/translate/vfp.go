package translate

import (
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
)

// registerVFP wires the single-precision VFP data-transfer subset: moving a
// raw 32-bit value between a core register and an S-register (VMOV),
// single-precision immediate-offset load/store (VLDR/VSTR), and the FPSCR
// transfer instructions (VMRS/VMSR), including VMRS's APSR_nzcv special
// case. Floating-point arithmetic and comparison (VADD, VCMP, ...) are not
// implemented.
//
// An S-register's index is split across two non-adjacent encoding fields
// (a 4-bit Vn/Vd field plus a single low-order D/N bit), so every handler
// below that names an S-register combines two decode.Extracted fields into one ExtRegs slot rather
// than reading a single field the way a GPR operand would.
func registerVFP(t *decode.Table[handler]) {
	mustAdd(t, "vmov.core2vfp", "cccc11100000nnnntttt1010x0010000", makeVMovCoreHandler(false))
	mustAdd(t, "vmov.vfp2core", "cccc11100001nnnntttt1010x0010000", makeVMovCoreHandler(true))
	mustAdd(t, "vstr", "cccc1101ue00nnnndddd1010vvvvvvvv", makeVLdrStrHandler(false))
	mustAdd(t, "vldr", "cccc1101ue01nnnndddd1010vvvvvvvv", makeVLdrStrHandler(true))
	mustAdd(t, "vmsr", "cccc111011100001tttt101000010000", makeVMsrHandler())
	mustAdd(t, "vmrs", "cccc111011110001tttt101000010000", makeVMrsHandler())
}

// makeVMovCoreHandler lowers VMOV between a core register and a single S
// register (A8.8.344): toCore copies Sn into Rt, and !toCore copies Rt
// into Sn. Sn = Vn*2+N.
func makeVMovCoreHandler(toCore bool) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		sn := uint8(f.Get('n'))*2 + uint8(f.Get('x'))
		rt := uint8(f.Get('t'))
		if toCore {
			b.SetRegister(rt, b.GetExtReg(sn))
		} else {
			b.SetExtReg(sn, b.GetRegister(rt))
		}
		return cont()
	}
}

// makeVLdrStrHandler lowers VLDR/VSTR (single-precision, A8.8.332/A8.8.415):
// a plain word load/store through Rn with an 8-bit word-granularity
// immediate offset, the only addressing mode this implementation carries;
// Sd = Vd*2+D. Like core LDR/STR it never writes back to the base
// register.
func makeVLdrStrHandler(isLoad bool) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		base := b.GetRegister(uint8(f.Get('n')))
		offset := ir.Const(uint64(f.Get('v')) * 4)

		var addr ir.Operand
		if f.Get('u') != 0 {
			addr = b.Add(base, offset)
		} else {
			addr = b.Sub(base, offset)
		}

		sd := uint8(f.Get('d'))*2 + uint8(f.Get('e'))
		if isLoad {
			b.SetExtReg(sd, b.ReadMemory32(addr))
		} else {
			b.WriteMemory32(addr, b.GetExtReg(sd))
		}
		return cont()
	}
}

// makeVMsrHandler lowers VMSR (A8.8.425): FPSCR <- Rt, unconditionally
// replacing the whole packed status/control word.
func makeVMsrHandler() handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		rt := uint8(f.Get('t'))
		b.SetFPSCR(b.GetRegister(rt))
		return cont()
	}
}

// makeVMrsHandler lowers VMRS (A8.8.424): ordinarily Rt <- FPSCR, but
// Rt==15 names the APSR_nzcv special case instead of R15 itself — FPSCR's
// own N/Z/C/V bits (31/30/29/28) are copied straight into the core flags,
// and R15 is left untouched.
func makeVMrsHandler() handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		rt := uint8(f.Get('t'))
		fpscr := b.GetFPSCR()
		if rt == 15 {
			b.SetNFlag(fpscrBit(b, fpscr, 31))
			b.SetZFlag(fpscrBit(b, fpscr, 30))
			b.SetCFlag(fpscrBit(b, fpscr, 29))
			b.SetVFlag(fpscrBit(b, fpscr, 28))
			return cont()
		}
		b.SetRegister(rt, fpscr)
		return cont()
	}
}

// fpscrBit extracts one boolean bit out of a packed FPSCR operand without
// a dedicated bit-test op: shift it down to bit 0, then mask with AndBool,
// whose TypeI1 result is truncated to a single bit by the same
// maskToType rule every other I1-typed op already relies on.
func fpscrBit(b *ir.Builder, fpscr ir.Operand, bit uint64) ir.Operand {
	shifted := b.LogicalShiftRight(fpscr, ir.Const(bit), ir.Const(0))
	return b.AndBool(shifted, ir.Const(1))
}
