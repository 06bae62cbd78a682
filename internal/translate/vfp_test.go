package translate

import (
	"testing"

	"github.com/vexdbt/armjit/internal/ir"
	"github.com/vexdbt/armjit/internal/loc"
)

// TestTranslateVMovCoreToVFPWritesExtReg checks "vmov s0, r0" lowers to a
// write of ExtReg 0 sourced from r0, with no intervening decode of N as
// part of Rt's field the way a naive single-letter pattern would.
func TestTranslateVMovCoreToVFPWritesExtReg(t *testing.T) {
	fetch := wordFetcher(0xEE000A10, 0xEAFFFFFE) // vmov s0,r0; b .
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var found *ir.MicroOp
	for _, op := range block.Ops {
		if op.Op == ir.OpSetExtReg && op.Imm == 0 {
			found = op
		}
	}
	if found == nil {
		t.Fatal("expected a SetExtReg(0, ...) op for vmov s0,r0")
	}
}

// TestTranslateVMovVFPToCoreReadsExtReg checks the reverse direction
// ("vmov r1, s2") reads ExtReg 2, with Sn recombined from Vn and the N bit.
func TestTranslateVMovVFPToCoreReadsExtReg(t *testing.T) {
	// vmov r1, s2: L=1, Vn=0001, N=0 -> Sn = 1*2+0 = 2
	fetch := wordFetcher(0xEE111A10, 0xEAFFFFFE)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var found *ir.MicroOp
	for _, op := range block.Ops {
		if op.Op == ir.OpSetRegister && op.Imm == 1 {
			found = op
		}
	}
	if found == nil {
		t.Fatal("expected a SetRegister(1, ...) op for vmov r1,s2")
	}
	src := found.Args[0]
	if src.IsConst {
		t.Fatalf("vmov r1,s2's source operand is a constant, want a reference into a GetExtReg op")
	}
	get := block.Ops[src.Ref]
	if get.Op != ir.OpGetExtReg || get.Imm != 2 {
		t.Fatalf("vmov r1,s2 read ExtReg %d, want ExtReg 2", get.Imm)
	}
}

// TestTranslateVStrAndVLdrRoundTripThroughExtReg checks the single-precision
// immediate-offset forms address memory the same way core STR/LDR do, and
// combine Vd with D the same way VMOV combines Vn with N.
func TestTranslateVStrAndVLdrRoundTripThroughExtReg(t *testing.T) {
	fetch := wordFetcher(
		0xED800A00, // vstr s0,[r0]
		0xED901A00, // vldr s2,[r0]  (Vd=0001, D=0 -> Sd=1*2+0=2)
		0xEAFFFFFE, // b .
	)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var wroteMem, readExt2 bool
	for _, op := range block.Ops {
		if op.Op == ir.OpWriteMemory32 {
			wroteMem = true
		}
		if op.Op == ir.OpSetExtReg && op.Imm == 2 {
			readExt2 = true
		}
	}
	if !wroteMem {
		t.Fatal("expected vstr s0,[r0] to emit a WriteMemory32")
	}
	if !readExt2 {
		t.Fatal("expected vldr s2,[r0] to write ExtReg 2")
	}
}

// TestTranslateVMsrWritesFPSCRFromCoreRegister checks "vmsr fpscr, r0"
// replaces the whole packed status word with r0's value.
func TestTranslateVMsrWritesFPSCRFromCoreRegister(t *testing.T) {
	fetch := wordFetcher(0xEEE10A10, 0xEAFFFFFE) // vmsr fpscr,r0
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var found bool
	for _, op := range block.Ops {
		if op.Op == ir.OpSetFPSCR {
			found = true
		}
	}
	if !found {
		t.Fatal("expected vmsr fpscr,r0 to emit OpSetFPSCR")
	}
}

// TestTranslateVMrsGeneralFormReadsFPSCRIntoRegister checks the ordinary
// "vmrs r0, fpscr" form (Rt != 15) copies the whole packed word into the
// named core register rather than taking the APSR_nzcv path.
func TestTranslateVMrsGeneralFormReadsFPSCRIntoRegister(t *testing.T) {
	fetch := wordFetcher(0xEEF10A10, 0xEAFFFFFE) // vmrs r0,fpscr
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var found *ir.MicroOp
	for _, op := range block.Ops {
		if op.Op == ir.OpSetRegister && op.Imm == 0 {
			found = op
		}
	}
	if found == nil {
		t.Fatal("expected a SetRegister(0, ...) op for vmrs r0,fpscr")
	}
	src := found.Args[0]
	if src.IsConst || block.Ops[src.Ref].Op != ir.OpGetFPSCR {
		t.Fatal("vmrs r0,fpscr's source operand should be a GetFPSCR op")
	}
}

// TestTranslateVMrsAPSRFormCopiesFlagsNotR15 checks "vmrs apsr_nzcv, fpscr"
// (Rt encoded as 15) copies FPSCR's N/Z/C/V into the core flags and never
// writes R15.
func TestTranslateVMrsAPSRFormCopiesFlagsNotR15(t *testing.T) {
	fetch := wordFetcher(0xEEF1FA10, 0xEAFFFFFE) // vmrs apsr_nzcv,fpscr
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	var sawSetN, sawSetR15 bool
	for _, op := range block.Ops {
		if op.Op == ir.OpSetNFlag {
			sawSetN = true
		}
		if op.Op == ir.OpSetRegister && op.Imm == 15 {
			sawSetR15 = true
		}
	}
	if !sawSetN {
		t.Fatal("expected vmrs apsr_nzcv,fpscr to set the N flag from FPSCR bit 31")
	}
	if sawSetR15 {
		t.Fatal("vmrs apsr_nzcv,fpscr must never write R15")
	}
}
