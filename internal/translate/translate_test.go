package translate

import (
	"encoding/binary"
	"testing"

	"github.com/vexdbt/armjit/internal/ir"
	"github.com/vexdbt/armjit/internal/loc"
)

// wordFetcher backs FetchFunc with a flat little-endian byte image, the
// same layout the public façade hands guest memory in.
func wordFetcher(words ...uint32) FetchFunc {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return func(addr uint32) uint32 {
		return binary.LittleEndian.Uint32(buf[addr : addr+4])
	}
}

// TestTranslateStraightLineSelfLoop lifts the four-instruction sequence
// used elsewhere to ground spec's golden scenarios (mov r0,#5; mov r1,#13;
// add r2,r1,r0; b .) into a single block and checks it ends in an
// unconditional link to the trailing "b ."'s own address (12) rather than
// bailing to the interpreter.
func TestTranslateStraightLineSelfLoop(t *testing.T) {
	fetch := wordFetcher(0xE3A00005, 0xE3A0100D, 0xE0812000, 0xEAFFFFFE)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	if len(block.Ops) == 0 {
		t.Fatal("expected the block to contain lifted micro-ops")
	}
	link, ok := block.Term.(ir.LinkBlockFast)
	if !ok {
		t.Fatalf("terminal = %T, want ir.LinkBlockFast", block.Term)
	}
	if link.Target.PC != 12 {
		t.Fatalf("self-loop target PC = %d, want 12", link.Target.PC)
	}
	if block.GuestSizeBytes != 16 {
		t.Fatalf("GuestSizeBytes = %d, want 16", block.GuestSizeBytes)
	}
	if block.Cycles != 4 {
		t.Fatalf("Cycles = %d, want 4", block.Cycles)
	}
}

// TestTranslateUnknownEncodingBailsToInterpret checks that a word neither
// table recognizes terminates the block with Interpret rather than
// panicking or silently skipping the instruction.
func TestTranslateUnknownEncodingBailsToInterpret(t *testing.T) {
	fetch := wordFetcher(0xEC000000) // coprocessor space (cond=AL), no handler registered
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	interp, ok := block.Term.(ir.Interpret)
	if !ok {
		t.Fatalf("terminal = %T, want ir.Interpret", block.Term)
	}
	if interp.At.PC != 0 {
		t.Fatalf("Interpret.At.PC = %d, want 0", interp.At.PC)
	}
}

// TestTranslateNonALConditionOnDataProcessingContinuesUnderGuard checks that
// a non-AL, non-branch instruction no longer bails the whole block to the
// interpreter: its state-mutating op is guarded, and translation resumes
// normally at the next instruction in the same block.
func TestTranslateNonALConditionOnDataProcessingContinuesUnderGuard(t *testing.T) {
	fetch := wordFetcher(
		0x03A00005, // moveq r0,#5 (cond=EQ)
		0xEAFFFFFE, // b .
	)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	link, ok := block.Term.(ir.LinkBlockFast)
	if !ok || link.Target.PC != 4 {
		t.Fatalf("terminal = %+v, want LinkBlockFast{Target.PC: 4}, translation should not have bailed", block.Term)
	}

	var found *ir.MicroOp
	for _, op := range block.Ops {
		if op.Op == ir.OpSetRegister && op.Imm == 0 {
			found = op
		}
	}
	if found == nil {
		t.Fatal("expected a SetRegister op for r0's moveq result")
	}
	if !found.HasGuard {
		t.Fatal("moveq's SetRegister must carry a guard, since EQ is non-AL")
	}
	if block.Cycles != 2 {
		t.Fatalf("Cycles = %d, want 2 (one per retired instruction, guarded or not)", block.Cycles)
	}
}

// TestTranslateNonALDataProcessingWritingPCGetsConditionalTerminal checks
// the other half of the guard scheme: an instruction that ends the block
// outright (here, a conditional data-processing write to R15) only takes
// that terminal when the condition holds, falling through to the next
// instruction's address otherwise.
func TestTranslateNonALDataProcessingWritingPCGetsConditionalTerminal(t *testing.T) {
	fetch := wordFetcher(0x01A0F00E) // moveq pc, lr (cond=EQ)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	ifTerm, ok := block.Term.(ir.If)
	if !ok {
		t.Fatalf("terminal = %T, want ir.If", block.Term)
	}
	els, ok := ifTerm.Else.(ir.LinkBlockFast)
	if !ok || els.Target.PC != 4 {
		t.Fatalf("If.Else = %+v, want LinkBlockFast{Target.PC: 4}", ifTerm.Else)
	}
}

// TestTranslateNonALBranchProducesIfTerminal checks a conditional plain "b"
// lowers to an If terminal with both arms linking forward.
func TestTranslateNonALBranchProducesIfTerminal(t *testing.T) {
	fetch := wordFetcher(0x0AFFFFFE) // beq . (cond=EQ)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	ifTerm, ok := block.Term.(ir.If)
	if !ok {
		t.Fatalf("terminal = %T, want ir.If", block.Term)
	}
	then, ok := ifTerm.Then.(ir.LinkBlockFast)
	if !ok || then.Target.PC != 0 {
		t.Fatalf("If.Then = %+v, want LinkBlockFast{Target.PC: 0}", ifTerm.Then)
	}
	els, ok := ifTerm.Else.(ir.LinkBlockFast)
	if !ok || els.Target.PC != 4 {
		t.Fatalf("If.Else = %+v, want LinkBlockFast{Target.PC: 4}", ifTerm.Else)
	}
}

// TestTranslateNonALLinkGuardsRSBAndLRWrites checks a conditional "bl"
// lowers to the same If-terminal shape as "b", but with its RSB push and
// LR write guarded by the same condition rather than emitted unconditionally.
func TestTranslateNonALLinkGuardsRSBAndLRWrites(t *testing.T) {
	fetch := wordFetcher(0x0BFFFFFE) // bleq . (cond=EQ)
	block := Translate(loc.Descriptor{PC: 0}, fetch, Policy{})

	ifTerm, ok := block.Term.(ir.If)
	if !ok {
		t.Fatalf("terminal = %T, want ir.If", block.Term)
	}
	if _, ok := ifTerm.Then.(ir.LinkBlockFast); !ok {
		t.Fatalf("If.Then = %T, want ir.LinkBlockFast", ifTerm.Then)
	}
	if _, ok := ifTerm.Else.(ir.LinkBlockFast); !ok {
		t.Fatalf("If.Else = %T, want ir.LinkBlockFast", ifTerm.Else)
	}

	var sawGuardedPush, sawGuardedLR bool
	for _, op := range block.Ops {
		switch op.Op {
		case ir.OpPushRSB:
			sawGuardedPush = op.HasGuard
		case ir.OpSetRegister:
			if op.Imm == 14 {
				sawGuardedLR = op.HasGuard
			}
		}
	}
	if !sawGuardedPush {
		t.Fatal("expected a guarded OpPushRSB for a conditional bl")
	}
	if !sawGuardedLR {
		t.Fatal("expected a guarded SetRegister(14, ...) for a conditional bl")
	}
}

// TestTranslateOneRunsRegardlessOfCondition checks TranslateOne executes a
// matched handler even when the condition field is non-AL, since its
// caller (the interpreter) has already evaluated the condition itself.
func TestTranslateOneRunsRegardlessOfCondition(t *testing.T) {
	fetch := wordFetcher(0x03A00005) // moveq r0,#5
	block := TranslateOne(loc.Descriptor{PC: 0}, fetch, Policy{})

	if len(block.Ops) == 0 {
		t.Fatal("expected TranslateOne to lift the instruction's ops regardless of its condition field")
	}
	if _, ok := block.Term.(ir.ReturnToDispatch); !ok {
		t.Fatalf("terminal = %T, want ir.ReturnToDispatch", block.Term)
	}
}

// TestTranslateOneUnmatchedWordRaisesUnpredictable checks the last-resort
// path: an encoding even TranslateOne's tables don't recognize raises an
// unpredictable exception rather than panicking.
func TestTranslateOneUnmatchedWordRaisesUnpredictable(t *testing.T) {
	fetch := wordFetcher(0xF1000000)
	block := TranslateOne(loc.Descriptor{PC: 0}, fetch, Policy{})

	var foundException bool
	for _, op := range block.Ops {
		if op.Op == ir.OpExceptionRaised {
			foundException = true
			if op.Imm != ExceptionUnpredictable {
				t.Fatalf("ExceptionRaised kind = %d, want %d", op.Imm, ExceptionUnpredictable)
			}
		}
	}
	if !foundException {
		t.Fatal("expected an ExceptionRaised op for an encoding unknown to both tables")
	}
}

// TestBranchTargetSelfLoop re-derives the self-branch-loop encoding used
// throughout these tests directly from branchTarget's formula.
func TestBranchTargetSelfLoop(t *testing.T) {
	got := branchTarget(0, 0xFFFFFE)
	if got != 0 {
		t.Fatalf("branchTarget(0, 0xFFFFFE) = %d, want 0", got)
	}
}
