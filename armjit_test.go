package armjit_test

import (
	"testing"
	"time"

	"github.com/vexdbt/armjit"
	"github.com/vexdbt/armjit/internal/loc"
)

// TestContextRoundTripIsObservablyNoop grounds spec's context-round-trip
// invariant directly: saving and immediately reloading a context must
// leave every guest-visible field exactly as it was.
func TestContextRoundTripIsObservablyNoop(t *testing.T) {
	r := newRig()
	r.jit.Registers()[0] = 0x12345678
	r.jit.Registers()[13] = 0xDEADBEEF
	r.jit.SetCPSR(0x800001d0)
	r.jit.SetFPSCR(0x00000001)

	ctx := r.jit.SaveContext()
	r.jit.Registers()[0] = 0 // perturb, then restore
	r.jit.LoadContext(ctx)

	if got := r.jit.Registers()[0]; got != 0x12345678 {
		t.Fatalf("r0 after round trip = 0x%x, want 0x12345678", got)
	}
	if got := r.jit.Registers()[13]; got != 0xDEADBEEF {
		t.Fatalf("r13 after round trip = 0x%x, want 0xDEADBEEF", got)
	}
	if got := r.jit.CPSR(); got != 0x800001d0 {
		t.Fatalf("CPSR after round trip = 0x%08x, want 0x800001d0", got)
	}
	if got := r.jit.FPSCR(); got != 0x00000001 {
		t.Fatalf("FPSCR after round trip = 0x%08x, want 0x00000001", got)
	}
}

// TestNewPanicsWithoutCallbacks checks the one required Config option.
func TestNewPanicsWithoutCallbacks(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("New should panic when Config has no WithCallbacks")
		}
	}()
	armjit.New(armjit.NewConfig())
}

// TestReentrantRunPanics checks Run's own re-entrancy guard: a second call
// made while the first is still blocked in its self-loop must panic rather
// than race the first call's isExecuting flag.
func TestReentrantRunPanics(t *testing.T) {
	r := newRig()
	r.loadWords(0, 0xEAFFFFFE) // b .
	r.mem.SetTickBudget(^uint64(0))

	done := r.jit.RunAsync()
	time.Sleep(time.Millisecond)
	defer func() {
		if recover() == nil {
			t.Fatal("a nested Run call should panic")
		}
		r.jit.Halt()
		<-done
	}()

	r.jit.Run()
}

// TestResetClearsRegistersWhenIdle checks Reset's precondition guard lets
// an idle call through and zeroes guest-visible state.
func TestResetClearsRegistersWhenIdle(t *testing.T) {
	r := newRig()
	r.jit.Registers()[0] = 42
	r.jit.SetCPSR(0x800001d0)

	r.jit.Reset()

	if got := r.jit.Registers()[0]; got != 0 {
		t.Fatalf("r0 after Reset = %d, want 0", got)
	}
	if r.jit.IsExecuting() {
		t.Fatal("Reset must not leave IsExecuting true")
	}
}

// TestClearCacheServicesImmediatelyWhenIdle checks ClearCache applied
// outside Run takes effect synchronously: a block translated before the
// clear is gone afterward, forcing a fresh translation on the next Run.
func TestClearCacheServicesImmediatelyWhenIdle(t *testing.T) {
	r := newRig()
	r.loadWords(0,
		0xE3A00005, // mov r0, #5
		0xEAFFFFFE, // b .
	)
	r.runTicks(2)
	if got := r.jit.Registers()[0]; got != 5 {
		t.Fatalf("r0 after first run = %d, want 5", got)
	}

	r.jit.ClearCache()
	r.loadWords(0, 0xE3A0000A) // mov r0, #10 (address 4 still holds the earlier "b .", which ends the block)
	r.jit.Registers()[15] = 0
	r.jit.Registers()[0] = 0
	r.runTicks(1)

	if got := r.jit.Registers()[0]; got != 10 {
		t.Fatalf("r0 after clearing the cache and patching = %d, want 10", got)
	}
}

// TestDisassembleUncachedBlockWalksMemoryDirectly checks Disassemble works
// without ever having run the target location through the dispatcher.
func TestDisassembleUncachedBlockWalksMemoryDirectly(t *testing.T) {
	r := newRig()
	r.loadWords(0, 0xE3A00005) // mov r0, #5

	lines := r.jit.Disassemble(loc.Descriptor{PC: 0})
	if len(lines) != 1 {
		t.Fatalf("Disassemble returned %d lines, want 1", len(lines))
	}
}
