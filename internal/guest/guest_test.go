package guest

import (
	"testing"
	"unsafe"

	"github.com/vexdbt/armjit/internal/loc"
)

func testCodePtr(tag *int) CodePtr {
	return CodePtr(unsafe.Pointer(tag))
}

func TestRSBPushPopHit(t *testing.T) {
	s := New()
	var tag int
	code := testCodePtr(&tag)

	s.PushRSB(0xABCD, code)
	got, ok := s.PopRSBHint(0xABCD)
	if !ok || got != code {
		t.Fatalf("PopRSBHint = %v, %v; want %v, true", got, ok, code)
	}
}

func TestRSBPopMissOnWrongHash(t *testing.T) {
	s := New()
	var tag int
	s.PushRSB(0xABCD, testCodePtr(&tag))

	if _, ok := s.PopRSBHint(0xFFFF); ok {
		t.Fatal("PopRSBHint should miss on a hash that was never pushed")
	}
}

func TestRSBPopMissLeavesPtrUntouched(t *testing.T) {
	s := New()
	var tag int
	s.PushRSB(0xABCD, testCodePtr(&tag))
	before := s.RSBPtr

	s.PopRSBHint(0xFFFF)
	if s.RSBPtr != before {
		t.Fatalf("RSBPtr moved on a miss: before=%d after=%d", before, s.RSBPtr)
	}
}

func TestFastDispatchStoreLookupClear(t *testing.T) {
	s := New()
	var tag int
	code := testCodePtr(&tag)

	if _, ok := s.FastDispatchLookup(0x1234); ok {
		t.Fatal("empty table should miss")
	}
	s.FastDispatchStore(0x1234, code)
	got, ok := s.FastDispatchLookup(0x1234)
	if !ok || got != code {
		t.Fatalf("FastDispatchLookup = %v, %v; want %v, true", got, ok, code)
	}

	s.FastDispatchClear()
	if _, ok := s.FastDispatchLookup(0x1234); ok {
		t.Fatal("FastDispatchClear should empty every slot")
	}
}

func TestCPSRRoundTrip(t *testing.T) {
	s := New()
	const v = uint32(0x800301d0)
	s.SetCPSR(v)
	if got := s.CPSR(); got != v {
		t.Fatalf("CPSR round trip = 0x%08x, want 0x%08x", got, v)
	}
}

func TestCurrentLocationSetLocationRoundTrip(t *testing.T) {
	s := New()
	d := loc.Descriptor{PC: 0x4000, Thumb: true, ITState: 0x7}
	s.SetLocation(d)

	got := s.CurrentLocation()
	if got.PC != d.PC || got.Thumb != d.Thumb || got.ITState != d.ITState {
		t.Fatalf("CurrentLocation = %+v, want %+v", got, d)
	}
}

func TestResetClearsArchitecturalStateNotHalt(t *testing.T) {
	s := New()
	s.Regs[0] = 42
	s.N = true
	var tag int
	s.PushRSB(1, testCodePtr(&tag))
	s.HaltRequested.Store(true)

	s.Reset()

	if s.Regs[0] != 0 || s.N {
		t.Fatal("Reset should clear registers and flags")
	}
	if _, ok := s.PopRSBHint(1); ok {
		t.Fatal("Reset should clear the RSB")
	}
	if !s.HaltRequested.Load() {
		t.Fatal("Reset must not touch HaltRequested")
	}
}
