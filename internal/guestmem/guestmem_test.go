package guestmem

import "testing"

func TestLoadAtAndReadCode(t *testing.T) {
	m := New(64)
	m.LoadAt(4, []byte{0x05, 0x00, 0xA0, 0xE3}) // mov r0,#5, little-endian
	if got := m.ReadCode(4); got != 0xE3A00005 {
		t.Fatalf("ReadCode(4) = %#x, want 0xE3A00005", got)
	}
}

func TestReadOnlyRange(t *testing.T) {
	m := New(64)
	if m.IsReadOnlyMemory(8) {
		t.Fatal("a freshly created Memory should report nothing as read-only")
	}
	m.SetReadOnlyRange(8, 16)
	if !m.IsReadOnlyMemory(8) || !m.IsReadOnlyMemory(15) {
		t.Fatal("[8, 16) should be read-only")
	}
	if m.IsReadOnlyMemory(16) || m.IsReadOnlyMemory(7) {
		t.Fatal("the read-only range is half-open: 16 and 7 should not be covered")
	}
}

func TestMapIOInterceptsReadsAndWrites(t *testing.T) {
	m := New(256)
	var latch uint32
	m.MapIO(0x10, 0x13, func(addr uint32) uint32 { return latch }, func(addr uint32, v uint32) { latch = v })

	m.Write32(0x10, 0xABCD)
	if latch != 0xABCD {
		t.Fatalf("latch = %#x, want 0xABCD", latch)
	}
	if got := m.Read32(0x10); got != 0xABCD {
		t.Fatalf("Read32(0x10) = %#x, want 0xABCD", got)
	}

	// An address outside the mapped region falls through to ordinary
	// backing memory untouched by the I/O callbacks.
	m.Write32(0x20, 0x1234)
	if latch != 0xABCD {
		t.Fatal("a write outside the mapped region must not reach the I/O callback")
	}
}

func TestTickBudgetDrainsAndStopsAtZero(t *testing.T) {
	m := New(16)
	m.SetTickBudget(10)

	m.addTicks(4)
	if got := m.getTicksRemaining(); got != 6 {
		t.Fatalf("remaining = %d, want 6", got)
	}

	m.addTicks(100) // overshoot clamps to zero, never underflows
	if got := m.getTicksRemaining(); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}

	m.addTicks(1) // already zero: stays zero, no panic
	if got := m.getTicksRemaining(); got != 0 {
		t.Fatalf("remaining = %d, want 0", got)
	}
}

func TestExceptionAndSupervisorHandlersFire(t *testing.T) {
	m := New(16)
	var gotPC uint32
	var gotKind uint8
	m.SetExceptionHandler(func(pc uint32, kind uint8) { gotPC, gotKind = pc, kind })

	m.exceptionRaised(0x1000, 2)
	if gotPC != 0x1000 || gotKind != 2 {
		t.Fatalf("exception handler saw (%#x, %d), want (0x1000, 2)", gotPC, gotKind)
	}

	var svcPC, svcImm uint32
	m.SetSupervisorHandler(func(pc uint32, imm uint32) { svcPC, svcImm = pc, imm })
	m.callSupervisor(0x2000, 7)
	if svcPC != 0x2000 || svcImm != 7 {
		t.Fatalf("supervisor handler saw (%#x, %d), want (0x2000, 7)", svcPC, svcImm)
	}
}

func TestCallbacksWiresEveryAccessor(t *testing.T) {
	m := New(64)
	cb := m.Callbacks()

	cb.MemoryWrite32(0, 0x11223344)
	if got := cb.MemoryRead32(0); got != 0x11223344 {
		t.Fatalf("MemoryRead32(0) = %#x, want 0x11223344", got)
	}
	if got := cb.MemoryReadCode(0); got != 0x11223344 {
		t.Fatalf("MemoryReadCode(0) = %#x, want 0x11223344", got)
	}

	cb.AddTicks(1) // GetTicksRemaining stays at zero until SetTickBudget is called
	if got := cb.GetTicksRemaining(); got != 0 {
		t.Fatalf("GetTicksRemaining() = %d, want 0", got)
	}
}
