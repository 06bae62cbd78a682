package dispatch

import (
	"encoding/binary"
	"testing"

	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/jitstats"
	"github.com/vexdbt/armjit/internal/loc"
	"github.com/vexdbt/armjit/internal/translate"
)

// fakeCallbacks backs emit.Callbacks over a flat byte image, with a tick
// budget that Run's loop polls the same way the real façade does.
type fakeCallbacks struct {
	mem      []byte
	ticks    uint64
	budget   uint64
	excepted bool
}

func (f *fakeCallbacks) ReadMemory32(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(f.mem[addr:])
}
func (f *fakeCallbacks) WriteMemory32(addr uint32, v uint32) {
	binary.LittleEndian.PutUint32(f.mem[addr:], v)
}
func (f *fakeCallbacks) IsReadOnlyMemory(uint32) bool { return false }
func (f *fakeCallbacks) ExceptionRaised(uint32, uint8) { f.excepted = true }
func (f *fakeCallbacks) CallSupervisor(uint32, uint32) {}
func (f *fakeCallbacks) AddTicks(n uint64) {
	f.ticks += n
	if n >= f.budget {
		f.budget = 0
	} else {
		f.budget -= n
	}
}
func (f *fakeCallbacks) TicksRemaining() uint64 { return f.budget }

func (f *fakeCallbacks) fetch(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(f.mem[addr:])
}

func newFakeCallbacks(words ...uint32) *fakeCallbacks {
	buf := make([]byte, 4096)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return &fakeCallbacks{mem: buf}
}

func selfLoopCallbacks() *fakeCallbacks {
	return newFakeCallbacks(0xE3A00005, 0xE3A0100D, 0xE0812000, 0xEAFFFFFE)
}

func newDispatcher(cb *fakeCallbacks, stats *jitstats.Counters) *Dispatcher {
	return New(cb, cb.fetch, translate.Policy{}, nil, true, stats)
}

// TestRunExecutesOneBlockThenStopsOnTickExhaustion grounds spec's golden
// scenario: a four-instruction straight-line block retired exactly once
// under a four-tick budget, the dispatcher's Run loop stopping at the
// block boundary before re-entering the self-loop.
func TestRunExecutesOneBlockThenStopsOnTickExhaustion(t *testing.T) {
	cb := selfLoopCallbacks()
	cb.budget = 4
	d := newDispatcher(cb, nil)
	st := guest.New()

	d.Run(st)

	if st.Regs[2] != 18 {
		t.Fatalf("r2 = %d, want 18", st.Regs[2])
	}
	// The block's trailing "b ." retires inside it and links to its own
	// address (12), which the stopped loop leaves as the current location.
	if st.CurrentLocation().PC != 12 {
		t.Fatalf("PC after stopping = %d, want 12", st.CurrentLocation().PC)
	}
}

// TestRunStopsImmediatelyWhenHaltRequested checks the loop's first check
// (before touching the cache at all) honors a halt set ahead of time.
func TestRunStopsImmediatelyWhenHaltRequested(t *testing.T) {
	cb := selfLoopCallbacks()
	cb.budget = 1000
	d := newDispatcher(cb, nil)
	st := guest.New()
	st.HaltRequested.Store(true)

	d.Run(st)

	if st.Regs[2] != 0 {
		t.Fatalf("r2 = %d, want 0 (Run must return before executing anything)", st.Regs[2])
	}
	if cb.ticks != 0 {
		t.Fatalf("ticks reported = %d, want 0", cb.ticks)
	}
}

// TestGetOrTranslateCachesAndRecordsStats checks a repeated Resolve of the
// same target hits the cache on the second call and that translation/hit
// counters move accordingly.
func TestGetOrTranslateCachesAndRecordsStats(t *testing.T) {
	cb := selfLoopCallbacks()
	stats := jitstats.New()
	d := newDispatcher(cb, stats)

	target := loc.Descriptor{PC: 0}
	first := d.getOrTranslate(target)
	second := d.getOrTranslate(target)

	if first == nil || second == nil {
		t.Fatal("expected both lookups to return compiled code")
	}
	if stats.Translations.Load() != 1 {
		t.Fatalf("Translations = %d, want 1", stats.Translations.Load())
	}
	if stats.CacheMisses.Load() != 1 || stats.CacheHits.Load() != 1 {
		t.Fatalf("CacheMisses/CacheHits = %d/%d, want 1/1", stats.CacheMisses.Load(), stats.CacheHits.Load())
	}
}

// TestRunFeedsInstructionCounterThroughAddTicks checks the
// countingCallbacks wrapper records retired instructions when stats are
// configured, without double-reporting ticks to the underlying callbacks.
func TestRunFeedsInstructionCounterThroughAddTicks(t *testing.T) {
	cb := selfLoopCallbacks()
	cb.budget = 4
	stats := jitstats.New()
	d := newDispatcher(cb, stats)
	st := guest.New()

	d.Run(st)

	if stats.Instructions.Load() != 4 {
		t.Fatalf("Instructions = %d, want 4", stats.Instructions.Load())
	}
	if cb.ticks != 4 {
		t.Fatalf("underlying callbacks ticks = %d, want 4", cb.ticks)
	}
}

// TestRunChargesOneTickPerRetiredInstructionThroughInterpretBailout checks
// the ExitInterpret path bills exactly one tick per retired instruction
// rather than double-counting: once for the block-level translator's
// zero-cycle bailout, again for the interpreter's own one-instruction
// compiled block. 0xEE000000 is an AL-conditioned coprocessor-space word no
// handler in internal/translate registers, so every pass through Run
// retranslates the same bailout block and re-enters the interpreter for it.
func TestRunChargesOneTickPerRetiredInstructionThroughInterpretBailout(t *testing.T) {
	cb := newFakeCallbacks(0xEE000000)
	cb.budget = 3
	d := newDispatcher(cb, nil)
	st := guest.New()

	d.Run(st)

	if cb.ticks != 3 {
		t.Fatalf("ticks = %d, want 3 (one per retired instruction, not two)", cb.ticks)
	}
	if !cb.excepted {
		t.Fatal("expected the unmatched encoding to raise an exception via the interpreter")
	}
}

// TestInterpreterPathFeedsInstructionCounterToo checks the interpreter's
// compiled one-instruction blocks are wrapped in the same stats-tracking
// callbacks as every block the full lookup path compiles, so a retired
// instruction that went through ExitInterpret still reaches jitstats'
// MIPS counter instead of only the consumer-visible tick total.
func TestInterpreterPathFeedsInstructionCounterToo(t *testing.T) {
	cb := newFakeCallbacks(0xEE000000)
	cb.budget = 3
	stats := jitstats.New()
	d := newDispatcher(cb, stats)
	st := guest.New()

	d.Run(st)

	if stats.Instructions.Load() != 3 {
		t.Fatalf("Instructions = %d, want 3", stats.Instructions.Load())
	}
}

// TestFastPathRSBHitSkipsFullLookup checks fastPath recovers a host code
// pointer from the RSB without the caller having to fall back to
// getOrTranslate.
func TestFastPathRSBHitSkipsFullLookup(t *testing.T) {
	cb := selfLoopCallbacks()
	d := newDispatcher(cb, nil)
	st := guest.New()

	target := loc.Descriptor{PC: 4}
	code := d.getOrTranslate(target)
	st.PushRSB(target.Hash(), emit.Box(code))

	if _, ok := d.fastPath(st, target.Hash(), emit.ExitPopRSBHint); !ok {
		t.Fatal("expected an RSB hit")
	}
}

// TestFastPathRSBMissFallsBack checks an empty RSB reports a miss rather
// than a spurious hit.
func TestFastPathRSBMissFallsBack(t *testing.T) {
	cb := selfLoopCallbacks()
	d := newDispatcher(cb, nil)
	st := guest.New()

	_, ok := d.fastPath(st, loc.Descriptor{PC: 4}.Hash(), emit.ExitPopRSBHint)
	if ok {
		t.Fatal("expected an RSB miss on an empty stack")
	}
}

// TestFastPathFastDispatchTableHitsRegardlessOfHint checks step 2 (the
// fast-dispatch table) is consulted on every entry that didn't already hit
// the RSB, not only when the previous exit was itself ExitFastDispatchHint
// — a slot warmed by an earlier LinkBlockFast elsewhere must still serve a
// later ReturnToDispatch-style exit (bx/blx, SVC, an unmatched encoding,
// or Run's very first iteration) landing on the same target.
func TestFastPathFastDispatchTableHitsRegardlessOfHint(t *testing.T) {
	cb := selfLoopCallbacks()
	d := newDispatcher(cb, nil)
	st := guest.New()

	target := loc.Descriptor{PC: 4}
	code := d.getOrTranslate(target)
	st.FastDispatchStore(target.Hash(), emit.Box(code))

	if _, ok := d.fastPath(st, target.Hash(), emit.ExitReturnToDispatch); !ok {
		t.Fatal("expected a fast-dispatch table hit even though the hint was ExitReturnToDispatch, not ExitFastDispatchHint")
	}
}

// TestFastPathFastDispatchDisabledIgnoresTable checks disabling
// fastDispatch forces a miss even when the table holds a live entry for
// the hash, so the caller always falls through to a full lookup.
func TestFastPathFastDispatchDisabledIgnoresTable(t *testing.T) {
	cb := selfLoopCallbacks()
	d := New(cb, cb.fetch, translate.Policy{}, nil, false, nil)
	st := guest.New()

	target := loc.Descriptor{PC: 0}
	code := d.getOrTranslate(target)
	st.FastDispatchStore(target.Hash(), emit.Box(code))

	_, ok := d.fastPath(st, target.Hash(), emit.ExitFastDispatchHint)
	if ok {
		t.Fatal("fastDispatch=false should force a miss regardless of the table's contents")
	}
}
