package invalidate

import (
	"sync/atomic"
	"testing"

	"github.com/vexdbt/armjit/internal/cache"
	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/loc"
)

func noopCode(*guest.State) emit.Exit { return emit.Exit{} }

func TestInvalidateRangeSetsHaltAndPending(t *testing.T) {
	c := New()
	var halt atomic.Bool

	c.InvalidateRange(&halt, 4, 8)
	if !halt.Load() {
		t.Fatal("InvalidateRange should request a safe-point stop")
	}
	if !c.HasPending() {
		t.Fatal("InvalidateRange should leave a pending request")
	}
}

func TestServiceRemovesOverlappingAndBumpsGeneration(t *testing.T) {
	c := New()
	cc := cache.New()
	st := guest.New()
	cc.Insert(&cache.Entry{Descriptor: loc.Descriptor{PC: 0}, Code: noopCode, GuestStart: 0, GuestEnd: 16})
	var halt atomic.Bool

	c.InvalidateRange(&halt, 4, 4)
	c.Service(cc, st)

	if _, ok := cc.Get(loc.Descriptor{PC: 0}); ok {
		t.Fatal("Service should have removed the overlapping block")
	}
	if cc.Generation() != 1 {
		t.Fatalf("Generation = %d, want 1", cc.Generation())
	}
	if c.HasPending() {
		t.Fatal("Service should drain the pending set")
	}
}

func TestServiceFullFlushClearsEverything(t *testing.T) {
	c := New()
	cc := cache.New()
	st := guest.New()
	cc.Insert(&cache.Entry{Descriptor: loc.Descriptor{PC: 1000}, Code: noopCode, GuestStart: 1000, GuestEnd: 1004})
	var halt atomic.Bool

	c.Clear(&halt)
	c.Service(cc, st)

	if _, ok := cc.Get(loc.Descriptor{PC: 1000}); ok {
		t.Fatal("a full flush should clear every cached entry")
	}
}

func TestServiceNoopWhenNothingPending(t *testing.T) {
	c := New()
	cc := cache.New()
	st := guest.New()

	c.Service(cc, st)

	if cc.Generation() != 0 {
		t.Fatal("Service with nothing queued must not bump the generation")
	}
}

func TestCoalesceInsertMergesOverlapping(t *testing.T) {
	ranges := coalesceInsert(nil, pendingRange{start: 0, end: 10})
	ranges = coalesceInsert(ranges, pendingRange{start: 8, end: 20})

	if len(ranges) != 1 {
		t.Fatalf("expected overlapping ranges to merge into one, got %v", ranges)
	}
	if ranges[0].start != 0 || ranges[0].end != 20 {
		t.Fatalf("merged range = %+v, want {0, 20}", ranges[0])
	}
}

func TestCoalesceInsertKeepsDisjointRangesSeparate(t *testing.T) {
	ranges := coalesceInsert(nil, pendingRange{start: 0, end: 4})
	ranges = coalesceInsert(ranges, pendingRange{start: 100, end: 104})

	if len(ranges) != 2 {
		t.Fatalf("expected disjoint ranges to stay separate, got %v", ranges)
	}
}
