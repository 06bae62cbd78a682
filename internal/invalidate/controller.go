// Package invalidate implements the invalidation controller (C10): the
// pending-range set and full-flush flag that invalidate_range/clear_cache
// queue from any thread, and the safe-point service routine that the owner
// thread drains them through.
package invalidate

import (
	"sync"
	"sync/atomic"

	"github.com/vexdbt/armjit/internal/cache"
	"github.com/vexdbt/armjit/internal/guest"
)

type pendingRange struct{ start, end uint32 }

// Controller queues invalidation requests safely from any goroutine and
// services them on the owner thread at a safe point. The mutex here
// guards only the pending-request bookkeeping; the cache and guest-state
// mutation that Service performs is safe specifically because Service is
// only ever called when the owner thread is not inside Run.
type Controller struct {
	mu        sync.Mutex
	pending   []pendingRange
	fullFlush bool
}

// New returns a controller with nothing queued.
func New() *Controller { return &Controller{} }

// InvalidateRange queues the closed interval [start, start+length-1] for a
// partial flush and requests a safe-point stop by setting halt.
func (c *Controller) InvalidateRange(halt *atomic.Bool, start, length uint32) {
	c.mu.Lock()
	c.pending = coalesceInsert(c.pending, pendingRange{start, start + length})
	c.mu.Unlock()
	halt.Store(true)
}

// Clear queues a full flush and requests a safe-point stop.
func (c *Controller) Clear(halt *atomic.Bool) {
	c.mu.Lock()
	c.fullFlush = true
	c.pending = nil
	c.mu.Unlock()
	halt.Store(true)
}

// HasPending reports whether a flush (full or partial) is still queued.
func (c *Controller) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullFlush || len(c.pending) > 0
}

// Service drains whatever is queued against cc and st. Callers must only
// invoke this from the owner thread while not inside Run — invalidate_range
// and clear_cache's "safe-point rule" is enforced by the caller (the
// dispatcher/façade), not by this method.
func (c *Controller) Service(cc *cache.Cache, st *guest.State) {
	c.mu.Lock()
	full := c.fullFlush
	ranges := c.pending
	c.fullFlush = false
	c.pending = nil
	c.mu.Unlock()

	if !full && len(ranges) == 0 {
		return
	}

	if full {
		cc.Clear()
	} else {
		for _, r := range ranges {
			cc.RemoveOverlapping(r.start, r.end-r.start)
		}
	}

	// RSB and fast-dispatch entries may now point at removed or
	// about-to-be-reclaimed code; both are cheap to rebuild lazily.
	st.ResetRSB()
	st.FastDispatchClear()
	cc.BumpGeneration()
}

// coalesceInsert inserts r into ranges, merging it with any range it
// overlaps or touches so the pending set never accumulates duplicate or
// adjacent entries across repeated invalidate_range calls into the same
// area.
func coalesceInsert(ranges []pendingRange, r pendingRange) []pendingRange {
	merged := make([]pendingRange, 0, len(ranges)+1)
	for _, existing := range ranges {
		if existing.start <= r.end && r.start <= existing.end {
			if existing.start < r.start {
				r.start = existing.start
			}
			if existing.end > r.end {
				r.end = existing.end
			}
			continue
		}
		merged = append(merged, existing)
	}
	return append(merged, r)
}
