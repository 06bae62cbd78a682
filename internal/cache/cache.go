// Package cache implements the code cache (C7): the forward map from
// location descriptor to compiled entrypoint, the range index used to find
// every block overlapping a guest memory range, and the bookkeeping that
// stands in for a real host-code arena.
package cache

import (
	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/loc"
)

// Entry is one cached translation: its location, the compiled host code,
// and the guest byte range it covers (needed by the range index
// independently of Descriptor's full mode-bit hash).
type Entry struct {
	Descriptor loc.Descriptor
	Code       emit.HostCode

	GuestStart uint32
	GuestEnd   uint32 // exclusive
}

// Cache is the forward map plus range index for one JIT instance. Writes
// happen only on the owner thread at a safe point (see internal/invalidate);
// reads happen only from the dispatcher on the same thread, so no
// synchronization is needed here — the concurrency discipline lives one
// level up, in what is and isn't allowed to call these methods.
type Cache struct {
	forward map[uint64]*Entry
	ranges  rangeIndex

	generation uint64
}

// New returns an empty cache at generation 0.
func New() *Cache {
	return &Cache{forward: make(map[uint64]*Entry)}
}

// Get returns the cached entry for d, if present.
func (c *Cache) Get(d loc.Descriptor) (*Entry, bool) {
	e, ok := c.forward[d.Hash()]
	return e, ok
}

// Insert records e in both the forward map and the range index.
func (c *Cache) Insert(e *Entry) {
	c.forward[e.Descriptor.Hash()] = e
	c.ranges.insert(e)
}

// Generation returns the cache's current generation counter, bumped once
// per serviced invalidation (full or partial). Saved contexts compare
// against this to decide whether a loaded RSB is still trustworthy.
func (c *Cache) Generation() uint64 { return c.generation }

// BumpGeneration advances the generation counter. Called once per
// serviced invalidation request, after the forward map and range index
// have been brought up to date.
func (c *Cache) BumpGeneration() { c.generation++ }

// Clear empties the forward map and range index — the code-cache half of
// a full flush. The caller is responsible for the rest: resetting the
// arena, the guest RSB, and the fast-dispatch table, and bumping the
// generation counter.
func (c *Cache) Clear() {
	c.forward = make(map[uint64]*Entry)
	c.ranges = rangeIndex{}
}

// ForEach calls fn once per cached entry with its guest byte range, for a
// consumer that wants to render cache occupancy without reaching into the
// forward map or range index directly.
func (c *Cache) ForEach(fn func(start, end uint32)) {
	for _, e := range c.forward {
		fn(e.GuestStart, e.GuestEnd)
	}
}

// RemoveOverlapping deletes from the forward map every entry whose guest
// byte range overlaps [start, start+length), and removes their ranges from
// the index, returning the removed entries so the caller can patch their
// (now-stale) dispatch paths.
func (c *Cache) RemoveOverlapping(start, length uint32) []*Entry {
	end := start + length
	removed := c.ranges.removeOverlapping(start, end)
	for _, e := range removed {
		delete(c.forward, e.Descriptor.Hash())
	}
	return removed
}
