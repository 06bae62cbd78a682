package cache

import "sort"

// rangeIndex is an ordered set of half-open guest address ranges, one per
// cached entry, kept sorted by start address. Invalidation's
// for_each_block_overlapping query checks every entry in turn (no binary
// search), so its cost grows with the number of cached blocks, not only
// with the number of blocks the range overlaps.
type rangeIndex struct {
	entries []*Entry // sorted by GuestStart
}

func (r *rangeIndex) insert(e *Entry) {
	i := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].GuestStart >= e.GuestStart })
	r.entries = append(r.entries, nil)
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = e
}

// removeOverlapping deletes and returns every entry whose [GuestStart,
// GuestEnd) range intersects [start, end).
func (r *rangeIndex) removeOverlapping(start, end uint32) []*Entry {
	var removed []*Entry
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.GuestStart < end && start < e.GuestEnd {
			removed = append(removed, e)
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return removed
}
