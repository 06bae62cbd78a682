package armjit

import "github.com/vexdbt/armjit/internal/guest"

// CacheRange names the guest byte extent one cached block covers, for
// visualizing code-cache occupancy (cmd/armjit-view). Exposing ranges
// rather than raw cache.Entry keeps the host-code pointer itself, an
// implementation detail, out of the public API.
type CacheRange struct {
	Start, End uint32
}

// CacheRanges returns the guest byte extent of every block currently in
// the code cache, for a debugger to render as an occupancy map.
func (j *JIT) CacheRanges() []CacheRange {
	ranges := make([]CacheRange, 0)
	j.dispatcher.Cache().ForEach(func(start, end uint32) {
		ranges = append(ranges, CacheRange{Start: start, End: end})
	})
	return ranges
}

// RSBOccupancy reports, for each of the RSB ring's fixed slots, whether it
// currently holds a live return address — a debugger's view of the ring
// without exposing the boxed code pointers inside it.
func (j *JIT) RSBOccupancy() [guest.RSBSize]bool {
	var occ [guest.RSBSize]bool
	for i, e := range j.state.RSB {
		occ[i] = e.Code != guest.NilCodePtr
	}
	return occ
}

// FastDispatchOccupancy samples the fast-dispatch table's occupancy as a
// bitmap, one bool per slot, for the visual debugger's hash-slot grid.
// Copying all FastDispatchSize (65536) booleans is cheap enough to do once
// per rendered frame.
func (j *JIT) FastDispatchOccupancy() []bool {
	occ := make([]bool, guest.FastDispatchSize)
	for i, slot := range j.state.FastDispatch {
		occ[i] = slot.Code != guest.NilCodePtr
	}
	return occ
}
