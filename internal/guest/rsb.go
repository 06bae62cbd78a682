package guest

// PushRSB records a call-site return target. Performed by the IR
// PushRSB(loc) micro-op when translating instructions that push a return
// address (BL, SVC's implicit return point, etc.).
func (s *State) PushRSB(hash uint64, code CodePtr) {
	s.RSB[s.RSBPtr] = RSBEntry{Hash: hash, Code: code}
	s.RSBPtr = (s.RSBPtr + 1) & RSBMask
}

// PopRSBHint attempts the RSB fast path for the given target hash,
// mirroring the dispatcher pseudocode's step 1. On a hit it advances
// RSBPtr backwards and returns the cached code pointer; on a miss
// (stale or absent entry) it reports ok=false and leaves RSBPtr
// untouched, so the caller falls back to the fast-dispatch table / full
// lookup without corrupting the ring.
func (s *State) PopRSBHint(hash uint64) (code CodePtr, ok bool) {
	newPtr := (s.RSBPtr - 1) & RSBMask
	entry := s.RSB[newPtr]
	if entry.Hash != hash || entry.Code == NilCodePtr {
		return NilCodePtr, false
	}
	s.RSBPtr = newPtr
	return entry.Code, true
}
