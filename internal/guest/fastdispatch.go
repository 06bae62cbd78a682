package guest

// FastDispatchSize is the fast-dispatch table's slot count. Must be a
// power of two; the dispatcher derives the slot index from the unique
// hash's middle bits (see FastDispatchIndex).
const FastDispatchSize = 1 << 16

// FastDispatchMask is the table index mask derived from FastDispatchSize.
const FastDispatchMask = FastDispatchSize - 1

// FastDispatchSlot is one entry of the fast-dispatch table: a
// location-descriptor hash and the code it last resolved to. A slot whose
// Hash does not match the query hash is a miss, never a hit on stale
// data — Store always writes Code before Hash so a slot is never read as
// matching before its Code is in place. This runs only on the owner
// thread (the JIT's concurrency model is single-threaded cooperative), so
// there's no write outside that thread to race against.
type FastDispatchSlot struct {
	Code CodePtr
	Hash uint64
}

// FastDispatchIndex derives the table slot a unique hash maps to: PC
// occupies the hash's low bits (loc.Descriptor.Hash), so shifting by 4
// spreads nearby instructions (4-byte aligned ARM encodings) across
// distinct slots instead of colliding them into one.
func FastDispatchIndex(hash uint64) uint64 {
	return (hash >> 4) & FastDispatchMask
}

// FastDispatchLookup returns the cached code for hash, if the slot it
// maps to currently holds it.
func (s *State) FastDispatchLookup(hash uint64) (CodePtr, bool) {
	slot := &s.FastDispatch[FastDispatchIndex(hash)]
	if slot.Hash != hash || slot.Code == NilCodePtr {
		return NilCodePtr, false
	}
	return slot.Code, true
}

// FastDispatchStore records code as the cached entrypoint for hash,
// overwriting whatever previously occupied that slot.
func (s *State) FastDispatchStore(hash uint64, code CodePtr) {
	slot := &s.FastDispatch[FastDispatchIndex(hash)]
	slot.Code = code
	slot.Hash = hash
}

// FastDispatchClear empties the whole table. Required on every cache
// flush (full or partial) since a slot may now point at reclaimed or
// patched-over code.
func (s *State) FastDispatchClear() {
	s.FastDispatch = [FastDispatchSize]FastDispatchSlot{}
}
