package ir

import "github.com/vexdbt/armjit/internal/loc"

// Terminal is the tagged last action of a basic block. Terminals nest
// (e.g. CheckHalt{PopRSBHint{}}): CheckHalt, If and CheckBit hold further
// terminals in their Inner/Then/Else fields.
type Terminal interface {
	terminal()
}

// Interpret bails out to the reference interpreter at a given location.
// The translator emits it only for a word neither decode table matches; it
// emits none for UNPREDICTABLE encodings, whatever the policy, and the
// verification pass panics on malformed IR rather than falling back to it.
type Interpret struct{ At loc.Descriptor }

// ReturnToDispatch hands control back to the dispatcher unconditionally.
type ReturnToDispatch struct{}

// LinkBlock transfers to Target. The emitter never patches a direct jump
// to Target, even when Target is already cached: the compiled terminal
// returns Target to the dispatcher, which looks it up like any other next
// location.
type LinkBlock struct{ Target loc.Descriptor }

// LinkBlockFast is LinkBlock plus a CheckHalt poll at the boundary
// (spec §5: "emitted code polls halt_requested ... at every
// LinkBlockFast boundary").
type LinkBlockFast struct{ Target loc.Descriptor }

// PopRSBHint attempts the RSB fast path before falling back to dispatch.
type PopRSBHint struct{}

// FastDispatchHint attempts the fast-dispatch table before falling back
// to a full cache lookup.
type FastDispatchHint struct{}

// If branches on Cond (a boolean-typed operand reference), taking Then or
// Else.
type If struct {
	Cond       Operand
	Then, Else Terminal
}

// CheckBit tests the guest exclusive-access monitor bit (set by a guest
// LDREX and cleared by an intervening STREX or external event) and
// branches accordingly; used when translating exclusive-access sequences.
type CheckBit struct{ Then, Else Terminal }

// CheckHalt polls HaltRequested; on a set flag, returns to the dispatcher
// instead of executing Inner.
type CheckHalt struct{ Inner Terminal }

func (Interpret) terminal()        {}
func (ReturnToDispatch) terminal() {}
func (LinkBlock) terminal()        {}
func (LinkBlockFast) terminal()    {}
func (PopRSBHint) terminal()       {}
func (FastDispatchHint) terminal() {}
func (If) terminal()               {}
func (CheckBit) terminal()         {}
func (CheckHalt) terminal()        {}
