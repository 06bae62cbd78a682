// Package emit implements the reference host-code backend (C7's
// "entrypoint" half): rather than generating real machine code — the spec
// explicitly scopes that out — it compiles each optimized basic block into
// a tree of Go closures over internal/guest.State. Running the block is
// calling the closure. Compiled blocks are never linked to each other: a
// LinkBlock/LinkBlockFast terminal returns its target to the dispatcher in
// an Exit, and the dispatcher finds the next block through its ordinary
// lookup steps, so partial invalidation needs no separate "unlink" step —
// a stale target simply isn't found by the next lookup.
package emit

import (
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/loc"
)

// HostCode is one compiled block's entrypoint: the closure-threaded
// equivalent of a machine-code entrypoint pointer.
type HostCode func(st *guest.State) Exit

// ExitReason tags why a HostCode call returned control to the dispatcher;
// every call returns one, since compiled blocks never call into each other.
type ExitReason uint8

const (
	// ExitReturnToDispatch means Next must go through a full cache lookup
	// (translating and emitting on a miss).
	ExitReturnToDispatch ExitReason = iota
	// ExitPopRSBHint means the dispatcher should try the RSB fast path for
	// Next before falling back to a full lookup.
	ExitPopRSBHint
	// ExitFastDispatchHint means the dispatcher should try the
	// fast-dispatch table for Next before falling back to a full lookup.
	ExitFastDispatchHint
	// ExitHalted means HaltRequested was observed set; Run must stop.
	ExitHalted
	// ExitInterpret means Next must be handed to the reference
	// interpreter instead of JIT-compiled code.
	ExitInterpret
)

// Exit is what every HostCode call returns: the next location and how the
// dispatcher should look it up.
type Exit struct {
	Next   loc.Descriptor
	Reason ExitReason
}

// Callbacks is the set of guest-environment operations emitted code
// invokes: memory access and the two exception-raising paths. internal
// /callbacks provides the concrete, devirtualized implementation.
type Callbacks interface {
	ReadMemory32(addr uint32) uint32
	WriteMemory32(addr uint32, value uint32)
	IsReadOnlyMemory(addr uint32) bool
	ExceptionRaised(pc uint32, kind uint8)
	CallSupervisor(pc uint32, imm uint32)

	// AddTicks and TicksRemaining implement the consumer's cooperative
	// timeout protocol: emitted code reports cycles spent on every block
	// exit, and internal/dispatch's Run loop stops calling further blocks
	// once the budget is exhausted.
	AddTicks(n uint64)
	TicksRemaining() uint64
}

// Linker resolves a location descriptor to callable code, compiling and
// caching it first if this is the first transfer to that location —
// internal/cache and internal/dispatch provide the concrete
// get-or-translate-and-emit implementation. Compile calls it only for a
// PushRSB micro-op, to box the return site's code pointer into the RSB
// ring at the moment of the call; LinkBlock/LinkBlockFast never call it
// directly — they report their target through Exit and let
// internal/dispatch's ordinary iterative loop call back in, so a long
// chain of linked blocks (the canonical case being a guest `b .` spin
// loop) can never grow the Go call stack without bound the way a direct
// tail call chain would.
type Linker interface {
	Resolve(target loc.Descriptor) HostCode
}
