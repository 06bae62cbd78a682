// Package callbacks implements the consumer-provided capability set (the
// "UserCallbacks") and its devirtualized form: a plain struct of captured
// function values that implements emit.Callbacks directly, rather than an
// interface re-dispatched on every call. Per design note "Dispatch through
// virtual calls", the vtable is the public, consumer-facing shape; the
// translator and emitter only ever see the devirtualized thunks.
package callbacks

import (
	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/optimize"
	"github.com/vexdbt/armjit/internal/translate"
)

// ExceptionKind mirrors internal/translate's exception constants for the
// consumer-facing callback signature, so callers don't need to import an
// internal package to receive one.
type ExceptionKind = uint8

// UserCallbacks is the abstract capability set a consumer supplies:
// memory_read_code, memory_read/write_{8,16,32,64}, add_ticks,
// get_ticks_remaining, call_supervisor, exception_raised,
// is_read_only_memory. Only the 32-bit data-access pair has a call site
// today — the translator this repository builds on emits no 8/16/64-bit
// load/store handler — so those fields are carried for completeness of the
// consumer-facing shape and to let a future handler wire them without an
// interface change, but nothing in this package calls them yet.
type UserCallbacks struct {
	MemoryReadCode func(vaddr uint32) uint32

	MemoryRead8   func(addr uint32) uint8
	MemoryRead16  func(addr uint32) uint16
	MemoryRead32  func(addr uint32) uint32
	MemoryRead64  func(addr uint32) uint64
	MemoryWrite8  func(addr uint32, value uint8)
	MemoryWrite16 func(addr uint32, value uint16)
	MemoryWrite32 func(addr uint32, value uint32)
	MemoryWrite64 func(addr uint32, value uint64)

	AddTicks          func(n uint64)
	GetTicksRemaining func() uint64

	CallSupervisor  func(pc uint32, imm uint32)
	ExceptionRaised func(pc uint32, kind ExceptionKind)

	IsReadOnlyMemory func(vaddr uint32) bool
}

// Devirtualized holds UserCallbacks' function values copied out at
// construction time into a concrete struct. A Go interface method call is
// already a single indirect jump through the interface's itable, not a
// chain of virtual lookups, but closing over the fields directly (rather
// than keeping the *UserCallbacks pointer and indexing into it per call)
// is the idiomatic-Go rendering of "devirtualized thunk": every call site
// below reads a struct field once and calls it, with no further indirection
// through the consumer's original vtable.
type Devirtualized struct {
	fetch             translate.FetchFunc
	read32            func(addr uint32) uint32
	write32           func(addr uint32, value uint32)
	isReadOnly        func(addr uint32) bool
	exceptionRaised   func(pc uint32, kind uint8)
	callSupervisor    func(pc uint32, imm uint32)
	addTicks          func(n uint64)
	getTicksRemaining func() uint64
}

// New devirtualizes uc into the concrete callback set the translator,
// optimizer, and emitter consume.
func New(uc UserCallbacks) *Devirtualized {
	return &Devirtualized{
		fetch:             uc.MemoryReadCode,
		read32:            uc.MemoryRead32,
		write32:           uc.MemoryWrite32,
		isReadOnly:        uc.IsReadOnlyMemory,
		exceptionRaised:   uc.ExceptionRaised,
		callSupervisor:    uc.CallSupervisor,
		addTicks:          uc.AddTicks,
		getTicksRemaining: uc.GetTicksRemaining,
	}
}

// Fetch implements translate.FetchFunc, handed to the translator and the
// reference interpreter.
func (d *Devirtualized) Fetch(addr uint32) uint32 { return d.fetch(addr) }

// ConstMemoryReader implements optimize.ConstMemoryReader for the
// constant-memory-read optimization pass: a read-only page's current value
// can be folded into the IR as a constant.
func (d *Devirtualized) ConstMemoryReader() optimize.ConstMemoryReader {
	return func(addr uint32) (uint32, bool) {
		if !d.isReadOnly(addr) {
			return 0, false
		}
		return d.read32(addr), true
	}
}

var _ emit.Callbacks = (*Devirtualized)(nil)

func (d *Devirtualized) ReadMemory32(addr uint32) uint32             { return d.read32(addr) }
func (d *Devirtualized) WriteMemory32(addr uint32, value uint32)     { d.write32(addr, value) }
func (d *Devirtualized) IsReadOnlyMemory(addr uint32) bool           { return d.isReadOnly(addr) }
func (d *Devirtualized) ExceptionRaised(pc uint32, kind uint8)       { d.exceptionRaised(pc, kind) }
func (d *Devirtualized) CallSupervisor(pc uint32, imm uint32)        { d.callSupervisor(pc, imm) }
func (d *Devirtualized) AddTicks(n uint64)                           { d.addTicks(n) }
func (d *Devirtualized) TicksRemaining() uint64                      { return d.getTicksRemaining() }
