// Package armjit is the public façade (C9) for the ARM32-on-host dynamic
// binary translator: a single embeddable type that owns one guest-state
// block, one code cache, and the dispatcher driving them, exposing the
// handful of operations spec §4.6 names (run, halt, clear_cache,
// invalidate_range, reset, context save/load, disassemble) plus direct
// accessors into the guest-state block.
package armjit

import (
	"sync/atomic"

	"github.com/vexdbt/armjit/internal/callbacks"
	"github.com/vexdbt/armjit/internal/dispatch"
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/invalidate"
	"github.com/vexdbt/armjit/internal/jitstats"
	"github.com/vexdbt/armjit/internal/loc"
	"github.com/vexdbt/armjit/internal/telemetry"
	"github.com/vexdbt/armjit/internal/translate"
)

// JIT is the public façade a consumer embeds. Per design note
// "Pointer-to-self and cyclic references", JIT holds the is_executing flag
// itself rather than an internal implementation record holding a
// back-pointer to JIT; the dispatcher and invalidation controller are
// handed only the capability handles they need (*guest.State,
// *cache.Cache), never *JIT.
type JIT struct {
	cfg         Config
	state       *guest.State
	dispatcher  *dispatch.Dispatcher
	invalidator *invalidate.Controller
	cb          *callbacks.Devirtualized

	isExecuting atomic.Bool

	log   *telemetry.Logger
	Stats *jitstats.Counters
}

// New constructs a JIT from cfg. Panics with PreconditionViolated if cfg
// was built without WithCallbacks — callbacks is the one required option
// (spec §6: "callbacks: required").
func New(cfg Config) *JIT {
	if cfg.callbacks.MemoryReadCode == nil {
		panicPrecondition("New", "Config must set WithCallbacks before constructing a JIT")
	}

	cb := callbacks.New(cfg.callbacks)
	policy := translate.Policy{DefineUnpredictableBehaviour: cfg.defineUnpredictableBehaviour}
	stats := jitstats.New()

	j := &JIT{
		cfg:         cfg,
		state:       guest.New(),
		invalidator: invalidate.New(),
		cb:          cb,
		log:         telemetry.New(cfg.logOutput, telemetry.ComponentDispatch),
		Stats:       stats,
	}
	j.dispatcher = dispatch.New(cb, cb.Fetch, policy, cb.ConstMemoryReader(), cfg.enableFastDispatch, stats)
	return j
}

// Run drives the dispatcher until halted or the tick budget runs out, per
// spec §4.6: precondition !is_executing; sets is_executing, clears
// halt_requested, calls the dispatcher; on return, services any pending
// invalidation (spec §5's ordering guarantee: invalidations queued during
// Run are serviced after the call returns and before the next one begins).
func (j *JIT) Run() {
	if !j.isExecuting.CompareAndSwap(false, true) {
		panicPrecondition("Run", "Run is not re-entrant")
	}
	defer j.isExecuting.Store(false)

	j.state.HaltRequested.Store(false)
	j.log.Printf("run: starting at pc=0x%08x", j.state.Regs[15])
	j.dispatcher.Run(j.state)
	j.log.Printf("run: returned at pc=0x%08x", j.state.Regs[15])

	j.service()
}

// RunAsync launches Run on a new goroutine, supplementing the synchronous
// Run/Halt pair the way program_executor.go launches `go cpu.Execute()` —
// useful to a consumer driving armjit from inside a GUI event loop. The
// returned channel is closed once Run returns.
func (j *JIT) RunAsync() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		j.Run()
	}()
	return done
}

// Halt requests that Run return as soon as the currently executing block
// finishes. Safe to call from another goroutine, and from a callback
// invoked by emitted code on the owner goroutine itself (spec §5).
func (j *JIT) Halt() {
	j.state.HaltRequested.Store(true)
}

// ClearCache queues a full flush, serviced immediately if Run is not
// currently executing, otherwise at the next safe point after Run returns.
func (j *JIT) ClearCache() {
	j.invalidator.Clear(&j.state.HaltRequested)
	if !j.isExecuting.Load() {
		j.service()
	}
}

// InvalidateRange queues a partial flush over the closed interval
// [start, start+length-1]; same timing rules as ClearCache.
func (j *JIT) InvalidateRange(start, length uint32) {
	j.invalidator.InvalidateRange(&j.state.HaltRequested, start, length)
	if !j.isExecuting.Load() {
		j.service()
	}
}

func (j *JIT) service() {
	before := j.dispatcher.Cache().Generation()
	j.invalidator.Service(j.dispatcher.Cache(), j.state)
	if j.dispatcher.Cache().Generation() != before {
		j.Stats.RecordFlush()
	}
}

// Reset zero-initializes the guest-visible state. Precondition:
// !is_executing.
func (j *JIT) Reset() {
	if j.isExecuting.Load() {
		panicPrecondition("Reset", "cannot Reset while Run is executing")
	}
	j.state.Reset()
}

// IsExecuting reports whether Run is currently on the call stack.
func (j *JIT) IsExecuting() bool { return j.isExecuting.Load() }

// Registers returns a direct view into the 16 general-purpose guest
// registers (R0-R15). Mutation while executing is undefined, per spec §4.6.
func (j *JIT) Registers() *[16]uint32 { return &j.state.Regs }

// ExtRegisters returns a direct view into the 64 FP extension register
// slots (S0-S31 / D0-D15 / Q0-Q7 overlaid).
func (j *JIT) ExtRegisters() *[64]uint32 { return &j.state.ExtRegs }

// CPSR returns the packed 32-bit guest program status register.
func (j *JIT) CPSR() uint32 { return j.state.CPSR() }

// SetCPSR unpacks v into the guest-state block's split condition/control
// fields.
func (j *JIT) SetCPSR(v uint32) { j.state.SetCPSR(v) }

// FPSCR returns the packed 32-bit guest FP status/control register.
func (j *JIT) FPSCR() uint32 { return j.state.FPSCR() }

// SetFPSCR unpacks v into the guest-state block's split FP status fields.
func (j *JIT) SetFPSCR(v uint32) { j.state.SetFPSCR(v) }

// Disassemble renders the host code cached for d as a human-readable
// instruction listing, debugging only (spec §4.6). If d has never been
// translated, it walks the decode tables directly over guest memory
// without populating the cache, so calling this never has a translation
// side effect a consumer wouldn't expect.
func (j *JIT) Disassemble(d loc.Descriptor) []string {
	if e, ok := j.dispatcher.Cache().Get(d); ok {
		return translate.Disassemble(d, j.cb.Fetch, e.GuestEnd-e.GuestStart)
	}
	return translate.Disassemble(d, j.cb.Fetch, 4)
}
