// Package dispatch implements the dispatcher (C8): the block-boundary
// state machine that tries the RSB, then the fast-dispatch table, then a
// full cache lookup (translating and emitting on a miss), and the Run loop
// that drives emitted code until halted.
package dispatch

import (
	"github.com/vexdbt/armjit/internal/cache"
	"github.com/vexdbt/armjit/internal/emit"
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/interp"
	"github.com/vexdbt/armjit/internal/jitstats"
	"github.com/vexdbt/armjit/internal/loc"
	"github.com/vexdbt/armjit/internal/optimize"
	"github.com/vexdbt/armjit/internal/translate"
)

// Dispatcher owns one JIT instance's code cache and translation pipeline.
// It implements emit.Linker so compiled OpPushRSB ops can resolve (and, on
// a miss, translate-and-emit) their return target on demand.
type Dispatcher struct {
	cache        *cache.Cache
	cb           emit.Callbacks
	fetch        translate.FetchFunc
	policy       translate.Policy
	mem          optimize.ConstMemoryReader
	interp       *interp.Interpreter
	fastDispatch bool
	stats        *jitstats.Counters
}

// New returns a dispatcher with an empty code cache. fastDispatch mirrors
// the consumer-facing enable_fast_dispatch config option (default true);
// disabling it forces every block boundary through a full cache lookup,
// leaving the RSB fast path untouched since that half of the dispatch
// state machine has no config knob in spec §6. stats may be nil, in which
// case no counters are recorded.
func New(cb emit.Callbacks, fetch translate.FetchFunc, policy translate.Policy, mem optimize.ConstMemoryReader, fastDispatch bool, stats *jitstats.Counters) *Dispatcher {
	d := &Dispatcher{
		cache:        cache.New(),
		cb:           cb,
		fetch:        fetch,
		policy:       policy,
		mem:          mem,
		fastDispatch: fastDispatch,
		stats:        stats,
	}
	// Built after d so the interpreter's own one-instruction blocks feed the
	// same stats-wrapped callbacks as every block the full lookup path
	// compiles — otherwise its ticks would retire instructions invisibly to
	// jitstats' MIPS counter.
	d.interp = interp.New(fetch, d.statsCallbacks(), policy)
	return d
}

// Cache exposes the underlying code cache to the façade, for
// invalidation/context-generation bookkeeping.
func (d *Dispatcher) Cache() *cache.Cache { return d.cache }

// Resolve implements emit.Linker: get-or-translate-and-emit, the same path
// the dispatcher's own full lookup step uses, so a stale or not-yet-seen
// target is always handled the same way whether it's reached through a
// PushRSB micro-op or an ordinary block exit.
func (d *Dispatcher) Resolve(target loc.Descriptor) emit.HostCode {
	return d.getOrTranslate(target)
}

func (d *Dispatcher) getOrTranslate(target loc.Descriptor) emit.HostCode {
	if e, ok := d.cache.Get(target); ok {
		if d.stats != nil {
			d.stats.RecordLookup(true)
		}
		return e.Code
	}
	if d.stats != nil {
		d.stats.RecordLookup(false)
		d.stats.RecordTranslation()
	}

	block := translate.Translate(target, d.fetch, d.policy)
	optimize.Run(block, d.mem)
	code := emit.Compile(block, d.statsCallbacks(), d)

	d.cache.Insert(&cache.Entry{
		Descriptor: target,
		Code:       code,
		GuestStart: block.GuestStartPC,
		GuestEnd:   block.GuestStartPC + block.GuestSizeBytes,
	})
	return code
}

// statsCallbacks wraps the consumer's Callbacks so every block's AddTicks
// report also feeds jitstats' MIPS counter — valid because this
// translator's AddCycles(1) call is made exactly once per retired guest
// instruction (see internal/translate.Translate), so the consumer-visible
// tick count and the instruction-retired count coincide. Returns the
// unwrapped Callbacks unchanged when no counters are configured.
func (d *Dispatcher) statsCallbacks() emit.Callbacks {
	if d.stats == nil {
		return d.cb
	}
	return &countingCallbacks{Callbacks: d.cb, stats: d.stats}
}

type countingCallbacks struct {
	emit.Callbacks
	stats *jitstats.Counters
}

func (c *countingCallbacks) AddTicks(n uint64) {
	c.stats.RecordInstructions(n)
	c.Callbacks.AddTicks(n)
}

// Run drives st through compiled blocks until HaltRequested is observed,
// per the spec's block-boundary state machine: try the RSB (only after a
// PopRSBHint exit), then the fast-dispatch table (when enabled), then a
// full lookup. The first block of a call, with no previous exit, skips the
// RSB and still tries the fast-dispatch table first. This is a flat
// loop, not a chain of Go calls into successive blocks' closures — no
// amount of chained LinkBlock/LinkBlockFast exits can grow the Go call
// stack, which matters most for the canonical `b .` spin loop.
func (d *Dispatcher) Run(st *guest.State) {
	hint := emit.ExitReturnToDispatch

	for {
		if st.HaltRequested.Load() {
			return
		}
		if d.cb.TicksRemaining() == 0 {
			// Tick budget exhausted: the same block-boundary return every
			// CheckHalt/LinkBlockFast already performs, just driven by the
			// consumer's cooperative timeout instead of halt_requested.
			return
		}

		here := st.CurrentLocation()
		hash := here.Hash()

		code, ok := d.fastPath(st, hash, hint)
		if !ok {
			code = d.getOrTranslate(here)
			if d.fastDispatch {
				st.FastDispatchStore(hash, emit.Box(code))
			}
		}

		exit := code(st)

		switch exit.Reason {
		case emit.ExitHalted:
			return
		case emit.ExitInterpret:
			d.interp.Step(st, exit.Next)
			hint = emit.ExitReturnToDispatch
		default:
			st.SetLocation(exit.Next)
			hint = exit.Reason
		}
	}
}

// fastPath tries the dispatcher's two cheap paths in the spec's literal
// order: step 1 (RSB), only when the previous block's exit hinted a
// PopRSBHint (every other exit reason has nothing pushed for this hash to
// pop); then step 2 (fast-dispatch table), unconditionally on every entry
// to enter_dispatch that didn't already hit the RSB — not just the ones
// hinted ExitFastDispatchHint — since a slot warmed by some earlier
// LinkBlockFast elsewhere is just as valid a hit on a ReturnToDispatch,
// BX/BLX, SVC, or unmatched-encoding exit as on the block that warmed it.
func (d *Dispatcher) fastPath(st *guest.State, hash uint64, hint emit.ExitReason) (emit.HostCode, bool) {
	if hint == emit.ExitPopRSBHint {
		if ptr, ok := st.PopRSBHint(hash); ok {
			return emit.Unbox(ptr), true
		}
	}
	if d.fastDispatch {
		if ptr, ok := st.FastDispatchLookup(hash); ok {
			return emit.Unbox(ptr), true
		}
	}
	return nil, false
}
