package emit

import (
	"github.com/vexdbt/armjit/internal/guest"
	"github.com/vexdbt/armjit/internal/ir"
)

// execEnv is the per-call scratch space threaded through one block's
// compiled closures: the live guest-state block, the callback vtable, and
// one scratch slot per micro-op so later ops can read an earlier op's
// result by index, mirroring the IR's own Ref-by-position addressing.
type execEnv struct {
	st     *guest.State
	cb     Callbacks
	values []uint64
}

func (e *execEnv) arg(o ir.Operand) uint64 {
	if o.IsConst {
		return o.ConstVal
	}
	return e.values[o.Ref]
}

func (e *execEnv) argBool(o ir.Operand) bool { return e.arg(o)&1 != 0 }
func (e *execEnv) arg32(o ir.Operand) uint32 { return uint32(e.arg(o)) }

// opFunc evaluates one micro-op against env, writing its result (if any)
// into env.values at the op's own index.
type opFunc func(env *execEnv, idx int)

// Compile turns an optimized basic block into one HostCode closure. cb and
// linker are captured for the lifetime of the returned closure; every
// terminal reports its outcome through Exit rather than tail-calling into
// a successor, so a long run of linked blocks is an iterative loop in
// internal/dispatch, never unbounded Go call-stack growth.
func Compile(block *ir.BasicBlock, cb Callbacks, linker Linker) HostCode {
	ops := make([]opFunc, len(block.Ops))
	for i, op := range block.Ops {
		fn := compileOp(op, linker)
		if op.HasGuard {
			guard := op.Guard
			inner := fn
			fn = func(env *execEnv, idx int) {
				if env.argBool(guard) {
					inner(env, idx)
				}
			}
		}
		ops[i] = fn
	}
	term := compileTerminal(block.Term)
	cycles := block.Cycles

	return func(st *guest.State) Exit {
		env := &execEnv{st: st, cb: cb, values: make([]uint64, len(ops))}
		for i, f := range ops {
			f(env, i)
		}
		cb.AddTicks(cycles)
		return term(env)
	}
}

// compileTerminal resolves a block's terminal into a closure producing its
// Exit. Nested terminals (CheckHalt{...}, If{...}) compile their children
// recursively at this same compile-time pass.
func compileTerminal(t ir.Terminal) func(env *execEnv) Exit {
	switch term := t.(type) {
	case ir.Interpret:
		return func(env *execEnv) Exit { return Exit{Next: term.At, Reason: ExitInterpret} }

	case ir.ReturnToDispatch:
		return func(env *execEnv) Exit {
			return Exit{Next: env.st.CurrentLocation(), Reason: ExitReturnToDispatch}
		}

	case ir.LinkBlock:
		return func(env *execEnv) Exit {
			return Exit{Next: term.Target, Reason: ExitReturnToDispatch}
		}

	case ir.LinkBlockFast:
		return func(env *execEnv) Exit {
			if env.st.HaltRequested.Load() {
				return Exit{Next: term.Target, Reason: ExitHalted}
			}
			return Exit{Next: term.Target, Reason: ExitFastDispatchHint}
		}

	case ir.PopRSBHint:
		return func(env *execEnv) Exit {
			return Exit{Next: env.st.CurrentLocation(), Reason: ExitPopRSBHint}
		}

	case ir.FastDispatchHint:
		return func(env *execEnv) Exit {
			return Exit{Next: env.st.CurrentLocation(), Reason: ExitFastDispatchHint}
		}

	case ir.If:
		thenFn := compileTerminal(term.Then)
		elseFn := compileTerminal(term.Else)
		cond := term.Cond
		return func(env *execEnv) Exit {
			if env.argBool(cond) {
				return thenFn(env)
			}
			return elseFn(env)
		}

	case ir.CheckHalt:
		inner := compileTerminal(term.Inner)
		return func(env *execEnv) Exit {
			if env.st.HaltRequested.Load() {
				return Exit{Next: env.st.CurrentLocation(), Reason: ExitHalted}
			}
			return inner(env)
		}

	case ir.CheckBit:
		panic("emit: CheckBit terminal compiled, but no translator handler emits exclusive-access instructions in this implementation")

	default:
		panic("emit: block has no terminal")
	}
}
