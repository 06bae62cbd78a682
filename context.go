package armjit

// Context is a serializable snapshot of the guest-state block plus the
// cache generation at save time, per spec §4.6/§6. No code pointers are
// ever persisted — the RSB and fast-dispatch table are deliberately not
// part of this struct — so a Context is safe to marshal with any stdlib
// codec a consumer picks (json, gob) and reload into a fresh process.
type Context struct {
	Regs    [16]uint32
	ExtRegs [64]uint32

	N, Z, C, V, Q bool
	GE            uint8
	ITState       uint8
	CtrlLow       uint32

	FPRMode, FPLen, FPStride, FPExcept uint8
	FPN, FPZ, FPC, FPV                 bool

	// Generation records the code-cache generation at save time. LoadContext
	// compares this against the live cache generation to decide whether the
	// live RSB can be trusted as-is or must be reset.
	Generation uint64
}

// SaveContext snapshots the guest-state block and the current cache
// generation. Safe to call only while not executing, matching every other
// direct guest-state accessor.
func (j *JIT) SaveContext() Context {
	s := j.state
	return Context{
		Regs:       s.Regs,
		ExtRegs:    s.ExtRegs,
		N:          s.N,
		Z:          s.Z,
		C:          s.C,
		V:          s.V,
		Q:          s.Q,
		GE:         s.GE,
		ITState:    s.ITState,
		CtrlLow:    s.CtrlLow,
		FPRMode:    s.FPRMode,
		FPLen:      s.FPLen,
		FPStride:   s.FPStride,
		FPExcept:   s.FPExcept,
		FPN:        s.FPN,
		FPZ:        s.FPZ,
		FPC:        s.FPC,
		FPV:        s.FPV,
		Generation: j.dispatcher.Cache().Generation(),
	}
}

// LoadContext restores ctx into the guest-state block. If ctx's saved
// generation differs from the cache's current generation, the RSB and
// fast-dispatch table are reset — their code pointers may name
// since-reclaimed or since-patched entries — otherwise they are left
// exactly as they are, which is what spec §4.4 means by "copied through":
// nothing in ctx names a code pointer to copy, so leaving the live RSB
// untouched when the generation still matches is the correct no-op,
// satisfying the context-round-trip invariant for SaveContext immediately
// followed by LoadContext on the same JIT.
func (j *JIT) LoadContext(ctx Context) {
	if j.isExecuting.Load() {
		panicPrecondition("LoadContext", "cannot load a context while Run is executing")
	}

	s := j.state
	s.Regs = ctx.Regs
	s.ExtRegs = ctx.ExtRegs
	s.N, s.Z, s.C, s.V, s.Q = ctx.N, ctx.Z, ctx.C, ctx.V, ctx.Q
	s.GE = ctx.GE
	s.ITState = ctx.ITState
	s.CtrlLow = ctx.CtrlLow
	s.FPRMode, s.FPLen, s.FPStride, s.FPExcept = ctx.FPRMode, ctx.FPLen, ctx.FPStride, ctx.FPExcept
	s.FPN, s.FPZ, s.FPC, s.FPV = ctx.FPN, ctx.FPZ, ctx.FPC, ctx.FPV

	if ctx.Generation != j.dispatcher.Cache().Generation() {
		s.ResetRSB()
		s.FastDispatchClear()
	}
}
