package armjit

import (
	"io"
	"unsafe"

	"github.com/vexdbt/armjit/internal/callbacks"
)

// Config bundles the construction-time collaborators and options a JIT
// needs, grounded on the teacher's constructor-with-collaborators
// style (NewCPU64(bus *MachineBus), NewProgramExecutor(...)) generalized
// into a functional-options constructor so optional fields don't need a
// combinatorial set of New* variants.
type Config struct {
	callbacks callbacks.UserCallbacks

	defineUnpredictableBehaviour bool
	enableFastDispatch           bool

	// pageTable is accepted for API completeness with the full consumer
	// callback/config surface but never dereferenced: this implementation
	// has no fast-memory-path component (the host exception handler for
	// fast-memory faults is explicitly out of this system's scope), so a
	// configured page table has nowhere to be wired in. See DESIGN.md.
	pageTable unsafe.Pointer

	// coprocessors is accepted for the same reason: there is no
	// coprocessor-dispatch component here, consistent with the
	// "privileged/supervisor guest modes" non-goal.
	coprocessors map[uint32]any

	logOutput io.Writer
}

// Option configures a Config. Functional options rather than exported
// struct fields so zero-value Config stays unusable on its own —
// NewConfig always runs the documented defaults first.
type Option func(*Config)

// WithCallbacks sets the required UserCallbacks capability set. Every
// other Option is optional; a Config built without this one is invalid
// and New will panic with a PreconditionViolated.
func WithCallbacks(uc callbacks.UserCallbacks) Option {
	return func(c *Config) { c.callbacks = uc }
}

// WithDefineUnpredictableBehaviour sets the translator policy bit for
// UNPREDICTABLE encodings (false by default). The bit is stored in the
// translator's Policy, but no handler reads it: every encoding translates
// the same way whichever value is set, and none bails to the reference
// interpreter because of it.
func WithDefineUnpredictableBehaviour(v bool) Option {
	return func(c *Config) { c.defineUnpredictableBehaviour = v }
}

// WithFastDispatch toggles the fast-dispatch table. Disabling it forces
// every block boundary through a full cache lookup — useful only for
// isolating fast-dispatch-table bugs, never a performance win.
func WithFastDispatch(enabled bool) Option {
	return func(c *Config) { c.enableFastDispatch = enabled }
}

// WithPageTable accepts a raw pointer for a future fast-memory path. See
// Config.pageTable's doc comment: this implementation does not use it.
func WithPageTable(ptr unsafe.Pointer) Option {
	return func(c *Config) { c.pageTable = ptr }
}

// WithCoprocessors accepts an optional coprocessor table. See
// Config.coprocessors' doc comment: this implementation does not use it.
func WithCoprocessors(m map[uint32]any) Option {
	return func(c *Config) { c.coprocessors = m }
}

// WithLogOutput directs internal/telemetry's component-tagged log lines
// to w instead of discarding them. armjit never writes to stdout on its
// own, so a consumer that wants diagnostics must opt in here.
func WithLogOutput(w io.Writer) Option {
	return func(c *Config) { c.logOutput = w }
}

// NewConfig applies opts over the documented defaults.
func NewConfig(opts ...Option) Config {
	cfg := Config{enableFastDispatch: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
