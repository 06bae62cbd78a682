package armjit

import "fmt"

// PreconditionViolated is the error taxonomy's fatal-to-the-caller class:
// a re-entrant Run, or Reset/LoadContext while executing. Matches
// cpu_ie64.go's fatal-diagnostic-then-stop handling of its own
// precondition failures, generalized into Go's panic/recover idiom since
// armjit is a library embedded in a host process, not a process of its
// own that can just os.Exit.
type PreconditionViolated struct {
	Op     string
	Reason string
}

func (e *PreconditionViolated) Error() string {
	return fmt.Sprintf("armjit: precondition violated in %s: %s", e.Op, e.Reason)
}

func panicPrecondition(op, reason string) {
	panic(&PreconditionViolated{Op: op, Reason: reason})
}

// VerificationFailure is the error taxonomy's fatal-bug class: an
// optimizer or IR invariant the implementation itself is supposed to
// guarantee was observed broken. There is no recovery; this is always a
// bug in armjit, never a guest-code or consumer-callback condition.
type VerificationFailure struct {
	Component string
	Reason    string
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("armjit: verification failure in %s: %s", e.Component, e.Reason)
}

func panicVerification(component, reason string) {
	panic(&VerificationFailure{Component: component, Reason: reason})
}
