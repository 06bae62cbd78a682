// Package telemetry provides component-tagged structured logging, the
// library-safe generalization of the teacher's ad hoc
// fmt.Printf("IE64: ...") convention (cpu_ie64.go Execute(),
// coprocessor_manager.go): armjit is embedded, not a process, so it must
// never print to stdout on its own — every log line goes through a
// consumer-supplied io.Writer instead.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Component names the subsystem a Logger is tagged with, mirroring the
// teacher's per-subsystem Printf prefixes (here: "decode", "translate",
// "optimize", "cache", "dispatch", "invalidate" rather than "IE64").
type Component string

const (
	ComponentDecode     Component = "decode"
	ComponentTranslate  Component = "translate"
	ComponentOptimize   Component = "optimize"
	ComponentCache      Component = "cache"
	ComponentDispatch   Component = "dispatch"
	ComponentInvalidate Component = "invalidate"
)

// Logger writes timestamped, component-prefixed lines to an underlying
// writer. The zero value is not usable; construct with New.
type Logger struct {
	out       io.Writer
	component Component
}

// New returns a Logger for component writing to out. A nil out discards
// everything silently, for consumers that never configured a log sink
// (armjit.Config's default).
func New(out io.Writer, component Component) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{out: out, component: component}
}

// With returns a Logger for a different component sharing the same sink,
// the way the façade hands each internal package its own tagged logger
// over one consumer-supplied writer.
func (l *Logger) With(component Component) *Logger {
	return &Logger{out: l.out, component: component}
}

func (l *Logger) Printf(format string, args ...any) {
	fmt.Fprintf(l.out, "%s [%s] %s\n", time.Now().Format(time.RFC3339Nano), l.component, fmt.Sprintf(format, args...))
}

func (l *Logger) Println(args ...any) {
	fmt.Fprintf(l.out, "%s [%s] %s\n", time.Now().Format(time.RFC3339Nano), l.component, fmt.Sprintln(args...))
}

// Discard is a Logger that writes nowhere, suitable as a zero-config
// default collaborator (cf. the teacher's constructor-with-collaborators
// style: a missing logger is a valid, inert one, not a nil-pointer panic).
var Discard = New(io.Discard, "")

// Stderr is a convenience Logger for cmd/ tools that want teacher-style
// terminal diagnostics rather than a caller-supplied sink.
func Stderr(component Component) *Logger {
	return New(os.Stderr, component)
}
