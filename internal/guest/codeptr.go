package guest

import "unsafe"

// CodePtr is an opaque handle to emitted host code, stored directly inside
// RSB entries and (by internal/dispatch) fast-dispatch slots so the hot
// paths never need a map lookup. The guest package only stores and
// compares these; internal/emit produces them (emit.Box) and internal
// /dispatch is the sole place that resolves one back into a callable
// internal/emit.HostCode (emit.Unbox), keeping this package free of a
// dependency on the emitter.
type CodePtr unsafe.Pointer

// NilCodePtr is the zero value, meaning "no cached entry".
var NilCodePtr CodePtr
