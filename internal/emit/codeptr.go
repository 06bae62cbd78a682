package emit

import (
	"unsafe"

	"github.com/vexdbt/armjit/internal/guest"
)

// Box allocates a stable home for code and returns a handle suitable for
// storage in an RSB entry or fast-dispatch slot. This is the legitimate
// half of the unsafe.Pointer idiom: boxed is a genuine heap object, and
// its address is a real object pointer, not a reinterpretation of the
// closure's own bits — Go gives no portable way to convert a func value to
// unsafe.Pointer directly, and this implementation does not attempt to.
func Box(code HostCode) guest.CodePtr {
	if code == nil {
		return guest.NilCodePtr
	}
	boxed := new(HostCode)
	*boxed = code
	return guest.CodePtr(unsafe.Pointer(boxed))
}

// Unbox recovers the HostCode a Box call produced. internal/dispatch is
// the only caller outside this package — the guest block itself never
// dereferences the handles it stores.
func Unbox(p guest.CodePtr) HostCode {
	if p == guest.NilCodePtr {
		return nil
	}
	return *(*HostCode)(unsafe.Pointer(p))
}
