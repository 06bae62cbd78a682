package translate

import (
	"github.com/vexdbt/armjit/internal/decode"
)

// registerMedia wires the ARMv6 "media" SIMD-in-GPR instructions this
// implementation supports. Their semantics are evaluated as single opaque
// pure IR ops (internal/armisa has the bit-exact arithmetic); the
// optimizer's constant-propagation pass folds them whenever both operands
// are translate-time constants.
func registerMedia(t *decode.Table[handler]) {
	mustAdd(t, "shsax", "cccc01100101nnnndddd11110101mmmm", handleSHSAX)
	mustAdd(t, "uasx", "cccc01100101nnnndddd11110011mmmm", handleUASX)
	mustAdd(t, "smuad", "cccc01110000nnnndddd11110001mmmm", handleSMUAD)
}

func handleSHSAX(c *context, f decode.Extracted) outcome {
	b := c.b
	rn := b.GetRegister(uint8(f.Get('n')))
	rm := b.GetRegister(uint8(f.Get('m')))
	b.SetRegister(uint8(f.Get('d')), b.SHSAX(rn, rm))
	return cont()
}

func handleUASX(c *context, f decode.Extracted) outcome {
	b := c.b
	rn := b.GetRegister(uint8(f.Get('n')))
	rm := b.GetRegister(uint8(f.Get('m')))
	b.SetRegister(uint8(f.Get('d')), b.UASX(rn, rm))
	b.SetGE(b.UASXGE(rn, rm))
	return cont()
}

func handleSMUAD(c *context, f decode.Extracted) outcome {
	b := c.b
	rn := b.GetRegister(uint8(f.Get('n')))
	rm := b.GetRegister(uint8(f.Get('m')))
	b.SetRegister(uint8(f.Get('d')), b.SMUAD(rn, rm))
	// Q is sticky: OR the new overflow into the current flag rather than
	// overwriting it, mirroring real QADD/SMUAD Q-flag semantics.
	b.SetQFlag(b.Or(b.GetQFlag(), b.SMUADQ(rn, rm)))
	return cont()
}
