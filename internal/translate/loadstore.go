package translate

import (
	"github.com/vexdbt/armjit/internal/decode"
	"github.com/vexdbt/armjit/internal/ir"
)

// registerLoadStore wires the single-register word load/store forms:
// immediate offset and register offset, pre-indexed, always writing back
// through the base register's current value (no base-register update —
// LDR/STR only, not the writeback-addressing-mode family).
func registerLoadStore(t *decode.Table[handler]) {
	mustAdd(t, "ldr.i", "cccc010puzw1nnnnddddvvvvvvvvvvvv", makeLoadStoreHandler(true, false))
	mustAdd(t, "str.i", "cccc010puzw0nnnnddddvvvvvvvvvvvv", makeLoadStoreHandler(false, false))
	mustAdd(t, "ldr.r", "cccc011puzw1nnnndddd00000000mmmm", makeLoadStoreHandler(true, true))
	mustAdd(t, "str.r", "cccc011puzw0nnnndddd00000000mmmm", makeLoadStoreHandler(false, true))
}

func makeLoadStoreHandler(isLoad, regOffset bool) handler {
	return func(c *context, f decode.Extracted) outcome {
		b := c.b
		base := b.GetRegister(uint8(f.Get('n')))

		var offset ir.Operand
		if regOffset {
			offset = b.GetRegister(uint8(f.Get('m')))
		} else {
			offset = ir.Const(uint64(f.Get('v')))
		}

		var addr ir.Operand
		if f.Get('u') != 0 {
			addr = b.Add(base, offset)
		} else {
			addr = b.Sub(base, offset)
		}

		rd := uint8(f.Get('d'))
		if isLoad {
			value := b.ReadMemory32(addr)
			b.SetRegister(rd, value)
			if rd == 15 {
				return stop(ir.CheckHalt{Inner: ir.ReturnToDispatch{}})
			}
		} else {
			b.WriteMemory32(addr, b.GetRegister(rd))
		}
		return cont()
	}
}
