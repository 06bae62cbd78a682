package translate

import (
	"fmt"
	"strings"

	"github.com/vexdbt/armjit/internal/loc"
)

// Disassemble renders every instruction starting at start, for as many
// words as the block at start actually covers, kept separate from
// translation itself the way the teacher keeps debug_disasm_ie64.go's
// mnemonic table apart from the execution opcode switch — this walks the
// decode tables directly rather than re-running the optimizer, so a
// cached block can be disassembled without touching the IR it was built
// from.
func Disassemble(start loc.Descriptor, fetch FetchFunc, sizeBytes uint32) []string {
	if sizeBytes == 0 {
		sizeBytes = 4
	}
	var lines []string
	cur := start
	end := start.PC + sizeBytes

	for cur.PC < end {
		word := fetch(cur.PC)

		var mnemonic string
		var ok bool
		if word&0xF0000000 == 0xF0000000 {
			if e, _, matched := uncondTable.Match(word); matched {
				mnemonic, ok = e.Mnemonic, true
			}
		} else {
			if e, _, matched := condTable.Match(word); matched {
				mnemonic, ok = e.Mnemonic, true
			}
		}

		if !ok {
			lines = append(lines, fmt.Sprintf("0x%08x: 0x%08x  (undecoded)", cur.PC, word))
		} else {
			name := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(mnemonic, ".i"), ".s"), ".r")
			lines = append(lines, fmt.Sprintf("0x%08x: 0x%08x  %s", cur.PC, word, name))
		}
		cur = cur.AdvancePC(4)
	}
	return lines
}
