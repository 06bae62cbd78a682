package guest

import "github.com/vexdbt/armjit/internal/loc"

// tBit is the CPSR.T (Thumb) bit mask within CtrlLow.
const tBit = 1 << 5

// eBit is the CPSR.E (endianness) bit mask within CtrlLow.
const eBit = 1 << 9

// CurrentLocation derives the location descriptor naming the translation
// unit starting at the current PC and mode bits. The dispatcher calls this
// at every block boundary to compute the unique hash used for RSB,
// fast-dispatch and full cache lookups.
func (s *State) CurrentLocation() loc.Descriptor {
	return loc.Descriptor{
		PC:             s.Regs[15],
		Thumb:          s.CtrlLow&tBit != 0,
		BigEndian:      s.CtrlLow&eBit != 0,
		ITState:        s.ITState,
		FPRoundingMode: s.FPRMode,
		FPVectorLength: s.FPLen,
		FPVectorStride: s.FPStride,
	}
}

// SetLocation writes a descriptor's PC and mode bits back into the guest
// state. Used when a branch target names a new location descriptor
// directly (e.g. after an interworking branch that changes Thumb state).
func (s *State) SetLocation(d loc.Descriptor) {
	s.Regs[15] = d.PC
	if d.Thumb {
		s.CtrlLow |= tBit
	} else {
		s.CtrlLow &^= tBit
	}
	if d.BigEndian {
		s.CtrlLow |= eBit
	} else {
		s.CtrlLow &^= eBit
	}
	s.ITState = d.ITState
	s.FPRMode = d.FPRoundingMode
	s.FPLen = d.FPVectorLength
	s.FPStride = d.FPVectorStride
}
