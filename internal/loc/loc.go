// Package loc implements the location descriptor: the opaque fingerprint
// that uniquely names a translation unit.
package loc

// Descriptor names the start of a basic block: the guest PC plus the
// subset of mode bits that change how the same PC must be translated.
// Two descriptors with equal fields are, by construction, equal; no field
// may be added here without updating Hash.
type Descriptor struct {
	PC uint32

	// Thumb indicates the Thumb instruction set is active (CPSR.T).
	Thumb bool
	// BigEndian mirrors CPSR.E.
	BigEndian bool
	// ITState is the IT-block condition/mask byte (CPSR[15:10,26:25]).
	ITState uint8

	// FPRoundingMode is FPSCR.RMode (2 bits).
	FPRoundingMode uint8
	// FPVectorLength is FPSCR.Len (3 bits), Advanced SIMD vector length.
	FPVectorLength uint8
	// FPVectorStride is FPSCR.Stride (2 bits).
	FPVectorStride uint8
}

// AdvancePC returns a descriptor for the same mode state at PC+n, the
// standard way to name "the next instruction" without re-deriving mode bits.
func (d Descriptor) AdvancePC(n uint32) Descriptor {
	d.PC += n
	return d
}

// SetPC returns a descriptor for the same mode state at a new absolute PC,
// used when translating a taken branch target.
func (d Descriptor) SetPC(pc uint32) Descriptor {
	d.PC = pc
	return d
}

// Equal reports whether two descriptors name the same translation unit.
func (d Descriptor) Equal(o Descriptor) bool {
	return d == o
}

// Hash returns the 64-bit "unique hash" used as the RSB key and as the
// fast-dispatch table index source. It must be cheap, total, and such that
// Equal descriptors always hash equal.
//
// Layout: PC occupies the low 32 bits (dispatch code relies on this to mask
// out the fast-dispatch index cheaply); mode bits are packed into the high
// 32 bits so two descriptors differing only by mode never collide with a
// differing PC in the low bits.
func (d Descriptor) Hash() uint64 {
	var mode uint32
	if d.Thumb {
		mode |= 1 << 0
	}
	if d.BigEndian {
		mode |= 1 << 1
	}
	mode |= uint32(d.ITState) << 2
	mode |= uint32(d.FPRoundingMode) << 10
	mode |= uint32(d.FPVectorLength) << 12
	mode |= uint32(d.FPVectorStride) << 15

	return uint64(d.PC) | uint64(mode)<<32
}

// DescriptorFromHash reverses Hash. Valid because Hash packs every field of
// Descriptor losslessly into its 64 bits; used by internal/emit to recover
// a PushRSB call site's target descriptor from the hash an OpPushRSB
// micro-op carries, since the IR only threads the hash through to keep
// micro-op operands uniformly machine-word-sized.
func DescriptorFromHash(hash uint64) Descriptor {
	pc := uint32(hash)
	mode := uint32(hash >> 32)

	return Descriptor{
		PC:             pc,
		Thumb:          mode&(1<<0) != 0,
		BigEndian:      mode&(1<<1) != 0,
		ITState:        uint8(mode >> 2 & 0xFF),
		FPRoundingMode: uint8(mode >> 10 & 0x3),
		FPVectorLength: uint8(mode >> 12 & 0x7),
		FPVectorStride: uint8(mode >> 15 & 0x3),
	}
}
