package armisa

// This file implements the ARMv6 "media" SIMD-in-GPR instructions that the
// translator's media handlers lift directly into IR constant-folded results
// when operands are known, and that the reference interpreter (used for the
// interpreter-equivalence property) evaluates directly.

func lo16(v uint32) uint32 { return v & 0xFFFF }
func hi16(v uint32) uint32 { return v >> 16 }

func signExt16(v uint32) int32 { return int32(int16(uint16(v))) }

// SHSAX computes the ARMv6 "signed halving subtract and add with
// exchange": the low half of Rd is the halved sum of Rn's low half and
// Rm's high half; the high half of Rd is the halved difference of Rn's
// high half and Rm's low half. No flags are affected.
func SHSAX(rn, rm uint32) uint32 {
	lo := asr32(signExt16(lo16(rn))+signExt16(hi16(rm)), 1)
	hi := asr32(signExt16(hi16(rn))-signExt16(lo16(rm)), 1)
	return (uint32(hi)&0xFFFF)<<16 | uint32(lo)&0xFFFF
}

func asr32(v int32, n uint) int32 {
	// Go's >> on signed integers is already an arithmetic shift.
	return v >> n
}

// UASX computes the ARMv6 "unsigned add and subtract with exchange": the
// low half of Rd is Rn's low half minus Rm's high half (mod 2^16); the high
// half of Rd is Rn's high half plus Rm's low half (mod 2^16). GE reports
// the four-bit CPSR.GE update: GE<1:0> is set (0b11) when the low-half
// subtraction did not borrow, GE<3:2> is set when the high-half addition
// carried out of 16 bits.
func UASX(rn, rm uint32) (result uint32, ge uint8) {
	diff := lo16(rn) - hi16(rm)
	sum := hi16(rn) + lo16(rm)

	result = (sum&0xFFFF)<<16 | diff&0xFFFF

	if lo16(rn) >= hi16(rm) {
		ge |= 0x3
	}
	if sum > 0xFFFF {
		ge |= 0xC
	}
	return result, ge
}

// SMUAD computes the ARMv6 "signed dual multiply add": the sum of the two
// signed 16x16 partial products of Rn and Rm, with a 32-bit result. Q
// reports whether the addition of the two products overflowed 32-bit
// signed range (the only way SMUAD's result can overflow, since the
// individual products fit in 33 bits but are always representable and it
// is their sum that can exceed int32 range).
func SMUAD(rn, rm uint32) (result uint32, q bool) {
	p1 := int64(signExt16(lo16(rn))) * int64(signExt16(lo16(rm)))
	p2 := int64(signExt16(hi16(rn))) * int64(signExt16(hi16(rm)))
	sum := p1 + p2
	if sum > 0x7FFFFFFF || sum < -0x80000000 {
		q = true
	}
	return uint32(int32(sum)), q
}
