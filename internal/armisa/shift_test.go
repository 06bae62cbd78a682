package armisa

import "testing"

func TestShiftLSLBasic(t *testing.T) {
	result, carry := Shift(0x00000001, ShiftLSL, 4, false)
	if result != 0x10 || carry {
		t.Fatalf("LSL #4 = 0x%x carry=%v, want 0x10 carry=false", result, carry)
	}
}

func TestShiftLSLBy32(t *testing.T) {
	result, carry := Shift(0x00000001, ShiftLSL, 32, false)
	if result != 0 || !carry {
		t.Fatalf("LSL #32 of 1 = 0x%x carry=%v, want 0 carry=true", result, carry)
	}
}

func TestShiftLSRBy32(t *testing.T) {
	result, carry := Shift(0x80000000, ShiftLSR, 32, false)
	if result != 0 || !carry {
		t.Fatalf("LSR #32 of 0x80000000 = 0x%x carry=%v, want 0 carry=true", result, carry)
	}
}

func TestShiftASRNegative(t *testing.T) {
	result, carry := Shift(0x80000000, ShiftASR, 4, false)
	if want := uint32(0xF8000000); result != want {
		t.Fatalf("ASR #4 of 0x80000000 = 0x%x, want 0x%x", result, want)
	}
	if carry {
		t.Error("ASR #4 of 0x80000000 carry out should be clear")
	}
}

func TestShiftASRBy32AllOnesWhenNegative(t *testing.T) {
	result, carry := Shift(0x80000000, ShiftASR, 32, false)
	if result != 0xFFFFFFFF || !carry {
		t.Fatalf("ASR #32 of negative = 0x%x carry=%v, want 0xFFFFFFFF carry=true", result, carry)
	}
}

func TestShiftRORWraps(t *testing.T) {
	result, _ := Shift(0x00000001, ShiftROR, 1, false)
	if want := uint32(0x80000000); result != want {
		t.Fatalf("ROR #1 of 1 = 0x%x, want 0x%x", result, want)
	}
}

func TestShiftRORAmountZeroIsRRX(t *testing.T) {
	result, carry := Shift(0x00000002, ShiftROR, 0, true)
	if want := uint32(0x80000001); result != want {
		t.Fatalf("RRX of 2 with carry-in = 0x%x, want 0x%x", result, want)
	}
	if carry {
		t.Error("RRX of an even value should produce carry-out clear")
	}
}
