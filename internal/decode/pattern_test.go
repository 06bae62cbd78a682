package decode

import "testing"

func TestCompileRejectsWrongLength(t *testing.T) {
	if _, err := Compile("0101"); err == nil {
		t.Fatal("expected an error for a pattern shorter than 32 bits")
	}
}

func TestCompileFixedBitsOnly(t *testing.T) {
	// Unconditional branch pattern, cond fixed to AL (1110).
	p, err := Compile("11101010vvvvvvvvvvvvvvvvvvvvvvvv")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !p.Matches(0xEAFFFFFE) {
		t.Fatalf("expected 0x%x to match branch-to-self encoding", uint32(0xEAFFFFFE))
	}
	if p.Matches(0x0AFFFFFE) {
		t.Fatal("a different condition field must not match a fixed-AL pattern")
	}
}

func TestCompileNamedFields(t *testing.T) {
	// Data-processing immediate form: cond/opcode/S/Rn/Rd/rotate/imm8.
	p, err := Compile("cccc001oooosnnnnddddrrrrvvvvvvvv")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	word := uint32(0xE3A0100D) // mov r1, #13
	if !p.Matches(word) {
		t.Fatalf("expected 0x%x to match the data-processing immediate pattern", word)
	}
	ext := p.Extract(word)
	if got := ext.Get('d'); got != 1 {
		t.Errorf("Rd = %d, want 1", got)
	}
	if got := ext.Get('v'); got != 0x0D {
		t.Errorf("imm8 = 0x%x, want 0x0D", got)
	}
	if got := ext.Get('o'); got != 0b1101 {
		t.Errorf("opcode = 0x%x, want 0xD (mov)", got)
	}
}

func TestGetUnknownFieldReturnsZero(t *testing.T) {
	p, err := Compile("cccc001oooosnnnnddddrrrrvvvvvvvv")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	ext := p.Extract(0xE3A0100D)
	if got := ext.Get('z'); got != 0 {
		t.Errorf("Get of an unnamed field = %d, want 0", got)
	}
}

func TestTableMatchFirstWins(t *testing.T) {
	tbl := NewConditionalTable[string]()
	if err := tbl.Add("mov", "cccc001oooosnnnnddddrrrrvvvvvvvv", "first"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entry, fields, ok := tbl.Match(0xE3A0100D)
	if !ok || entry.Mnemonic != "mov" {
		t.Fatalf("Match = %+v ok=%v, want the mov entry", entry, ok)
	}
	if fields.Get('d') != 1 {
		t.Errorf("Rd = %d, want 1", fields.Get('d'))
	}
}

func TestConditionalTableExcludesUnconditionalNibble(t *testing.T) {
	tbl := NewConditionalTable[string]()
	if err := tbl.Add("anything", "11111111111111111111111111111111", "v"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, _, ok := tbl.Match(0xFFFFFFFF); ok {
		t.Fatal("a conditional table must never match a word with top nibble 0xF")
	}
}
