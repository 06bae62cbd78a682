package armisa

import "testing"

func TestPassedAL(t *testing.T) {
	if !Passed(CondAL, Flags{}) {
		t.Fatal("AL must always pass")
	}
}

func TestPassedNV(t *testing.T) {
	if Passed(CondNV, Flags{N: true, Z: true, C: true, V: true}) {
		t.Fatal("NV must never pass")
	}
}

func TestPassedGE(t *testing.T) {
	cases := []struct {
		n, v bool
		want bool
	}{
		{false, false, true},
		{true, true, true},
		{true, false, false},
		{false, true, false},
	}
	for _, c := range cases {
		if got := Passed(CondGE, Flags{N: c.n, V: c.v}); got != c.want {
			t.Errorf("GE N=%v V=%v = %v, want %v", c.n, c.v, got, c.want)
		}
	}
}

func TestPassedHIAndLS(t *testing.T) {
	f := Flags{C: true, Z: false}
	if !Passed(CondHI, f) {
		t.Error("HI should pass when C set and Z clear")
	}
	if Passed(CondLS, f) {
		t.Error("LS should not pass when C set and Z clear")
	}
}

func TestCanProveFalse(t *testing.T) {
	if !CanProveFalse(CondNV) {
		t.Error("NV should be provably false")
	}
	if CanProveFalse(CondAL) {
		t.Error("AL should not be provably false")
	}
}
