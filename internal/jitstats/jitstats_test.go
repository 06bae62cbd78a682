package jitstats

import "testing"

func TestHitRateEmpty(t *testing.T) {
	c := New()
	if got := c.HitRate(); got != 0 {
		t.Fatalf("HitRate of an empty counter = %v, want 0", got)
	}
}

func TestHitRate(t *testing.T) {
	c := New()
	c.RecordLookup(true)
	c.RecordLookup(true)
	c.RecordLookup(false)

	if got := c.HitRate(); got != 2.0/3.0 {
		t.Fatalf("HitRate = %v, want %v", got, 2.0/3.0)
	}
}

func TestRecordTranslationAndFlush(t *testing.T) {
	c := New()
	c.RecordTranslation()
	c.RecordTranslation()
	c.RecordFlush()

	if got := c.Translations.Load(); got != 2 {
		t.Fatalf("Translations = %d, want 2", got)
	}
	if got := c.FlushCount.Load(); got != 1 {
		t.Fatalf("FlushCount = %d, want 1", got)
	}
}

func TestMIPSNonNegative(t *testing.T) {
	c := New()
	c.RecordInstructions(1000)
	if got := c.MIPS(); got < 0 {
		t.Fatalf("MIPS = %v, want >= 0", got)
	}
}
