// Package jitstats exposes JIT runtime counters — translation count, cache
// hit rate, flush count, and instructions-per-second — the way
// JetSetIlly-Gopher2600/statsview wires github.com/go-echarts/statsview:
// a //go:build-gated HTTP dashboard that a consumer opts into explicitly,
// never started by default since armjit is a library, not a process.
package jitstats

import (
	"sync/atomic"
	"time"
)

// Counters holds the running totals the façade updates as it drives the
// dispatcher. All fields are safe for concurrent use; the owner thread
// updates them while Run looks up, translates and retires blocks and when
// it services invalidation, and a stats viewer goroutine only reads.
type Counters struct {
	Translations  atomic.Uint64
	CacheHits     atomic.Uint64
	CacheMisses   atomic.Uint64
	FlushCount    atomic.Uint64
	Instructions  atomic.Uint64
	startedAt     atomic.Int64
}

// New returns a zeroed Counters with its MIPS clock started now.
func New() *Counters {
	c := &Counters{}
	c.startedAt.Store(time.Now().UnixNano())
	return c
}

// RecordTranslation increments the translation counter — called once per
// cache miss that reaches the translator.
func (c *Counters) RecordTranslation() { c.Translations.Add(1) }

// RecordLookup increments the cache hit or miss counter for one
// get-or-translate call.
func (c *Counters) RecordLookup(hit bool) {
	if hit {
		c.CacheHits.Add(1)
	} else {
		c.CacheMisses.Add(1)
	}
}

// RecordFlush increments the flush counter — called once per
// invalidate.Controller.Service call that actually mutated the cache.
func (c *Counters) RecordFlush() { c.FlushCount.Add(1) }

// RecordInstructions adds n retired guest instructions to the running
// total, the numerator for MIPS.
func (c *Counters) RecordInstructions(n uint64) { c.Instructions.Add(n) }

// HitRate returns the cache hit rate over the counters' lifetime, or 0 if
// no lookups have happened yet.
func (c *Counters) HitRate() float64 {
	hits := c.CacheHits.Load()
	total := hits + c.CacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// MIPS returns retired guest instructions per second since New.
func (c *Counters) MIPS() float64 {
	elapsed := time.Since(time.Unix(0, c.startedAt.Load())).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(c.Instructions.Load()) / elapsed / 1e6
}
