//go:build jitstats

package jitstats

import (
	"encoding/json"
	"net/http"

	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"
)

// Addr is the local HTTP address the runtime dashboard (go-echarts/statsview's
// own built-in goroutine/heap/GC charts) listens on, named after the
// teacher's grounding file's own Address constant.
const Addr = "localhost:6460"

// jsonAddr serves jitstats' own counters — statsview's public API has no
// hook for registering an application-specific chart, so it gets a second,
// separate listener rather than fighting statsview for its own mux.
const jsonAddr = "localhost:6461"

// Launch starts both the statsview runtime dashboard and the JSON endpoint
// publishing c's JIT-specific counters. Returns the URL the dashboard is
// reachable at.
func Launch(c *Counters) string {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/jitstats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"translations": c.Translations.Load(),
			"cache_hits":   c.CacheHits.Load(),
			"cache_misses": c.CacheMisses.Load(),
			"hit_rate":     c.HitRate(),
			"flush_count":  c.FlushCount.Load(),
			"instructions": c.Instructions.Load(),
			"mips":         c.MIPS(),
		})
	})

	go func() {
		_ = http.ListenAndServe(jsonAddr, mux)
	}()

	go func() {
		viewer.SetConfiguration(viewer.WithAddr(Addr))
		mgr := statsview.New()
		mgr.Start()
	}()

	return "http://" + Addr + "/debug/statsview"
}

// Available reports whether a dashboard can be launched in this build.
func Available() bool { return true }
