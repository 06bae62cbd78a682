//go:build !jitstats

package jitstats

// Launch is a no-op when built without the jitstats tag: armjit never
// opens a network listener unless a consumer explicitly opts in at build
// time. Returns an empty URL.
func Launch(c *Counters) string { return "" }

// Available reports whether a dashboard can be launched in this build.
func Available() bool { return false }
