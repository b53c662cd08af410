//go:build mpscdebug

package debug

// Enabled reports whether invariant checks are compiled in.
// Build with -tags=mpscdebug to turn them on.
const Enabled = true
