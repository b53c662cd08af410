// Package debug holds build-tag controlled switches for invariant checks
// that are too expensive, or too opinionated, for release builds.
package debug

import "fmt"

// Assert panics with the formatted message when cond is false and checks are
// enabled. With checks disabled the call compiles to nothing.
func Assert(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
