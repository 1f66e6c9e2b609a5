// Package invariant holds an assertion helper for conditions that are
// always programmer errors. The block store uses it to check node
// dimensions, registered block areas and allocation sizes; the free list
// and adjacency counts are not asserted. It panics rather than returning
// an error because no caller can meaningfully recover from a corrupted
// arena.
package invariant

import "fmt"

// Assert panics with a formatted message if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("invariant violated: "+format, args...))
	}
}
