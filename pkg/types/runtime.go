package types

import "runtime"

// numCPU is a thin indirection over runtime.NumCPU so DefaultConfig's
// worker-count heuristic stays in one place.
func numCPU() int {
	return runtime.NumCPU()
}
