// Package memguard gates large allocations against a configured fraction
// of total system memory, the way transposition_table.go sizes a search's
// hash table against pbnjay/memory.TotalMemory() before committing to a
// size.
package memguard

import (
	"fmt"
	"runtime"

	"github.com/pbnjay/memory"
)

// Budget checks the current process heap usage plus wantBytes against
// fraction of total system memory, returning an error if committing
// wantBytes more would exceed the budget.
func Budget(fraction float64, wantBytes uint64) error {
	total := memory.TotalMemory()
	if total == 0 {
		// memory.TotalMemory() returns 0 when it cannot determine system
		// memory (e.g. inside certain sandboxes); do not block on an
		// unknown budget.
		return nil
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	limit := uint64(float64(total) * fraction)
	if stats.HeapInuse+wantBytes > limit {
		return fmt.Errorf("memguard: heap in use %d bytes + requested %d bytes exceeds budget %d bytes (%.0f%% of %d total)",
			stats.HeapInuse, wantBytes, limit, fraction*100, total)
	}
	return nil
}
