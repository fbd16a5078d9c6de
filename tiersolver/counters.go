package tiersolver

import (
	"math"
	"sync/atomic"
)

// maxChildren is the widest child count the counter array accepts. The
// original solver capped this at 254 to fit one unsigned byte per
// position; Go's sync/atomic has no native 8-bit primitive, so the cell is
// widened to 32 bits (per the design notes' own guidance to widen on
// platforms lacking a narrow atomic), but the 254 cap is kept as the
// documented contract games must honor.
const maxChildren = 254

// illegalChildren marks a position as illegal or non-canonical: it is
// skipped by every phase after the scan.
const illegalChildren = math.MaxUint32

// counters is the dense undecided_children array: one atomic cell per
// position in the tier being solved.
type counters struct {
	cells []atomic.Uint32
}

func newCounters(size int64) *counters {
	return &counters{cells: make([]atomic.Uint32, size)}
}

func (c *counters) setIllegal(i int64) {
	c.cells[i].Store(illegalChildren)
}

func (c *counters) isIllegal(i int64) bool {
	return c.cells[i].Load() == illegalChildren
}

func (c *counters) set(i int64, n int) {
	c.cells[i].Store(uint32(n))
}

func (c *counters) get(i int64) uint32 {
	return c.cells[i].Load()
}

// exchangeToZero atomically sets cell i to zero and returns its previous
// value. Used on the lose/tie propagation path: any still-undecided
// parent reached via a lose or tie child has its best achievable value
// pinned by that single event, so the whole remaining count collapses to
// zero in one atomic op.
func (c *counters) exchangeToZero(i int64) uint32 {
	return c.cells[i].Swap(0)
}

// decrementIfNonZero atomically decrements cell i if and only if it is
// currently non-zero, and returns the value observed immediately before
// the decrement (0 if the cell was already zero). The CAS loop guarantees
// that exactly one caller observes the 1->0 transition.
func (c *counters) decrementIfNonZero(i int64) uint32 {
	cell := &c.cells[i]
	for {
		current := cell.Load()
		if current == 0 {
			return 0
		}
		if cell.CompareAndSwap(current, current-1) {
			return current
		}
	}
}
