// Package frontier implements the bucketed, append-only store of solved-
// but-unprocessed positions described in the tier solver's data model:
// one Frontier per worker thread, partitioned by remoteness and, within a
// remoteness bucket, grouped by originating child-tier index.
package frontier

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/tiergraph/solver/gameapi"
	"github.com/tiergraph/solver/internal/memguard"
)

// record bytes, used only to size the memory-budget check in Add.
const recordSize = 8 // gameapi.Position is an int64

type bucket struct {
	positions []gameapi.Position
	// counts holds per-child-index insert counts until AccumulateDividers
	// turns it into a prefix sum (dividers[i] = records with child index
	// <= i).
	counts []int64
	freed  bool
}

// Frontier holds one thread's share of solved positions awaiting
// propagation to their parents. It is not safe for concurrent use; callers
// run one Frontier per worker goroutine.
type Frontier struct {
	memoryFraction int
	numDividers    int
	buckets        []bucket
}

// New allocates a Frontier with numDividers child-tier slots per bucket and
// one bucket per remoteness in [0, remotenessMax]. memoryFractionPercent
// (0-100) gates growth against system memory; pass 0 to disable the check
// (tests typically do). remotenessMax is clamped to gameapi.RemotenessMax,
// the structural ceiling the wire format can represent.
func New(numDividers int, memoryFractionPercent int, remotenessMax gameapi.Remoteness) *Frontier {
	if remotenessMax > gameapi.RemotenessMax {
		remotenessMax = gameapi.RemotenessMax
	}
	if remotenessMax < 0 {
		remotenessMax = 0
	}
	f := &Frontier{
		numDividers:    numDividers,
		memoryFraction: memoryFractionPercent,
		buckets:        make([]bucket, remotenessMax+1),
	}
	for i := range f.buckets {
		f.buckets[i].counts = make([]int64, numDividers)
	}
	return f
}

// Add appends position into the bucket for remoteness, tagged with
// childIndex. Callers must call Add with non-decreasing childIndex within
// a single remoteness bucket; this is guaranteed by the tier-solver's
// phase ordering, not enforced here.
func (f *Frontier) Add(position gameapi.Position, remoteness gameapi.Remoteness, childIndex int) error {
	if remoteness < 0 || int(remoteness) >= len(f.buckets) {
		return fmt.Errorf("frontier: remoteness %d out of range [0, %d]", remoteness, len(f.buckets)-1)
	}
	if childIndex < 0 || childIndex >= f.numDividers {
		return fmt.Errorf("frontier: child index %d out of range [0, %d)", childIndex, f.numDividers)
	}
	b := &f.buckets[remoteness]
	if len(b.positions) == cap(b.positions) && f.memoryFraction > 0 {
		want := uint64(max64(int64(cap(b.positions)), 64)) * recordSize
		if err := memguard.Budget(float64(f.memoryFraction)/100.0, want); err != nil {
			return err
		}
	}
	b.positions = append(b.positions, position)
	b.counts[childIndex]++
	return nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// AccumulateDividers turns every bucket's per-child insert counts into
// prefix sums, so that dividers[i] is "number of records with child index
// <= i". Must be called once, before any GetPosition/Dividers call. Add
// calls made afterwards keep the dividers correct only when they use the
// last child index, whose prefix sum they extend.
func (f *Frontier) AccumulateDividers() {
	for i := range f.buckets {
		b := &f.buckets[i]
		sum := int64(0)
		b.counts = lo.Map(b.counts, func(c int64, _ int) int64 {
			sum += c
			return sum
		})
	}
}

// BucketSize returns the number of records in the bucket for remoteness.
func (f *Frontier) BucketSize(remoteness gameapi.Remoteness) int64 {
	return int64(len(f.buckets[remoteness].positions))
}

// Dividers returns the prefix-sum dividers array for remoteness, valid
// after AccumulateDividers.
func (f *Frontier) Dividers(remoteness gameapi.Remoteness) []int64 {
	return f.buckets[remoteness].counts
}

// GetPosition reads the position at a linear offset within remoteness's
// bucket.
func (f *Frontier) GetPosition(remoteness gameapi.Remoteness, indexInBucket int64) gameapi.Position {
	return f.buckets[remoteness].positions[indexInBucket]
}

// FreeRemoteness releases the storage for a remoteness bucket once that
// level has been fully processed.
func (f *Frontier) FreeRemoteness(remoteness gameapi.Remoteness) {
	b := &f.buckets[remoteness]
	b.positions = nil
	b.counts = nil
	b.freed = true
}
