package reach

import (
	"bitbucket.org/Davydov/reach/reacherr"
)

// Block is a contiguous, half-open, 0-indexed coordinate range
// [Lo,Hi) of the state space. The specification allows a partition
// element to be a UnitRange or a scalar index; NewBlock and
// NewSingletonBlock promote both to this uniform shape, following the
// design note that singletons are promoted to length-1 ranges
// internally.
type Block struct {
	Lo, Hi int
}

// Len returns the number of coordinates the block covers.
func (b Block) Len() int { return b.Hi - b.Lo }

// NewBlock builds the half-open range covering 1-indexed inclusive
// bounds [lo,hi] from the caller's perspective, i.e. 0-indexed
// [lo-1,hi).
func NewBlock(lo, hi int) Block { return Block{Lo: lo - 1, Hi: hi} }

// NewSingletonBlock builds the length-1 block covering the 1-indexed
// coordinate i.
func NewSingletonBlock(i int) Block { return Block{Lo: i - 1, Hi: i} }

// Partition is an ordered, non-overlapping, contiguous covering of
// {1..n}.
type Partition []Block

// NewPartition validates that blocks form a covering of {1..n} with
// no gaps or overlaps, in order.
func NewPartition(n int, blocks ...Block) (Partition, error) {
	want := 0
	for i, b := range blocks {
		if b.Lo != want {
			return nil, reacherr.New(reacherr.DimensionMismatch,
				"partition block %d starts at %d, expected %d (gap or overlap)", i, b.Lo+1, want+1)
		}
		if b.Hi <= b.Lo {
			return nil, reacherr.New(reacherr.DimensionMismatch, "partition block %d is empty", i)
		}
		want = b.Hi
	}
	if want != n {
		return nil, reacherr.New(reacherr.DimensionMismatch, "partition covers %d coordinates, want %d", want, n)
	}
	return Partition(blocks), nil
}
