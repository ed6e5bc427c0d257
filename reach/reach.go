// Package reach implements block-decomposed reachability with
// property checking: section 4.E of the specification. It propagates
// per-block over-approximations of the reachable set forward in time,
// checking a caller-supplied safety property at every step, and
// reports the earliest time index at which the property fails (or 0
// if it never does). The loop shape - iterate, evaluate, optionally
// report, advance - follows optimize.BaseOptimizer's Run/PrintLine
// structure, generalized from "iterate a likelihood optimizer" to
// "iterate a reachable-set propagation."
package reach

import (
	"time"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/reacherr"
	"bitbucket.org/Davydov/reach/sets"
)

// Property is a safety predicate evaluated on the Cartesian product
// of the queried blocks at each step.
type Property func(sets.Set) bool

// OverApproxInputs lets the caller simplify the accumulated input
// term Wat[i] between steps, e.g. by hull-style approximation, to
// keep its lazy representation from growing without bound over a long
// horizon. The core treats it as an opaque pure function.
type OverApproxInputs func(stepIndex, blockIndex int, s sets.Set) (sets.Set, error)

// Options configures CheckBlocks.
type Options struct {
	// Blocks selects which partition elements the property is
	// evaluated over, as indices into Partition. May be a strict
	// subset of {0..len(Partition)-1}.
	Blocks []int
	// Partition is the covering of {1..n} that X0 and every X_k
	// are expressed over.
	Partition Partition
	// Eager stops at the first violating step and returns it; when
	// false, the loop still returns the earliest violation but
	// keeps computing every step through N (see the specification's
	// open question in section 9: this is not "optimized away").
	Eager bool
	// Property is the safety predicate.
	Property Property
	// OverApprox simplifies Wat[i] between steps. Required when u
	// is non-nil; ignored when u is nil.
	OverApprox OverApproxInputs
	// SparseAware skips all-zero Phi^k[b_i,b_j] sub-blocks during
	// accumulation, the "sparse fast path" of section 4.E. Exercised
	// with dense Phi (no sparse matrix type was available in this
	// repository's dependency pack; see DESIGN.md) and with lazy Phi
	// alike, giving the specification's four (dense/sparse x
	// lazy/eager) variants as two axes (SparseAware, Phi's own
	// Dense-vs-Lazy dynamic type) rather than four distinct types.
	SparseAware bool
	// Parallel selects the parallel column-extraction routine on
	// lazy backends.
	Parallel bool
	// Progress is a nullable write-only progress sink.
	Progress Sink
}

// CheckBlocks iterates the block-decomposed reachable set from k=1 to
// N, evaluating Property at every step, and returns the earliest
// violating step (or 0 if Property holds throughout). x0 holds one
// set per partition block, in partition order (i.e. len(x0) ==
// len(opts.Partition)). u is the (already discretized) input
// sequence V; pass nil when the system has no input.
func CheckBlocks(phi expmat.MatrixExp, x0 []sets.Set, u input.NonDeterministicInput, n, N int, opts Options) (int, error) {
	if len(x0) != len(opts.Partition) {
		return 0, reacherr.New(reacherr.DimensionMismatch, "len(X0)=%d != len(partition)=%d", len(x0), len(opts.Partition))
	}
	if err := validateCovering(opts.Partition, n); err != nil {
		return 0, err
	}
	progress := opts.Progress
	if progress == nil {
		progress = NullSink{}
	}
	progress.Start(N, 100*time.Millisecond, "check_blocks")

	queried := make([]sets.Set, len(opts.Blocks))
	for i, j := range opts.Blocks {
		queried[i] = x0[j]
	}
	violationIndex := 0
	if !opts.Property(sets.NewCartesianProductArray(queried)) {
		if opts.Eager {
			progress.Update(1)
			return 1, nil
		}
		violationIndex = 1
	}
	progress.Update(1)
	if N == 1 {
		return violationIndex, nil
	}

	hasInput := u != nil
	var u1 sets.Set
	var w []sets.Set
	if hasInput {
		u1 = u.Start().Set()
		w = make([]sets.Set, len(opts.Blocks))
		for i, j := range opts.Blocks {
			b := opts.Partition[j]
			proj := projMatrix(b.Lo, b.Hi, n)
			mapped, err := sets.NewLinearMap(proj, u1)
			if err != nil {
				return 0, err
			}
			wi, err := opts.OverApprox(1, j, mapped)
			if err != nil {
				return 0, err
			}
			w[i] = wi
		}
	}

	advancer, err := newPhiAdvancer(phi, n)
	if err != nil {
		return 0, err
	}

	xk := make([]sets.Set, len(opts.Blocks))
	for k := 2; k <= N; k++ {
		for i, j := range opts.Blocks {
			b := opts.Partition[j]
			terms := make([]sets.Set, 0, len(opts.Partition)+1)
			for jj, bj := range opts.Partition {
				sub, err := advancer.Block(b.Lo, b.Hi, bj.Lo, bj.Hi, opts.Parallel)
				if err != nil {
					return 0, err
				}
				if opts.SparseAware && isAllZero(sub) {
					continue
				}
				mapped, err := sets.NewLinearMap(sub, x0[jj])
				if err != nil {
					return 0, err
				}
				terms = append(terms, mapped)
			}
			if hasInput {
				terms = append(terms, w[i])
			}
			xk[i] = sets.NewMinkowskiSumArray(terms)
		}

		ok := opts.Property(sets.NewCartesianProductArray(xk))
		if !ok {
			if opts.Eager {
				progress.Update(k)
				return k, nil
			}
			if violationIndex == 0 {
				violationIndex = k
			}
		}
		progress.Update(k)
		if k == N {
			break
		}

		if hasInput {
			for i, j := range opts.Blocks {
				b := opts.Partition[j]
				rowBlock, err := advancer.Rows(b.Lo, b.Hi, opts.Parallel)
				if err != nil {
					return 0, err
				}
				mapped, err := sets.NewLinearMap(rowBlock, u1)
				if err != nil {
					return 0, err
				}
				summed := sets.MinkowskiSum(w[i], mapped)
				wi, err := opts.OverApprox(k, j, summed)
				if err != nil {
					return 0, err
				}
				w[i] = wi
			}
		}

		if err := advancer.Advance(); err != nil {
			return 0, err
		}
	}

	return violationIndex, nil
}

func validateCovering(p Partition, n int) error {
	want := 0
	for i, b := range p {
		if b.Lo != want || b.Hi <= b.Lo {
			return reacherr.New(reacherr.DimensionMismatch, "partition block %d is not a valid covering element", i)
		}
		want = b.Hi
	}
	if want != n {
		return reacherr.New(reacherr.DimensionMismatch, "partition covers %d coordinates, want %d", want, n)
	}
	return nil
}

// projMatrix builds the |hi-lo| x n selection matrix extracting
// coordinates [lo,hi) from an n-vector.
func projMatrix(lo, hi, n int) *mat64.Dense {
	m := mat64.NewDense(hi-lo, n, nil)
	for k := lo; k < hi; k++ {
		m.Set(k-lo, k, 1)
	}
	return m
}

func isAllZero(m *mat64.Dense) bool {
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if m.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
