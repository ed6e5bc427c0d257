package main

import (
	"github.com/gonum/matrix/mat64"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/reach"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

// explodeX0 splits a DiscreteSystem's single Omega0 (over all n
// coordinates) into one set per partition block, via a coordinate
// selector matrix for each block.
func explodeX0(ds *system.DiscreteSystem, partition reach.Partition) ([]sets.Set, error) {
	n := ds.Dim()
	out := make([]sets.Set, len(partition))
	for i, b := range partition {
		sel := mat64.NewDense(b.Len(), n, nil)
		for k := b.Lo; k < b.Hi; k++ {
			sel.Set(k-b.Lo, k, 1)
		}
		s, err := sets.NewLinearMap(sel, ds.X0)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// plotAdvancer is a minimal dense-only Phi^k stepper for the plot
// path, which only needs the diagonal blocks of Phi^k and tolerates
// materializing a lazy exponent once up front; reach.CheckBlocks' own
// phiAdvancer stays unexported since the core algorithm is the only
// caller that needs the lazy/dense/sparse-aware distinction.
type plotAdvancer struct {
	n       int
	base    *mat64.Dense
	current *mat64.Dense
}

func newAdvancer(phi expmat.MatrixExp, n int) (*plotAdvancer, error) {
	var base *mat64.Dense
	switch v := phi.(type) {
	case expmat.DenseExp:
		base = v.M
	case *expmat.LazyMatrixExp:
		m, err := v.Materialize()
		if err != nil {
			return nil, err
		}
		base = m
	default:
		base = mat64.NewDense(n, n, nil)
	}
	r, c := base.Dims()
	current := mat64.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			current.Set(i, j, base.At(i, j))
		}
	}
	return &plotAdvancer{n: n, base: base, current: current}, nil
}

func (a *plotAdvancer) block(lo1, hi1, lo2, hi2 int) (*mat64.Dense, error) {
	out := mat64.NewDense(hi1-lo1, hi2-lo2, nil)
	for i := lo1; i < hi1; i++ {
		for j := lo2; j < hi2; j++ {
			out.Set(i-lo1, j-lo2, a.current.At(i, j))
		}
	}
	return out, nil
}

func (a *plotAdvancer) advance() error {
	next := mat64.NewDense(a.n, a.n, nil)
	next.Mul(a.current, a.base)
	a.current = next
	return nil
}

// identityOverApprox is the default OverApproxInputs: it returns the
// accumulated input term unchanged, relying on the lazy set algebra
// to keep queries exact rather than bounding representation growth.
func identityOverApprox(stepIndex, blockIndex int, s sets.Set) (sets.Set, error) {
	return s, nil
}

// plotFlowpipe renders the support-function envelope of the queried
// blocks' Cartesian product along the first two standard directions
// for Phi^k applied to X0, k=0..N-1 (one point per checked step), the
// way misc/plotgamma.go renders a distribution
// curve with gonum.org/v1/plot.
func plotFlowpipe(phi expmat.MatrixExp, x0 []sets.Set, u input.NonDeterministicInput, n, nSteps int, partition reach.Partition, blocks []int, path string) error {
	queried := make([]sets.Set, len(blocks))
	for i, j := range blocks {
		queried[i] = x0[j]
	}
	dim := 0
	for _, s := range queried {
		dim += s.Dim()
	}
	dirX := make([]float64, dim)
	dirY := make([]float64, dim)
	if dim > 0 {
		dirX[0] = 1
	}
	if dim > 1 {
		dirY[1] = 1
	}

	p := plot.New()
	pts := make(plotter.XYs, nSteps)

	cur := make([]sets.Set, len(blocks))
	copy(cur, queried)
	full := sets.NewCartesianProductArray(cur)
	pts[0].X = full.Support(dirX)
	pts[0].Y = full.Support(dirY)

	advancer, err := newAdvancer(phi, n)
	if err != nil {
		return err
	}
	for k := 1; k < nSteps; k++ {
		for i := range cur {
			b := partition[blocks[i]]
			sub, err := advancer.block(b.Lo, b.Hi, b.Lo, b.Hi)
			if err != nil {
				return err
			}
			mapped, err := sets.NewLinearMap(sub, queried[i])
			if err != nil {
				return err
			}
			cur[i] = mapped
		}
		full = sets.NewCartesianProductArray(cur)
		pts[k].X = full.Support(dirX)
		pts[k].Y = full.Support(dirY)
		if err := advancer.advance(); err != nil {
			return err
		}
	}

	if err := plotutil.AddLinePoints(p, "flowpipe", pts); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
