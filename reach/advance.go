package reach

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/reacherr"
)

// phiAdvancer holds Phi^k and knows how to step it to Phi^(k+1),
// uniformly over the dense and lazy MatrixExp backends. The dense path
// ping-pongs between two scratch buffers so stepping never reallocates;
// the lazy path defers to LazyMatrixExp.Advance, which folds the
// original exponent back in and invalidates its materialization cache.
type phiAdvancer struct {
	n int

	// dense path
	base    *mat64.Dense // Phi, the per-step multiplier
	current *mat64.Dense // Phi^k
	scratch *mat64.Dense // ping-pong buffer for the next multiply

	// lazy path
	lazy      *expmat.LazyMatrixExp
	generator *mat64.Dense // the exponent of Phi (A*delta), re-added each Advance
}

func newPhiAdvancer(phi expmat.MatrixExp, n int) (*phiAdvancer, error) {
	switch v := phi.(type) {
	case expmat.DenseExp:
		return &phiAdvancer{
			n:       n,
			base:    v.M,
			current: cloneDense(v.M),
			scratch: mat64.NewDense(n, n, nil),
		}, nil
	case *expmat.LazyMatrixExp:
		return &phiAdvancer{
			n:         n,
			lazy:      v,
			generator: cloneDense(v.Exponent()),
		}, nil
	default:
		return nil, reacherr.New(reacherr.DimensionMismatch, "reach: unsupported MatrixExp backend %T", phi)
	}
}

// Advance steps Phi^k to Phi^(k+1).
func (a *phiAdvancer) Advance() error {
	if a.lazy != nil {
		a.lazy.Advance(a.generator)
		return nil
	}
	a.scratch.Mul(a.current, a.base)
	a.current, a.scratch = a.scratch, a.current
	return nil
}

func (a *phiAdvancer) materialized() (*mat64.Dense, error) {
	if a.lazy != nil {
		return a.lazy.Materialize()
	}
	return a.current, nil
}

// Block returns Phi^k[lo1:hi1, lo2:hi2], the sub-block mapping
// partition element lo2:hi2 into lo1:hi1.
func (a *phiAdvancer) Block(lo1, hi1, lo2, hi2 int, parallel bool) (*mat64.Dense, error) {
	if a.lazy != nil {
		cols, err := a.lazy.Columns(lo2, hi2, parallel)
		if err != nil {
			return nil, err
		}
		out := mat64.NewDense(hi1-lo1, hi2-lo2, nil)
		for i := lo1; i < hi1; i++ {
			for j := 0; j < hi2-lo2; j++ {
				out.Set(i-lo1, j, cols.At(i, j))
			}
		}
		return out, nil
	}
	m, err := a.materialized()
	if err != nil {
		return nil, err
	}
	out := mat64.NewDense(hi1-lo1, hi2-lo2, nil)
	for i := lo1; i < hi1; i++ {
		for j := lo2; j < hi2; j++ {
			out.Set(i-lo1, j-lo2, m.At(i, j))
		}
	}
	return out, nil
}

// Rows returns Phi^k[lo:hi, :], the full row band for a block, used to
// propagate the accumulated input term.
func (a *phiAdvancer) Rows(lo, hi int, parallel bool) (*mat64.Dense, error) {
	if a.lazy != nil {
		return a.lazy.Rows(lo, hi)
	}
	m := a.current
	out := mat64.NewDense(hi-lo, a.n, nil)
	for i := lo; i < hi; i++ {
		for j := 0; j < a.n; j++ {
			out.Set(i-lo, j, m.At(i, j))
		}
	}
	return out, nil
}

func cloneDense(m *mat64.Dense) *mat64.Dense {
	r, c := m.Dims()
	out := mat64.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
