// Package expmat provides uniform access to exp(A*delta) through
// three backends (dense direct, Pade approximant, lazy/deferred),
// following the shape of cmodel.EMatrix (which caches an
// eigendecomposition of a rate matrix Q and evaluates exp(Q*t) from
// it on demand) but generalized to the three backends the
// specification requires.
package expmat

import (
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/reacherr"
)

// Mode selects the matrix-exponential backend.
type Mode int

const (
	// Dense computes exp(A) directly into a materialized dense
	// matrix via eigendecomposition.
	Dense Mode = iota
	// Pade uses a scaling-and-squaring diagonal Pade approximant.
	Pade
	// Lazy wraps A in a LazyMatrixExp and never materializes the
	// full exponential.
	Lazy
)

func (m Mode) String() string {
	switch m {
	case Dense:
		return "dense"
	case Pade:
		return "pade"
	case Lazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// MatrixExp is the uniform contract every backend satisfies.
type MatrixExp interface {
	Dim() int
}

// DenseExp is a materialized exp(A), produced by the Dense or Pade
// backends.
type DenseExp struct {
	M *mat64.Dense
}

func (d DenseExp) Dim() int {
	r, _ := d.M.Dims()
	return r
}

// Expmat computes exp(A) using the requested backend. A is the
// already-scaled generator (the caller passes A*delta, not A).
func Expmat(A *mat64.Dense, mode Mode) (MatrixExp, error) {
	r, c := A.Dims()
	if r != c {
		return nil, reacherr.New(reacherr.DimensionMismatch, "expmat: A is %dx%d, must be square", r, c)
	}
	switch mode {
	case Dense:
		m, err := denseExp(A)
		if err != nil {
			return nil, err
		}
		return DenseExp{M: m}, nil
	case Pade:
		m, err := padeExp(A)
		if err != nil {
			return nil, err
		}
		return DenseExp{M: m}, nil
	case Lazy:
		return NewLazyMatrixExp(cloneDense(A)), nil
	default:
		return nil, reacherr.New(reacherr.InvalidApproxModel, "expmat: unknown mode %v", mode)
	}
}

// denseExp computes exp(A) via eigendecomposition, the same
// diagonalize/exponentiate-the-eigenvalues/undiagonalize pattern as
// cmodel.EMatrix.Exp, specialized to t=1 since the caller has already
// folded delta (or k*delta) into A.
func denseExp(A *mat64.Dense) (*mat64.Dense, error) {
	n, _ := A.Dims()
	var decomp mat64.Eigen
	if ok := decomp.Factorize(A, false, true); !ok {
		return nil, reacherr.New(reacherr.DomainError, "expmat: eigendecomposition failed")
	}
	v := decomp.Vectors()
	values := decomp.Values(nil)
	iv := mat64.NewDense(n, n, nil)
	if err := iv.Inverse(v); err != nil {
		return nil, err
	}
	cd := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		cd.Set(i, i, math.Exp(real(values[i])))
	}
	res := mat64.NewDense(n, n, nil)
	res.Mul(v, cd)
	res.Mul(res, iv)
	return res, nil
}

func cloneDense(A *mat64.Dense) *mat64.Dense {
	r, c := A.Dims()
	out := mat64.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, A.At(i, j))
		}
	}
	return out
}

func identity(n int) *mat64.Dense {
	out := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// infNormDense returns the max absolute row sum of A.
func infNormDense(A *mat64.Dense) float64 {
	r, c := A.Dims()
	m := 0.0
	for i := 0; i < r; i++ {
		s := 0.0
		for j := 0; j < c; j++ {
			s += math.Abs(A.At(i, j))
		}
		if s > m {
			m = s
		}
	}
	return m
}
