package expmat

import (
	"github.com/gonum/matrix/mat64"
)

// LazyMatrixExp represents exp(M) without materializing it until a
// row, row range, or column range is actually queried, caching the
// materialized form (not its eigendecomposition) the way
// cmodel.EMatrix.Eigen caches V/D/iV until Set invalidates them.
//
// Advance folds in the open question from the specification: the
// source advances a lazy exponent between reachability steps by
// adding the generator to itself (Phi^k.M += Phi.M), which is only
// correct if row/column extraction re-evaluates against the updated
// exponent rather than against a stale materialization. This
// implementation makes that true by construction: Advance clears the
// cache, so the next extraction recomputes exp from the new exponent.
type LazyMatrixExp struct {
	exponent *mat64.Dense
	cached   *mat64.Dense // memoized exp(exponent); nil until needed
}

// NewLazyMatrixExp wraps exponent (the caller retains no alias to it;
// LazyMatrixExp takes ownership of the slice it was built from).
func NewLazyMatrixExp(exponent *mat64.Dense) *LazyMatrixExp {
	return &LazyMatrixExp{exponent: exponent}
}

// Dim returns the ambient dimension.
func (l *LazyMatrixExp) Dim() int {
	r, _ := l.exponent.Dims()
	return r
}

// Materialize returns exp(exponent), computing and caching it on
// first use.
func (l *LazyMatrixExp) Materialize() (*mat64.Dense, error) {
	if l.cached != nil {
		return l.cached, nil
	}
	m, err := denseExp(l.exponent)
	if err != nil {
		return nil, err
	}
	l.cached = m
	return m, nil
}

// Row returns row i of exp(exponent).
func (l *LazyMatrixExp) Row(i int) ([]float64, error) {
	m, err := l.Materialize()
	if err != nil {
		return nil, err
	}
	_, c := m.Dims()
	row := make([]float64, c)
	for j := 0; j < c; j++ {
		row[j] = m.At(i, j)
	}
	return row, nil
}

// Rows returns the row range [lo,hi) of exp(exponent) as a dense
// sub-matrix.
func (l *LazyMatrixExp) Rows(lo, hi int) (*mat64.Dense, error) {
	m, err := l.Materialize()
	if err != nil {
		return nil, err
	}
	_, c := m.Dims()
	out := mat64.NewDense(hi-lo, c, nil)
	for i := lo; i < hi; i++ {
		for j := 0; j < c; j++ {
			out.Set(i-lo, j, m.At(i, j))
		}
	}
	return out, nil
}

// Columns returns the column range [lo,hi) of exp(exponent) as a
// dense sub-matrix. When parallel is true, columns are extracted
// concurrently; the result is identical up to floating-point rounding.
func (l *LazyMatrixExp) Columns(lo, hi int, parallel bool) (*mat64.Dense, error) {
	m, err := l.Materialize()
	if err != nil {
		return nil, err
	}
	r, _ := m.Dims()
	out := mat64.NewDense(r, hi-lo, nil)
	extract := func(j int) {
		for i := 0; i < r; i++ {
			out.Set(i, j-lo, m.At(i, j))
		}
	}
	if !parallel {
		for j := lo; j < hi; j++ {
			extract(j)
		}
		return out, nil
	}
	done := make(chan struct{}, hi-lo)
	for j := lo; j < hi; j++ {
		j := j
		go func() {
			extract(j)
			done <- struct{}{}
		}()
	}
	for j := lo; j < hi; j++ {
		<-done
	}
	return out, nil
}

// Advance folds generator into the stored exponent (exponent +=
// generator) and invalidates the cached materialization, so the next
// Row/Rows/Columns call re-evaluates exp against the advanced
// exponent. Used to step Phi^k -> Phi^(k+1) when k*A*delta is the
// exponent and generator is A*delta.
func (l *LazyMatrixExp) Advance(generator *mat64.Dense) {
	l.exponent.Add(l.exponent, generator)
	l.cached = nil
}

// Exponent returns the current exponent matrix (not a copy); callers
// must not mutate it directly.
func (l *LazyMatrixExp) Exponent() *mat64.Dense { return l.exponent }
