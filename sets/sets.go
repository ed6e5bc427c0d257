// Package sets implements the lazy convex-set algebra that
// discretize and reach are built against: a minimal, concrete stand-in
// for the external convex-set library referenced by the
// specification. Every set is an immutable value; operations such as
// MinkowskiSum or LinearMap build new (possibly lazy) values that hold
// references to their operands rather than copying them, the way
// cmodel.EMatrix caches its eigendecomposition rather than recomputing
// it on every call.
package sets

import (
	"errors"
	"math"

	"github.com/gonum/matrix/mat64"
)

// Set is the contract every convex set in this package satisfies: a
// dimension and a support function. Everything else (Minkowski sum,
// linear map, convex hull, interval hull) is built as a Set that
// evaluates its support function in terms of its operands' support
// functions, so no set is ever materialized unless the caller asks
// for a concrete Box/matrix form.
type Set interface {
	// Dim returns the ambient dimension.
	Dim() int
	// Support evaluates the support function rho_S(d) = sup_{x in S} <d,x>.
	// len(d) must equal Dim().
	Support(d []float64) float64
}

// VoidSet is the algebraic zero element of dimension n: the neutral
// element for Minkowski sum that represents "no set supplied" rather
// than the singleton {0}. Adding VoidSet to anything returns the
// other operand unchanged; its own support function is never queried
// in a well-formed computation.
type VoidSet struct{ n int }

// NewVoidSet returns the void set of dimension n.
func NewVoidSet(n int) VoidSet { return VoidSet{n: n} }

func (v VoidSet) Dim() int { return v.n }

func (v VoidSet) Support(d []float64) float64 {
	// VoidSet is only ever an operand of MinkowskiSum/LinearMap,
	// which special-case it away; querying it directly is a
	// programmer error in the caller.
	return 0
}

// ZeroSet is the singleton {0} of dimension n.
type ZeroSet struct{ n int }

// NewZeroSet returns the singleton {0} in dimension n.
func NewZeroSet(n int) ZeroSet { return ZeroSet{n: n} }

func (z ZeroSet) Dim() int { return z.n }

func (z ZeroSet) Support(d []float64) float64 { return 0 }

// IsVoid reports whether s is a VoidSet.
func IsVoid(s Set) bool {
	_, ok := s.(VoidSet)
	return ok
}

// IsZero reports whether s is a ZeroSet.
func IsZero(s Set) bool {
	_, ok := s.(ZeroSet)
	return ok
}

// IsZeroLike reports whether s behaves as an additive identity, i.e.
// is either a VoidSet or a ZeroSet.
func IsZeroLike(s Set) bool {
	return IsVoid(s) || IsZero(s)
}

// Ball2 is a Euclidean ball.
type Ball2 struct {
	Center []float64
	Radius float64
}

// NewBall2 constructs a Euclidean ball. The radius must be >= 0.
func NewBall2(center []float64, radius float64) (Ball2, error) {
	if radius < 0 {
		return Ball2{}, errors.New("sets: Ball2 radius must be >= 0")
	}
	return Ball2{Center: center, Radius: radius}, nil
}

func (b Ball2) Dim() int { return len(b.Center) }

func (b Ball2) Support(d []float64) float64 {
	return dot(b.Center, d) + b.Radius*norm2(d)
}

// BallInf is an infinity-norm ball (an axis-aligned box of uniform
// radius centered at Center).
type BallInf struct {
	Center []float64
	Radius float64
}

// NewBallInf constructs an infinity ball. The radius must be >= 0.
func NewBallInf(center []float64, radius float64) (BallInf, error) {
	if radius < 0 {
		return BallInf{}, errors.New("sets: BallInf radius must be >= 0")
	}
	return BallInf{Center: center, Radius: radius}, nil
}

func (b BallInf) Dim() int { return len(b.Center) }

func (b BallInf) Support(d []float64) float64 {
	return dot(b.Center, d) + b.Radius*norm1(d)
}

// Box is a concrete axis-aligned box centered at the origin with
// per-axis radii, the materialized form produced when a
// SymmetricIntervalHull is requested eagerly (lazy_sih=false).
type Box struct {
	Radii []float64
}

func (b Box) Dim() int { return len(b.Radii) }

func (b Box) Support(d []float64) float64 {
	s := 0.0
	for i, di := range d {
		s += math.Abs(di) * b.Radii[i]
	}
	return s
}

// LinearMap is the lazy image M*S of a set S under a linear map M,
// represented without materializing the mapped set: its support
// function is evaluated as rho_{M S}(d) = rho_S(M^T d).
type LinearMap struct {
	M *mat64.Dense
	S Set
}

// NewLinearMap builds the lazy linear map M*S. M's column count must
// equal S's dimension.
func NewLinearMap(M *mat64.Dense, s Set) (Set, error) {
	if IsVoid(s) {
		r, _ := M.Dims()
		return VoidSet{n: r}, nil
	}
	if IsZero(s) {
		r, _ := M.Dims()
		return ZeroSet{n: r}, nil
	}
	_, cols := M.Dims()
	if cols != s.Dim() {
		return nil, errors.New("sets: LinearMap dimension mismatch")
	}
	return LinearMap{M: M, S: s}, nil
}

func (l LinearMap) Dim() int {
	r, _ := l.M.Dims()
	return r
}

func (l LinearMap) Support(d []float64) float64 {
	r, c := l.M.Dims()
	if len(d) != r {
		panic("sets: LinearMap.Support direction dimension mismatch")
	}
	mtd := make([]float64, c)
	for j := 0; j < c; j++ {
		v := 0.0
		for i := 0; i < r; i++ {
			v += l.M.At(i, j) * d[i]
		}
		mtd[j] = v
	}
	return l.S.Support(mtd)
}

// MinkowskiSumArray is the lazy sum S_1 (+) ... (+) S_m. VoidSet
// operands are dropped: they are the identity element and contribute
// nothing to the support function.
type MinkowskiSumArray struct {
	Sets []Set
}

// MinkowskiSum builds the lazy sum of a and b, collapsing VoidSet
// operands.
func MinkowskiSum(a, b Set) Set {
	return NewMinkowskiSumArray([]Set{a, b})
}

// NewMinkowskiSumArray builds the lazy sum of the given sets, dropping
// VoidSet operands (the Minkowski-sum identity).
func NewMinkowskiSumArray(ss []Set) Set {
	flat := make([]Set, 0, len(ss))
	for _, s := range ss {
		if IsVoid(s) {
			continue
		}
		if inner, ok := s.(MinkowskiSumArray); ok {
			flat = append(flat, inner.Sets...)
			continue
		}
		flat = append(flat, s)
	}
	switch len(flat) {
	case 0:
		// All operands were void; dimension is unknown from an
		// empty list, but callers always retain at least one
		// non-void dimension hint via the original slice.
		if len(ss) > 0 {
			return VoidSet{n: ss[0].Dim()}
		}
		return VoidSet{n: 0}
	case 1:
		return flat[0]
	default:
		return MinkowskiSumArray{Sets: flat}
	}
}

func (m MinkowskiSumArray) Dim() int {
	if len(m.Sets) == 0 {
		return 0
	}
	return m.Sets[0].Dim()
}

func (m MinkowskiSumArray) Support(d []float64) float64 {
	s := 0.0
	for _, set := range m.Sets {
		s += set.Support(d)
	}
	return s
}

// CartesianProductArray is the lazy product S_1 x ... x S_m over
// disjoint coordinate blocks. Its support function splits the query
// direction into the per-block sub-vectors and sums each block's
// support over its own coordinates.
type CartesianProductArray struct {
	Sets []Set
}

// NewCartesianProductArray builds the lazy Cartesian product of the
// given sets, in order.
func NewCartesianProductArray(ss []Set) CartesianProductArray {
	return CartesianProductArray{Sets: ss}
}

func (c CartesianProductArray) Dim() int {
	n := 0
	for _, s := range c.Sets {
		n += s.Dim()
	}
	return n
}

func (c CartesianProductArray) Support(d []float64) float64 {
	total := 0.0
	off := 0
	for _, s := range c.Sets {
		n := s.Dim()
		total += s.Support(d[off : off+n])
		off += n
	}
	return total
}

// ConvexHull is the lazy convex hull CH(A,B) of two sets, with
// support function rho_{CH(A,B)}(d) = max(rho_A(d), rho_B(d)).
type ConvexHull struct {
	A, B Set
}

// CH builds the lazy convex hull of a and b.
func CH(a, b Set) Set {
	return ConvexHull{A: a, B: b}
}

func (h ConvexHull) Dim() int { return h.A.Dim() }

func (h ConvexHull) Support(d []float64) float64 {
	return math.Max(h.A.Support(d), h.B.Support(d))
}

// SymmetricIntervalHull is the lazy box sih(S): the smallest
// axis-aligned box centered at the origin containing S. Per-axis
// radii are computed on demand from S's support function and cached,
// the way EMatrix.Eigen memoizes its decomposition.
type SymmetricIntervalHull struct {
	S     Set
	radii []float64 // memoized, nil until first Support/Radii call
}

// NewSymmetricIntervalHull builds the lazy sih(S).
func NewSymmetricIntervalHull(s Set) *SymmetricIntervalHull {
	return &SymmetricIntervalHull{S: s}
}

func (h *SymmetricIntervalHull) Dim() int { return h.S.Dim() }

// Radii returns the per-axis radii of the box, computing and caching
// them on first use.
func (h *SymmetricIntervalHull) Radii() []float64 {
	if h.radii != nil {
		return h.radii
	}
	h.radii = computeRadii(h.S, false)
	return h.radii
}

// RadiiParallel is the parallel counterpart of Radii: it computes
// each axis's radius concurrently. The result is identical to Radii
// up to floating-point rounding; only the evaluation order differs.
func (h *SymmetricIntervalHull) RadiiParallel() []float64 {
	if h.radii != nil {
		return h.radii
	}
	h.radii = computeRadii(h.S, true)
	return h.radii
}

func (h *SymmetricIntervalHull) Support(d []float64) float64 {
	radii := h.Radii()
	s := 0.0
	for i, di := range d {
		s += math.Abs(di) * radii[i]
	}
	return s
}

// ToBox materializes the hull as a concrete Box.
func (h *SymmetricIntervalHull) ToBox() Box {
	r := h.Radii()
	out := make([]float64, len(r))
	copy(out, r)
	return Box{Radii: out}
}

func computeRadii(s Set, parallel bool) []float64 {
	n := s.Dim()
	radii := make([]float64, n)
	compute := func(i int) float64 {
		ei := make([]float64, n)
		ei[i] = 1
		pos := s.Support(ei)
		ei[i] = -1
		neg := s.Support(ei)
		return math.Max(pos, neg)
	}
	if !parallel {
		for i := 0; i < n; i++ {
			radii[i] = compute(i)
		}
		return radii
	}
	done := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			radii[i] = compute(i)
			done <- struct{}{}
		}()
	}
	for i := 0; i < n; i++ {
		<-done
	}
	return radii
}

// InfNorm computes ||S||_inf = sup_{x in S} ||x||_inf via the
// support function, by reusing the symmetric-interval-hull radii: the
// infinity norm of S equals the infinity norm of sih(S).
func InfNorm(s Set) float64 {
	if IsZeroLike(s) {
		return 0
	}
	radii := computeRadii(s, false)
	m := 0.0
	for _, r := range radii {
		if r > m {
			m = r
		}
	}
	return m
}

func dot(a, d []float64) float64 {
	if a == nil {
		return 0
	}
	s := 0.0
	for i, di := range d {
		s += a[i] * di
	}
	return s
}

func norm2(d []float64) float64 {
	s := 0.0
	for _, v := range d {
		s += v * v
	}
	return math.Sqrt(s)
}

func norm1(d []float64) float64 {
	s := 0.0
	for _, v := range d {
		s += math.Abs(v)
	}
	return s
}
