// Package system holds the immutable system descriptors that the
// discretization engine consumes: ContinuousSystem, DiscreteSystem,
// and an initial-value-problem wrapper around a ContinuousSystem.
// These are purely structural, the way
// cmodel's M0/M2/M8 wrap a Q-matrix and a tree without adding
// behavior of their own.
package system

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/reacherr"
	"bitbucket.org/Davydov/reach/sets"
)

// ContinuousSystem is x'(t) = A x(t) + u(t), x(0) in X0, u(t) in U(t).
type ContinuousSystem struct {
	A  *mat64.Dense
	X0 sets.Set
	U  input.NonDeterministicInput
}

// NewContinuousHomogeneous builds a ContinuousSystem with no input
// (U is a ConstantInput over the void set of A's dimension).
func NewContinuousHomogeneous(A *mat64.Dense, x0 sets.Set) (*ContinuousSystem, error) {
	n, err := checkSquareDim(A, x0)
	if err != nil {
		return nil, err
	}
	return &ContinuousSystem{A: A, X0: x0, U: input.NewConstantInput(sets.NewVoidSet(n))}, nil
}

// NewContinuousConstantInput builds a ContinuousSystem with a
// constant input set U.
func NewContinuousConstantInput(A *mat64.Dense, x0 sets.Set, u sets.Set) (*ContinuousSystem, error) {
	n, err := checkSquareDim(A, x0)
	if err != nil {
		return nil, err
	}
	if u.Dim() != n {
		return nil, reacherr.New(reacherr.DimensionMismatch, "dim(U)=%d != dim(A)=%d", u.Dim(), n)
	}
	return &ContinuousSystem{A: A, X0: x0, U: input.NewConstantInput(u)}, nil
}

// NewContinuousVaryingInput builds a ContinuousSystem with a
// time-varying input sequence U_1..U_m.
func NewContinuousVaryingInput(A *mat64.Dense, x0 sets.Set, us []sets.Set) (*ContinuousSystem, error) {
	n, err := checkSquareDim(A, x0)
	if err != nil {
		return nil, err
	}
	v, err := input.NewVaryingInput(us)
	if err != nil {
		return nil, err
	}
	if v.Dim() != n {
		return nil, reacherr.New(reacherr.DimensionMismatch, "dim(U_i)=%d != dim(A)=%d", v.Dim(), n)
	}
	return &ContinuousSystem{A: A, X0: x0, U: v}, nil
}

// Dim returns the ambient state dimension.
func (s *ContinuousSystem) Dim() int {
	r, _ := s.A.Dims()
	return r
}

// DiscreteSystem is (Phi, X0, U, delta): the discrete-time abstraction
// produced by the discretization engine. Phi may be a materialized
// matrix or a lazy matrix exponential (expmat.MatrixExp); this
// package only requires it to expose Dim().
type DiscreteSystem struct {
	Phi   expDims
	X0    sets.Set
	U     input.NonDeterministicInput
	Delta float64
}

// expDims is the minimal contract DiscreteSystem needs from its
// transition operator: enough to validate dimensions without this
// package depending on expmat (discretize, the caller that builds
// DiscreteSystem values, already does).
type expDims interface {
	Dim() int
}

// NewDiscreteSystem builds a DiscreteSystem, rejecting a negative
// delta with a DomainError as required by the specification.
func NewDiscreteSystem(phi expDims, x0 sets.Set, u input.NonDeterministicInput, delta float64) (*DiscreteSystem, error) {
	if delta < 0 {
		return nil, reacherr.New(reacherr.DomainError, "delta=%v must be >= 0", delta)
	}
	if phi.Dim() != x0.Dim() {
		return nil, reacherr.New(reacherr.DimensionMismatch, "dim(Phi)=%d != dim(X0)=%d", phi.Dim(), x0.Dim())
	}
	return &DiscreteSystem{Phi: phi, X0: x0, U: u, Delta: delta}, nil
}

// Dim returns the ambient state dimension.
func (s *DiscreteSystem) Dim() int { return s.Phi.Dim() }

// InitialValueProblem wraps a ContinuousSystem. It holds no
// matrix-exponential backend choice; that is passed to discretize
// through its Options.
type InitialValueProblem struct {
	System *ContinuousSystem
}

// NewInitialValueProblem wraps s.
func NewInitialValueProblem(s *ContinuousSystem) *InitialValueProblem {
	return &InitialValueProblem{System: s}
}

// Dim returns the ambient state dimension.
func (p *InitialValueProblem) Dim() int { return p.System.Dim() }

func checkSquareDim(A *mat64.Dense, x0 sets.Set) (int, error) {
	r, c := A.Dims()
	if r != c {
		return 0, reacherr.New(reacherr.DimensionMismatch, "A is %dx%d, must be square", r, c)
	}
	if x0.Dim() != r {
		return 0, reacherr.New(reacherr.DimensionMismatch, "dim(X0)=%d != rows(A)=%d", x0.Dim(), r)
	}
	return r, nil
}
