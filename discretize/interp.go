package discretize

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/reacherr"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

// interpolate implements section 4.D.2, the forward and backward
// models: both bound the interpolation error between sample points
// with a symmetric-interval-hull term built from Phi2|A|, the
// upper-right block of exp of the |A|-scaled augmented generator, and
// differ only in whether the second-order term is evaluated at X0 or
// at Phi*X0.
func interpolate(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, opts Options, forward bool) (*system.DiscreteSystem, error) {
	n := cs.Dim()
	absA := absMatrix(cs.A)
	absAdelta := mat64.NewDense(n, n, nil)
	absAdelta.Scale(delta, absA)
	g := block3n(absAdelta, delta, n)
	gExp, err := expmat.Expmat(g, opts.mode())
	if err != nil {
		return nil, err
	}
	phi2AbsA, err := extractBlock(gExp, 0, n, 2*n, 3*n, opts.Parallel)
	if err != nil {
		return nil, err
	}

	phiMat, err := phiDense(phi)
	if err != nil {
		return nil, err
	}
	phiX0, err := linearMap(phiMat, cs.X0)
	if err != nil {
		return nil, err
	}

	start := cs.U.Start()
	if sets.IsZeroLike(start.Set()) {
		deltaZero, err := scaleSet(sets.NewZeroSet(n), delta)
		if err != nil {
			return nil, err
		}
		omega0 := sets.CH(cs.X0, sets.MinkowskiSum(phiX0, deltaZero))
		v := input.NewConstantInput(sets.NewVoidSet(n))
		return system.NewDiscreteSystem(phi, omega0, v, delta)
	}

	vU1, err := boundedInput(start.Set(), cs.A, phi2AbsA, delta, opts)
	if err != nil {
		return nil, err
	}

	A2, err := secondOrderMatrix(cs.A, phiMat, forward)
	if err != nil {
		return nil, err
	}
	// Both models apply their second-order matrix to X0 itself
	// (A^2*X0 for forward, (A^2*Phi)*X0 for backward); secondOrderMatrix
	// already folds in the Phi factor for backward.
	a2x, err := linearMap(A2, cs.X0)
	if err != nil {
		return nil, err
	}
	sihA2x, err := sih(a2x, opts)
	if err != nil {
		return nil, err
	}
	mapped, err := linearMap(phi2AbsA, sihA2x)
	if err != nil {
		return nil, err
	}
	eOmega, err := sih(mapped, opts)
	if err != nil {
		return nil, err
	}

	omega0 := sets.CH(cs.X0, sets.NewMinkowskiSumArray([]sets.Set{phiX0, vU1, eOmega}))

	v, err := input.MapMatrix(cs.U, func(u sets.Set) (sets.Set, error) {
		return boundedInput(u, cs.A, phi2AbsA, delta, opts)
	})
	if err != nil {
		return nil, err
	}
	return system.NewDiscreteSystem(phi, omega0, v, delta)
}

// boundedInput computes V_U = delta*U (+) sih(Phi2|A| * sih(A*U)), the
// per-step input bloating term from section 4.D.2.
func boundedInput(u sets.Set, A, phi2AbsA *mat64.Dense, delta float64, opts Options) (sets.Set, error) {
	if sets.IsZeroLike(u) {
		return sets.NewZeroSet(u.Dim()), nil
	}
	au, err := linearMap(A, u)
	if err != nil {
		return nil, err
	}
	sihAU, err := sih(au, opts)
	if err != nil {
		return nil, err
	}
	mapped, err := linearMap(phi2AbsA, sihAU)
	if err != nil {
		return nil, err
	}
	ePsi, err := sih(mapped, opts)
	if err != nil {
		return nil, err
	}
	deltaU, err := scaleSet(u, delta)
	if err != nil {
		return nil, err
	}
	return sets.MinkowskiSum(deltaU, ePsi), nil
}

// secondOrderMatrix returns A*A for the forward model's error term, or
// A*A*Phi for the backward model's.
func secondOrderMatrix(A, phiMat *mat64.Dense, forward bool) (*mat64.Dense, error) {
	n, _ := A.Dims()
	a2 := mat64.NewDense(n, n, nil)
	a2.Mul(A, A)
	if forward {
		return a2, nil
	}
	a2phi := mat64.NewDense(n, n, nil)
	a2phi.Mul(a2, phiMat)
	return a2phi, nil
}

// scaleSet returns alpha*S as a lazy linear map by alpha*I.
func scaleSet(s sets.Set, alpha float64) (sets.Set, error) {
	n := s.Dim()
	m := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, alpha)
	}
	return linearMap(m, s)
}

// phiDense materializes the transition operator as a dense matrix
// regardless of backend, needed by the backward model's A^2*Phi term.
func phiDense(phi expmat.MatrixExp) (*mat64.Dense, error) {
	switch v := phi.(type) {
	case expmat.DenseExp:
		return v.M, nil
	case *expmat.LazyMatrixExp:
		return v.Materialize()
	default:
		return nil, reacherr.New(reacherr.DimensionMismatch, "phiDense: unsupported MatrixExp %T", phi)
	}
}
