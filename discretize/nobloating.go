package discretize

import (
	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

// noBloating implements section 4.D.1: Omega0 = X0, and V = M*U where
// M = Phi1(A,delta) is the n x n block in rows 0..n-1 and columns
// n..2n-1 of exp of the augmented 3n x 3n generator. This is the discretization used for
// genuinely discrete-time systems, where no interpolation error
// between sample points needs to be bounded.
func noBloating(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, opts Options) (*system.DiscreteSystem, error) {
	n := cs.Dim()
	omega0 := cs.X0

	start := cs.U.Start()
	if sets.IsVoid(start.Set()) {
		v := input.NewConstantInput(sets.NewVoidSet(n))
		return system.NewDiscreteSystem(phi, omega0, v, delta)
	}

	Adelta := mat64.NewDense(n, n, nil)
	Adelta.Scale(delta, cs.A)
	g := block3n(Adelta, delta, n)
	gExp, err := expmat.Expmat(g, opts.mode())
	if err != nil {
		return nil, err
	}
	M, err := extractBlock(gExp, 0, n, n, 2*n, opts.Parallel)
	if err != nil {
		return nil, err
	}

	v, err := input.MapMatrix(cs.U, func(s sets.Set) (sets.Set, error) {
		return linearMap(M, s)
	})
	if err != nil {
		return nil, err
	}
	return system.NewDiscreteSystem(phi, omega0, v, delta)
}
