package discretize

import (
	"math"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/input"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

// firstOrder implements section 4.D.3, the first-order
// infinity-norm over-approximation: cheaper than forward/backward
// (no augmented 3n x 3n exponential) at the cost of a looser bound.
func firstOrder(cs *system.ContinuousSystem, phi expmat.MatrixExp, delta float64, opts Options) (*system.DiscreteSystem, error) {
	n := cs.Dim()
	An := matrixInfNorm(cs.A)
	c := math.Exp(delta*An) - 1 - delta*An

	phiMat, err := phiDense(phi)
	if err != nil {
		return nil, err
	}
	phiX0, err := linearMap(phiMat, cs.X0)
	if err != nil {
		return nil, err
	}
	rX0 := sets.InfNorm(cs.X0)

	start := cs.U.Start()
	if sets.IsZeroLike(start.Set()) {
		alpha := c * rX0
		ball, err := sets.NewBall2(make([]float64, n), alpha)
		if err != nil {
			return nil, err
		}
		omega0 := sets.CH(cs.X0, sets.MinkowskiSum(phiX0, ball))
		v := input.NewConstantInput(sets.NewVoidSet(n))
		return system.NewDiscreteSystem(phi, omega0, v, delta)
	}

	alpha, _ := firstOrderBounds(start.Set(), An, c, rX0)
	deltaU1, err := scaleSet(start.Set(), delta)
	if err != nil {
		return nil, err
	}
	ballAlpha, err := sets.NewBall2(make([]float64, n), alpha)
	if err != nil {
		return nil, err
	}
	omega0 := sets.CH(cs.X0, sets.NewMinkowskiSumArray([]sets.Set{phiX0, deltaU1, ballAlpha}))

	v, err := input.MapMatrix(cs.U, func(u sets.Set) (sets.Set, error) {
		_, beta := firstOrderBounds(u, An, c, rX0)
		deltaU, err := scaleSet(u, delta)
		if err != nil {
			return nil, err
		}
		ballBeta, err := sets.NewBall2(make([]float64, u.Dim()), beta)
		if err != nil {
			return nil, err
		}
		return sets.MinkowskiSum(deltaU, ballBeta), nil
	})
	if err != nil {
		return nil, err
	}
	return system.NewDiscreteSystem(phi, omega0, v, delta)
}

// firstOrderBounds returns (alpha, beta) for a given input set u,
// matching section 4.D.3's alpha = c*(R_X0 + R_U/An), beta =
// c*R_U/An, with the An -> 0 limit (both terms vanish) handled
// explicitly to avoid a division by zero.
func firstOrderBounds(u sets.Set, An, c, rX0 float64) (alpha, beta float64) {
	rU := sets.InfNorm(u)
	if An == 0 {
		return c * rX0, 0
	}
	ratio := rU / An
	return c * (rX0 + ratio), c * ratio
}

func matrixInfNorm(A *mat64.Dense) float64 {
	r, cols := A.Dims()
	m := 0.0
	for i := 0; i < r; i++ {
		s := 0.0
		for j := 0; j < cols; j++ {
			s += math.Abs(A.At(i, j))
		}
		if s > m {
			m = s
		}
	}
	return m
}
