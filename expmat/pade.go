package expmat

import (
	"math"

	"github.com/gonum/mathext"
	"github.com/gonum/matrix/mat64"
)

// padeOrders are the diagonal Pade approximant orders tried, smallest
// first, mirroring the way dist.DiscreteGamma widens its search rather
// than committing to one fixed resolution.
var padeOrders = []int{4, 6, 8, 10}

// padeTolerance is the truncation-tail mass the chosen order must
// stay under (see tailMass below).
const padeTolerance = 1e-16

// padeExp computes exp(A) via scaling-and-squaring: A is halved until
// its infinity norm is <= 0.5, a diagonal Pade approximant is applied
// to the scaled matrix, and the result is squared back up.
func padeExp(A *mat64.Dense) (*mat64.Dense, error) {
	n, _ := A.Dims()
	normA := infNormDense(A)
	s := 0
	for normA > 0.5 {
		normA /= 2
		s++
	}
	scale := 1.0
	for i := 0; i < s; i++ {
		scale /= 2
	}
	scaled := mat64.NewDense(n, n, nil)
	scaled.Scale(scale, A)

	order := choosePadeOrder(normA)
	coeffs := padeCoefficients(order)

	num := mat64.NewDense(n, n, nil)
	den := mat64.NewDense(n, n, nil)
	pow := identity(n)
	for k := 0; k <= order; k++ {
		term := mat64.NewDense(n, n, nil)
		term.Scale(coeffs[k], pow)
		num.Add(num, term)
		if k%2 == 0 {
			den.Add(den, term)
		} else {
			neg := mat64.NewDense(n, n, nil)
			neg.Scale(-1, term)
			den.Add(den, neg)
		}
		if k < order {
			next := mat64.NewDense(n, n, nil)
			next.Mul(pow, scaled)
			pow = next
		}
	}

	invDen := mat64.NewDense(n, n, nil)
	if err := invDen.Inverse(den); err != nil {
		return nil, err
	}
	R := mat64.NewDense(n, n, nil)
	R.Mul(invDen, num)

	for i := 0; i < s; i++ {
		sq := mat64.NewDense(n, n, nil)
		sq.Mul(R, R)
		R = sq
	}
	return R, nil
}

// padeCoefficients returns the coefficients b_0..b_order of the
// diagonal [order/order] Pade approximant to exp(x):
//
//	b_k = (2m-k)! m! / ((2m)! k! (m-k)!)
func padeCoefficients(m int) []float64 {
	c := make([]float64, m+1)
	c[0] = 1
	for k := 1; k <= m; k++ {
		c[k] = c[k-1] * float64(m-k+1) / float64(k*(2*m-k+1))
	}
	return c
}

// choosePadeOrder picks the smallest order in padeOrders whose
// truncation tail mass, estimated via tailMass, is under
// padeTolerance, defaulting to the largest available order if none
// qualifies.
func choosePadeOrder(scaledNorm float64) int {
	for _, m := range padeOrders {
		if tailMass(m, scaledNorm) < padeTolerance {
			return m
		}
	}
	return padeOrders[len(padeOrders)-1]
}

// tailMass estimates the fraction of e^x's Taylor series mass left
// out by truncating at order terms. The Poisson(x) CDF at order
// equals the upper regularized incomplete gamma Q(order+1,x), i.e.
// sum_{k=0}^{order} e^-x x^k/k! = 1 - GammaInc(order+1,x) when
// GammaInc is the lower regularized incomplete gamma (the same
// function dist.Tools wraps for the chi-square CDF), so the omitted
// tail fraction is exactly GammaInc(order+1, x).
func tailMass(order int, x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Min(1, mathext.GammaInc(float64(order+1), x))
}
