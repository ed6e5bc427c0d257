package calibrate

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/sets"
)

func TestBoundIncreasesWithDelta(t *testing.T) {
	A := mat64.NewDense(2, 2, nil)
	A.Set(0, 0, 1)
	A.Set(1, 1, 2)
	x0, _ := sets.NewBall2([]float64{0, 0}, 0.1)
	b1 := bound(A, x0, nil, 0.01)
	b2 := bound(A, x0, nil, 0.1)
	if b2 <= b1 {
		t.Fatalf("bound(delta=0.1)=%v should exceed bound(delta=0.01)=%v", b2, b1)
	}
}

func TestCalibrateStaysWithinBounds(t *testing.T) {
	A := mat64.NewDense(2, 2, nil)
	A.Set(0, 0, 1)
	A.Set(1, 1, 2)
	x0, _ := sets.NewBall2([]float64{0, 0}, 0.1)
	opts := DefaultOptions()
	opts.DeltaMin = 1e-4
	opts.DeltaMax = 1.0
	opts.Target = 0.05
	res, err := Calibrate(A, x0, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	if res.Delta < opts.DeltaMin-1e-9 || res.Delta > opts.DeltaMax+1e-9 {
		t.Fatalf("delta %v out of bounds [%v,%v]", res.Delta, opts.DeltaMin, opts.DeltaMax)
	}
}

func TestMatrixInfNormZeroMatrix(t *testing.T) {
	A := mat64.NewDense(3, 3, nil)
	if got := matrixInfNorm(A); got != 0 {
		t.Fatalf("matrixInfNorm(zero) = %v, want 0", got)
	}
}

func TestBoundZeroGeneratorIsZero(t *testing.T) {
	A := mat64.NewDense(2, 2, nil)
	x0, _ := sets.NewBall2([]float64{0, 0}, 1)
	b := bound(A, x0, nil, 0.5)
	if !appreq(b, 0) {
		t.Fatalf("bound with A=0 = %v, want 0", b)
	}
}

func appreq(a, b float64) bool { return math.Abs(a-b) <= 1e-9 }
