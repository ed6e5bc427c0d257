package sets

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"
)

const smallDiff = 1e-9

func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

func TestBall2Support(t *testing.T) {
	b, err := NewBall2([]float64{1, 1}, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	got := b.Support([]float64{1, 0})
	want := 1 + 0.5
	if !appreq(got, want) {
		t.Errorf("Support(e1) = %v, want %v", got, want)
	}
}

func TestBallInfSupport(t *testing.T) {
	b, err := NewBallInf([]float64{0, 0}, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	got := b.Support([]float64{1, 1})
	want := 0.2
	if !appreq(got, want) {
		t.Errorf("Support(1,1) = %v, want %v", got, want)
	}
}

func TestVoidSetIsMinkowskiIdentity(t *testing.T) {
	b, _ := NewBall2([]float64{1, 1}, 0.5)
	sum := MinkowskiSum(NewVoidSet(2), b)
	got := sum.Support([]float64{1, 0})
	want := b.Support([]float64{1, 0})
	if !appreq(got, want) {
		t.Errorf("void+b support = %v, want %v", got, want)
	}
}

func TestLinearMapOfConstantBall(t *testing.T) {
	m := mat64.NewDense(2, 2, []float64{2, 0, 0, 3})
	b, _ := NewBall2([]float64{1, 1}, 0.5)
	lm, err := NewLinearMap(m, b)
	if err != nil {
		t.Fatal(err)
	}
	got := lm.Support([]float64{1, 0})
	want := b.Support([]float64{2, 0})
	if !appreq(got, want) {
		t.Errorf("LinearMap support = %v, want %v", got, want)
	}
}

func TestConvexHullSupportIsMax(t *testing.T) {
	a, _ := NewBall2([]float64{0, 0}, 1)
	b, _ := NewBall2([]float64{5, 0}, 1)
	h := CH(a, b)
	got := h.Support([]float64{1, 0})
	want := 6.0
	if !appreq(got, want) {
		t.Errorf("CH support = %v, want %v", got, want)
	}
}

func TestSymmetricIntervalHullBox(t *testing.T) {
	b, _ := NewBallInf([]float64{1, -2}, 0.5)
	sih := NewSymmetricIntervalHull(Set(b))
	radii := sih.Radii()
	want := []float64{1.5, 2.5}
	for i := range want {
		if !appreq(radii[i], want[i]) {
			t.Errorf("radii[%d] = %v, want %v", i, radii[i], want[i])
		}
	}
	parRadii := sih.ToBox()
	for i := range want {
		if !appreq(parRadii.Radii[i], want[i]) {
			t.Errorf("box radii[%d] = %v, want %v", i, parRadii.Radii[i], want[i])
		}
	}
}

func TestSymmetricIntervalHullParallelMatchesSequential(t *testing.T) {
	b, _ := NewBallInf([]float64{3, -1, 2}, 0.25)
	seq := NewSymmetricIntervalHull(Set(b)).Radii()
	par := NewSymmetricIntervalHull(Set(b)).RadiiParallel()
	for i := range seq {
		if !appreq(seq[i], par[i]) {
			t.Errorf("radii[%d]: seq=%v par=%v", i, seq[i], par[i])
		}
	}
}

func TestCartesianProductArraySupportSplits(t *testing.T) {
	a, _ := NewBall2([]float64{1, 0}, 0.1)
	b, _ := NewBall2([]float64{0, 2}, 0.2)
	cp := NewCartesianProductArray([]Set{a, b})
	if cp.Dim() != 4 {
		t.Fatalf("Dim() = %d, want 4", cp.Dim())
	}
	got := cp.Support([]float64{1, 0, 0, 1})
	want := a.Support([]float64{1, 0}) + b.Support([]float64{0, 1})
	if !appreq(got, want) {
		t.Errorf("CartesianProductArray support = %v, want %v", got, want)
	}
}

func TestInfNormOfZeroLikeIsZero(t *testing.T) {
	if InfNorm(NewZeroSet(3)) != 0 {
		t.Error("InfNorm(ZeroSet) != 0")
	}
	if InfNorm(NewVoidSet(3)) != 0 {
		t.Error("InfNorm(VoidSet) != 0")
	}
}

func TestInfNormBall2(t *testing.T) {
	b, _ := NewBall2([]float64{0, 0}, 1)
	got := InfNorm(b)
	want := 1.0
	if !appreq(got, want) {
		t.Errorf("InfNorm(Ball2) = %v, want %v", got, want)
	}
}
