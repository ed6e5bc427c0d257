package system

import (
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/reacherr"
	"bitbucket.org/Davydov/reach/sets"
)

func TestContinuousHomogeneousDefaultsToVoidInput(t *testing.T) {
	A := mat64.NewDense(2, 2, []float64{0, 1, -1, 0})
	x0, _ := sets.NewBallInf([]float64{0, 0}, 0.1)
	cs, err := NewContinuousHomogeneous(A, x0)
	if err != nil {
		t.Fatal(err)
	}
	if !sets.IsVoid(cs.U.Start().Set()) {
		t.Error("homogeneous system's input should start on a VoidSet")
	}
}

func TestContinuousSystemRejectsNonSquare(t *testing.T) {
	A := mat64.NewDense(2, 3, nil)
	x0, _ := sets.NewBallInf([]float64{0, 0}, 0.1)
	_, err := NewContinuousHomogeneous(A, x0)
	if !reacherr.Is(err, reacherr.DimensionMismatch) {
		t.Fatalf("expected DimensionMismatch, got %v", err)
	}
}

type fakePhi struct{ n int }

func (f fakePhi) Dim() int { return f.n }

func TestDiscreteSystemRejectsNegativeDelta(t *testing.T) {
	x0, _ := sets.NewBallInf([]float64{0, 0}, 0.1)
	_, err := NewDiscreteSystem(fakePhi{2}, x0, nil, -0.1)
	if !reacherr.Is(err, reacherr.DomainError) {
		t.Fatalf("expected DomainError, got %v", err)
	}
}

func TestDiscreteSystemAcceptsZeroDelta(t *testing.T) {
	x0, _ := sets.NewBallInf([]float64{0, 0}, 0.1)
	ds, err := NewDiscreteSystem(fakePhi{2}, x0, nil, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Dim() != 2 {
		t.Errorf("Dim() = %d, want 2", ds.Dim())
	}
}
