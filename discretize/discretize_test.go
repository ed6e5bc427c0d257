package discretize

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/reacherr"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

const smallDiff = 1e-6

func appreq(a, b float64) bool { return math.Abs(a-b) <= smallDiff }

// scenarioMatrix builds the 4x4 sparse A used across S1-S4: A[0][0]=1,
// A[0][1]=2, A[1][1]=3, A[2][3]=4, A[3][2]=5.
func scenarioMatrix() *mat64.Dense {
	A := mat64.NewDense(4, 4, nil)
	A.Set(0, 0, 1)
	A.Set(0, 1, 2)
	A.Set(1, 1, 3)
	A.Set(2, 3, 4)
	A.Set(3, 2, 5)
	return A
}

func scenarioX0() sets.Set {
	x0, _ := sets.NewBallInf([]float64{0, 0, 0, 0}, 0.1)
	return x0
}

// S1: homogeneous nobloating.
func TestS1HomogeneousNoBloating(t *testing.T) {
	cs, err := system.NewContinuousHomogeneous(scenarioMatrix(), scenarioX0())
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Discretize(cs, 0.01, Options{ApproxModel: NoBloating, LazySIH: true})
	if err != nil {
		t.Fatal(err)
	}
	if ds.U.Length() != 1 {
		t.Fatalf("len(V) = %d, want 1", ds.U.Length())
	}
	s := ds.U.Start().Set()
	if !sets.IsVoid(s) {
		t.Fatalf("start(V).set = %#v, want VoidSet", s)
	}
	if s.Dim() != 4 {
		t.Fatalf("dim = %d, want 4", s.Dim())
	}
}

// S2: constant input nobloating.
func TestS2ConstantInputNoBloating(t *testing.T) {
	u, _ := sets.NewBall2([]float64{1, 1, 1, 1}, 0.5)
	cs, err := system.NewContinuousConstantInput(scenarioMatrix(), scenarioX0(), u)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Discretize(cs, 0.01, Options{ApproxModel: NoBloating, LazySIH: true})
	if err != nil {
		t.Fatal(err)
	}
	if ds.U.Length() != 1 {
		t.Fatalf("len(V) = %d, want 1", ds.U.Length())
	}
	s := ds.U.Start().Set()
	lm, ok := s.(sets.LinearMap)
	if !ok {
		t.Fatalf("start(V).set = %T, want LinearMap", s)
	}
	inner, ok := lm.S.(sets.Ball2)
	if !ok {
		t.Fatalf("LinearMap.S = %T, want Ball2", lm.S)
	}
	if inner.Radius != 0.5 {
		t.Errorf("inner radius = %v, want 0.5", inner.Radius)
	}
	for _, c := range inner.Center {
		if c != 1 {
			t.Errorf("inner center = %v, want all-ones", inner.Center)
		}
	}
}

// S3: constant input bloating (forward).
func TestS3ConstantInputForward(t *testing.T) {
	u, _ := sets.NewBall2([]float64{1, 1, 1, 1}, 0.5)
	cs, err := system.NewContinuousConstantInput(scenarioMatrix(), scenarioX0(), u)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Discretize(cs, 0.01, Options{ApproxModel: Forward, LazySIH: true})
	if err != nil {
		t.Fatal(err)
	}
	if ds.U.Length() != 1 {
		t.Fatalf("len(V) = %d, want 1", ds.U.Length())
	}
	s := ds.U.Start().Set()
	if _, ok := s.(sets.MinkowskiSumArray); !ok {
		t.Fatalf("start(V).set = %T, want MinkowskiSumArray", s)
	}
}

// S4: varying input nobloating.
func TestS4VaryingInputNoBloating(t *testing.T) {
	us := make([]sets.Set, 3)
	for i := 1; i <= 3; i++ {
		c := make([]float64, 4)
		for j := range c {
			c[j] = 0.01 * float64(i)
		}
		b, _ := sets.NewBall2(c, 0.2*float64(i))
		us[i-1] = b
	}
	cs, err := system.NewContinuousVaryingInput(scenarioMatrix(), scenarioX0(), us)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := Discretize(cs, 0.01, Options{ApproxModel: NoBloating, LazySIH: true})
	if err != nil {
		t.Fatal(err)
	}
	if ds.U.Length() != 3 {
		t.Fatalf("len(V) = %d, want 3", ds.U.Length())
	}
	s := ds.U.Start()
	for i := 1; i <= 3; i++ {
		lm, ok := s.Set().(sets.LinearMap)
		if !ok {
			t.Fatalf("step %d: set = %T, want LinearMap", i, s.Set())
		}
		b, ok := lm.S.(sets.Ball2)
		if !ok {
			t.Fatalf("step %d: LinearMap.S = %T, want Ball2", i, lm.S)
		}
		wantRadius := 0.2 * float64(i)
		if !appreq(b.Radius, wantRadius) {
			t.Errorf("step %d: radius = %v, want %v", i, b.Radius, wantRadius)
		}
		s = ds.U.Next(s)
	}
}

func TestDimensionPreserved(t *testing.T) {
	cs, _ := system.NewContinuousHomogeneous(scenarioMatrix(), scenarioX0())
	for _, model := range []ApproxModel{NoBloating, Forward, Backward, FirstOrder} {
		ds, err := Discretize(cs, 0.01, Options{ApproxModel: model, LazySIH: true})
		if err != nil {
			t.Fatalf("%s: %v", model, err)
		}
		if ds.Dim() != 4 {
			t.Errorf("%s: Dim() = %d, want 4", model, ds.Dim())
		}
	}
}

func TestNegativeDeltaIsDomainError(t *testing.T) {
	cs, _ := system.NewContinuousHomogeneous(scenarioMatrix(), scenarioX0())
	_, err := Discretize(cs, -0.1, Options{ApproxModel: NoBloating})
	if !reacherr.Is(err, reacherr.DomainError) {
		t.Fatalf("expected DomainError, got %v", err)
	}
}

func TestUnknownApproxModel(t *testing.T) {
	cs, _ := system.NewContinuousHomogeneous(scenarioMatrix(), scenarioX0())
	_, err := Discretize(cs, 0.01, Options{ApproxModel: "bogus"})
	if !reacherr.Is(err, reacherr.InvalidApproxModel) {
		t.Fatalf("expected InvalidApproxModel, got %v", err)
	}
}

func TestForwardOmega0ContainsPhiX0(t *testing.T) {
	cs, _ := system.NewContinuousHomogeneous(scenarioMatrix(), scenarioX0())
	ds, err := Discretize(cs, 0.01, Options{ApproxModel: Forward, LazySIH: true})
	if err != nil {
		t.Fatal(err)
	}
	// Omega0 must contain X0 and Phi*X0 along every direction, i.e. its
	// support function dominates both.
	phiMat, err := phiDense(ds.Phi)
	if err != nil {
		t.Fatal(err)
	}
	phiX0, err := linearMap(phiMat, scenarioX0())
	if err != nil {
		t.Fatal(err)
	}
	dirs := [][]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {-1, 0, 0, 0}, {0, 0, 1, 0}}
	for _, d := range dirs {
		if ds.X0.Support(d) < scenarioX0().Support(d)-smallDiff {
			t.Errorf("Omega0.Support(%v) = %v < X0.Support(%v) = %v", d, ds.X0.Support(d), d, scenarioX0().Support(d))
		}
		if ds.X0.Support(d) < phiX0.Support(d)-smallDiff {
			t.Errorf("Omega0.Support(%v) = %v < (Phi*X0).Support(%v) = %v", d, ds.X0.Support(d), d, phiX0.Support(d))
		}
	}
}

func TestFirstOrderBoundsMonotoneInDelta(t *testing.T) {
	An := 2.0
	rX0 := 0.1
	rU := 0.2
	u, _ := sets.NewBall2([]float64{0, 0}, rU)
	smallDelta := 0.01
	bigDelta := 0.1
	cSmall := math.Exp(smallDelta*An) - 1 - smallDelta*An
	cBig := math.Exp(bigDelta*An) - 1 - bigDelta*An
	aSmall, bSmall := firstOrderBounds(u, An, cSmall, rX0)
	aBig, bBig := firstOrderBounds(u, An, cBig, rX0)
	if aBig < aSmall {
		t.Errorf("alpha not monotone: small=%v big=%v", aSmall, aBig)
	}
	if bBig < bSmall {
		t.Errorf("beta not monotone: small=%v big=%v", bSmall, bBig)
	}
}
