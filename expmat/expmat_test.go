package expmat

import (
	"math"
	"testing"

	"github.com/gonum/matrix/mat64"
)

const smallDiff = 1e-6

func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

func TestDenseExpIdentityAtZero(t *testing.T) {
	A := mat64.NewDense(2, 2, []float64{0, 0, 0, 0})
	m, err := Expmat(A, Dense)
	if err != nil {
		t.Fatal(err)
	}
	d := m.(DenseExp).M
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1
			}
			if !appreq(d.At(i, j), want) {
				t.Errorf("exp(0)[%d,%d] = %v, want %v", i, j, d.At(i, j), want)
			}
		}
	}
}

func TestDenseAndPadeAgreeOnDiagonal(t *testing.T) {
	A := mat64.NewDense(2, 2, []float64{0.3, 0, 0, -0.2})
	dm, err := Expmat(A, Dense)
	if err != nil {
		t.Fatal(err)
	}
	pm, err := Expmat(A, Pade)
	if err != nil {
		t.Fatal(err)
	}
	dd := dm.(DenseExp).M
	pd := pm.(DenseExp).M
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if !appreq(dd.At(i, j), pd.At(i, j)) {
				t.Errorf("dense[%d,%d]=%v pade[%d,%d]=%v differ", i, j, dd.At(i, j), i, j, pd.At(i, j))
			}
		}
	}
	want := math.Exp(0.3)
	if !appreq(dd.At(0, 0), want) {
		t.Errorf("exp(0.3) = %v, want %v", dd.At(0, 0), want)
	}
}

func TestLazyMatrixExpMaterializesOnDemand(t *testing.T) {
	A := mat64.NewDense(2, 2, []float64{0, 1, -1, 0})
	m, err := Expmat(A, Lazy)
	if err != nil {
		t.Fatal(err)
	}
	lz := m.(*LazyMatrixExp)
	row, err := lz.Row(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 2 {
		t.Fatalf("Row(0) length = %d, want 2", len(row))
	}
	cols, err := lz.Columns(0, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	r, c := cols.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("Columns dims = %dx%d, want 2x2", r, c)
	}
}

func TestLazyMatrixExpAdvanceInvalidatesCache(t *testing.T) {
	A := mat64.NewDense(1, 1, []float64{0})
	m, _ := Expmat(A, Lazy)
	lz := m.(*LazyMatrixExp)
	row0, _ := lz.Row(0)
	if !appreq(row0[0], 1) {
		t.Fatalf("exp(0) = %v, want 1", row0[0])
	}
	lz.Advance(mat64.NewDense(1, 1, []float64{1}))
	row1, _ := lz.Row(0)
	want := math.Exp(1)
	if !appreq(row1[0], want) {
		t.Fatalf("exp(1) after Advance = %v, want %v", row1[0], want)
	}
}

func TestColumnsParallelMatchesSequential(t *testing.T) {
	A := mat64.NewDense(3, 3, []float64{0.1, 0, 0, 0, 0.2, 0, 0, 0, 0.3})
	m, _ := Expmat(A, Lazy)
	lz := m.(*LazyMatrixExp)
	seq, err := lz.Columns(0, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	par, err := lz.Columns(0, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !appreq(seq.At(i, j), par.At(i, j)) {
				t.Errorf("[%d,%d]: seq=%v par=%v", i, j, seq.At(i, j), par.At(i, j))
			}
		}
	}
}

func TestExpmatRejectsNonSquare(t *testing.T) {
	A := mat64.NewDense(2, 3, nil)
	_, err := Expmat(A, Dense)
	if err == nil {
		t.Fatal("expected DimensionMismatch error")
	}
}

func TestExpmatUnknownMode(t *testing.T) {
	A := mat64.NewDense(1, 1, []float64{0})
	_, err := Expmat(A, Mode(99))
	if err == nil {
		t.Fatal("expected InvalidApproxModel error")
	}
}
