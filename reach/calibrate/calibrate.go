// Package calibrate searches for the largest discretization step
// delta whose first-order over-approximation bound stays under a
// caller-supplied ceiling, the way optimize.LBFGSB drives a codon
// model's likelihood: EvaluateFunction/EvaluateGradient callbacks
// into afbarnard/go-lbfgsb's box-constrained solver, gradients taken
// by central finite differences rather than analytically.
package calibrate

import (
	"math"

	lbfgsb "github.com/afbarnard/go-lbfgsb"
	"github.com/op/go-logging"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/sets"
)

var log = logging.MustGetLogger("calibrate")

// Options configures Calibrate.
type Options struct {
	// DeltaMin, DeltaMax bound the search range.
	DeltaMin, DeltaMax float64
	// Target is the ceiling the first-order bound (alpha+beta) must
	// not exceed.
	Target float64
	// Penalty weights the constraint violation term; larger values
	// push the search harder against the ceiling.
	Penalty float64
	// Iterations is not passed to the solver: the search stops on
	// the solver's F/G tolerances only, however many iterations
	// that takes.
	Iterations int
}

// DefaultOptions returns the teacher-style defaults: moderate penalty,
// 50 iterations, matching optimize.LBFGSB's FTolerance/GTolerance=1e-9
// convergence criteria used below.
func DefaultOptions() Options {
	return Options{Penalty: 1e4, Iterations: 50}
}

// Result holds the calibrated step and the bound it achieves.
type Result struct {
	Delta      float64
	Bound      float64
	Iterations int
}

// Calibrate finds the largest delta in [opts.DeltaMin, opts.DeltaMax]
// for which the first-order bound (per discretize's section 4.D.3
// model) stays at or below opts.Target, for a homogeneous-plus-input
// system with generator A, initial set x0, and bounded input u (nil
// for no input).
func Calibrate(A *mat64.Dense, x0 sets.Set, u sets.Set, opts Options) (Result, error) {
	obj := &objective{A: A, x0: x0, u: u, opts: opts, dH: 1e-6}

	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	opt.SetBounds([][2]float64{{opts.DeltaMin, opts.DeltaMax}})
	opt.SetLogger(obj.logIteration)

	start := []float64{(opts.DeltaMin + opts.DeltaMax) / 2}
	x, exitStatus := opt.Minimize(obj, start)
	log.Infof("calibrate: exit status %v", exitStatus)

	delta := x[0]
	return Result{
		Delta:      delta,
		Bound:      bound(A, x0, u, delta),
		Iterations: obj.iterations,
	}, nil
}

type objective struct {
	A          *mat64.Dense
	x0, u      sets.Set
	opts       Options
	dH         float64
	iterations int
}

// penalizedNegDelta is the quantity EvaluateFunction/EvaluateGradient
// minimize: -delta plus a quadratic penalty once the first-order bound
// exceeds the target, so the unconstrained optimum sits at the
// largest feasible delta.
func (o *objective) penalizedNegDelta(delta float64) float64 {
	b := bound(o.A, o.x0, o.u, delta)
	viol := math.Max(0, b-o.opts.Target)
	return -delta + o.opts.Penalty*viol*viol
}

func (o *objective) EvaluateFunction(x []float64) float64 {
	return o.penalizedNegDelta(x[0])
}

func (o *objective) EvaluateGradient(x []float64) []float64 {
	delta := x[0]
	f1 := o.penalizedNegDelta(delta - o.dH)
	f2 := o.penalizedNegDelta(delta + o.dH)
	return []float64{(f2 - f1) / (2 * o.dH)}
}

func (o *objective) logIteration(info *lbfgsb.OptimizationIterationInformation) {
	o.iterations = info.Iteration
	log.Debugf("calibrate iter=%d delta=%v f=%v", info.Iteration, info.X, info.F)
}

// bound evaluates the section 4.D.3 first-order bound alpha+beta at a
// given delta, duplicating discretize.firstOrderBounds' formula rather
// than importing it (discretize's helper is unexported and tied to a
// ContinuousSystem; calibrate only needs the closed-form scalar).
func bound(A *mat64.Dense, x0, u sets.Set, delta float64) float64 {
	an := matrixInfNorm(A)
	c := math.Exp(delta*an) - 1 - delta*an
	rX0 := sets.InfNorm(x0)
	if u == nil || sets.IsZeroLike(u) {
		return c * rX0
	}
	rU := sets.InfNorm(u)
	if an == 0 {
		return c * rX0
	}
	ratio := rU / an
	alpha := c * (rX0 + ratio)
	beta := c * ratio
	return alpha + beta
}

func matrixInfNorm(A *mat64.Dense) float64 {
	r, c := A.Dims()
	m := 0.0
	for i := 0; i < r; i++ {
		s := 0.0
		for j := 0; j < c; j++ {
			s += math.Abs(A.At(i, j))
		}
		if s > m {
			m = s
		}
	}
	return m
}
