/*

Reach checks a safety property against the block-decomposed reachable
set of a linear affine dynamical system with bounded nondeterministic
inputs. Given a JSON model file describing the system, a
discretization step, and a horizon, it discretizes the system and runs
check_blocks, reporting the first violating step or 0 if the property
holds throughout.

	reach model.json

See reach -h for the full flag set, including -approx-model,
-lazy-expm, -eager, -checkpoint, and -plot.

*/
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/reach/discretize"
	"bitbucket.org/Davydov/reach/expmat"
	"bitbucket.org/Davydov/reach/progress"
	"bitbucket.org/Davydov/reach/reach"
)

var log = logging.MustGetLogger("reach")
var formatter = logging.MustStringFormatter(`%{message}`)

var (
	app = kingpin.New("reach", "block-decomposed reachability checker for linear affine systems")

	modelFileName = app.Arg("model", "JSON model file").Required().ExistingFile()

	approxModel = app.Flag("approx-model", "discretization model "+
		"(nobloating, forward, backward, firstorder)").Default("nobloating").String()
	padeExpm  = app.Flag("pade", "use the Pade-approximant matrix exponential instead of eigendecomposition").Bool()
	lazyExpm  = app.Flag("lazy-expm", "defer materializing the matrix exponential").Bool()
	lazySih   = app.Flag("lazy-sih", "keep the symmetric interval hull lazy instead of materializing a Box").Bool()
	parallel  = app.Flag("parallel", "use parallel SIH/column-extraction routines where available").Bool()
	sparse    = app.Flag("sparse-aware", "skip all-zero Phi^k sub-blocks during accumulation").Bool()
	eager     = app.Flag("eager", "stop at the first violating step instead of running the full horizon").Bool()
	steps     = app.Flag("steps", "override the model file's step count").Int()

	checkpointFile     = app.Flag("checkpoint", "bbolt file to checkpoint run state to").String()
	checkpointInterval = app.Flag("checkpoint-interval", "minimum seconds between checkpoint saves").Default("30").Float64()

	plotFile = app.Flag("plot", "write an SVG flowpipe plot of the checked blocks' support envelope to this path").String()

	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
)

func approxModelFromString(s string) (discretize.ApproxModel, error) {
	switch discretize.ApproxModel(s) {
	case discretize.NoBloating, discretize.Forward, discretize.Backward, discretize.FirstOrder:
		return discretize.ApproxModel(s), nil
	}
	return "", fmt.Errorf("unknown approx model: %s", s)
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logging.SetFormatter(formatter)
	logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))
	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "reach")
	logging.SetLevel(level, "progress")
	logging.SetLevel(level, "calibrate")

	m, err := loadModel(*modelFileName)
	if err != nil {
		log.Fatal("error loading model:", err)
	}

	cs, err := m.continuousSystem()
	if err != nil {
		log.Fatal("error building continuous system:", err)
	}

	am, err := approxModelFromString(*approxModel)
	if err != nil {
		log.Fatal(err)
	}

	dOpts := discretize.Options{
		ApproxModel: am,
		PadeExpm:    *padeExpm,
		LazyExpm:    *lazyExpm,
		LazySIH:     *lazySih,
		Parallel:    *parallel,
	}

	ds, err := discretize.Discretize(cs, m.Delta, dOpts)
	if err != nil {
		log.Fatal("error discretizing system:", err)
	}

	n := cs.Dim()
	partition, err := m.partition(n)
	if err != nil {
		log.Fatal("error building partition:", err)
	}

	nSteps := m.Steps
	if *steps > 0 {
		nSteps = *steps
	}

	var sink reach.Sink = &progress.LoggingSink{}
	var checkpointIO *progress.CheckpointIO
	if *checkpointFile != "" {
		db, err := bolt.Open(*checkpointFile, 0666, nil)
		if err != nil {
			log.Fatal("error opening checkpoint file:", err)
		}
		defer db.Close()
		checkpointIO = progress.NewCheckpointIO(db, []byte("run"), *checkpointInterval)
		if state, err := checkpointIO.Load(); err == nil && state != nil && !state.Final {
			log.Noticef("unfinished checkpoint at step %d is not resumed; checking starts at step 1", state.Step)
		}
	}

	phi := expmat.MatrixExp(ds.Phi)

	blocksX0, err := explodeX0(ds, partition)
	if err != nil {
		log.Fatal("error splitting X0 across partition blocks:", err)
	}

	opts := reach.Options{
		Blocks:     m.blocks(len(partition)),
		Partition:  partition,
		Eager:      *eager,
		Property:   m.property(),
		OverApprox: identityOverApprox,
		SparseAware: *sparse,
		Parallel:   *parallel,
		Progress:   sink,
	}

	start := time.Now()
	violation, err := reach.CheckBlocks(phi, blocksX0, ds.U, n, nSteps, opts)
	if err != nil {
		log.Fatal("error checking blocks:", err)
	}
	elapsed := time.Since(start)

	if checkpointIO != nil {
		checkpointIO.Save(&progress.RunState{Step: nSteps, ViolationIndex: violation, Final: true})
	}

	if violation == 0 {
		log.Noticef("property holds for all %d steps (%v)", nSteps, elapsed)
	} else {
		log.Noticef("property violated at step %d (%v)", violation, elapsed)
	}

	if *plotFile != "" {
		if err := plotFlowpipe(phi, blocksX0, ds.U, n, nSteps, partition, opts.Blocks, *plotFile); err != nil {
			log.Error("error plotting flowpipe:", err)
		}
	}

	fmt.Println(violation)
}
