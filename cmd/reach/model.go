package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/reach/reach"
	"bitbucket.org/Davydov/reach/sets"
	"bitbucket.org/Davydov/reach/system"
)

// ballSpec is a JSON-friendly Ball2 descriptor: {"center":[...],"radius":r}.
type ballSpec struct {
	Center []float64 `json:"center"`
	Radius float64   `json:"radius"`
}

func (b ballSpec) set() (sets.Set, error) {
	if len(b.Center) == 0 {
		return nil, nil
	}
	return sets.NewBall2(b.Center, b.Radius)
}

// blockSpec is a JSON-friendly 1-indexed inclusive partition element,
// e.g. {"lo":1,"hi":2} or {"lo":3,"hi":3} for a singleton.
type blockSpec struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// propertySpec describes the single-direction safety check sup(S,d) <= threshold.
type propertySpec struct {
	Direction []float64 `json:"direction"`
	Threshold float64   `json:"threshold"`
}

// modelFile is the on-disk description of a reachability run: the
// continuous system, the discretization, and the check.
type modelFile struct {
	A         [][]float64    `json:"A"`
	X0        ballSpec       `json:"x0"`
	Input     *ballSpec      `json:"input,omitempty"`
	InputSeq  []ballSpec     `json:"input_sequence,omitempty"`
	Delta     float64        `json:"delta"`
	Steps     int            `json:"steps"`
	Partition []blockSpec    `json:"partition"`
	Blocks    []int          `json:"blocks"`
	Property  propertySpec   `json:"property"`
}

func loadModel(path string) (*modelFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readModel(f)
}

func readModel(r io.Reader) (*modelFile, error) {
	var m modelFile
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *modelFile) matrix() *mat64.Dense {
	n := len(m.A)
	dense := mat64.NewDense(n, n, nil)
	for i, row := range m.A {
		for j, v := range row {
			dense.Set(i, j, v)
		}
	}
	return dense
}

func (m *modelFile) continuousSystem() (*system.ContinuousSystem, error) {
	A := m.matrix()
	x0, err := m.X0.set()
	if err != nil {
		return nil, err
	}
	switch {
	case len(m.InputSeq) > 0:
		us := make([]sets.Set, len(m.InputSeq))
		for i, spec := range m.InputSeq {
			s, err := spec.set()
			if err != nil {
				return nil, err
			}
			us[i] = s
		}
		return system.NewContinuousVaryingInput(A, x0, us)
	case m.Input != nil:
		u, err := m.Input.set()
		if err != nil {
			return nil, err
		}
		return system.NewContinuousConstantInput(A, x0, u)
	default:
		return system.NewContinuousHomogeneous(A, x0)
	}
}

func (m *modelFile) partition(n int) (reach.Partition, error) {
	if len(m.Partition) == 0 {
		return reach.NewPartition(n, reach.NewBlock(1, n))
	}
	blocks := make([]reach.Block, len(m.Partition))
	for i, b := range m.Partition {
		blocks[i] = reach.NewBlock(b.Lo, b.Hi)
	}
	return reach.NewPartition(n, blocks...)
}

func (m *modelFile) blocks(n int) []int {
	if len(m.Blocks) == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return m.Blocks
}

func (m *modelFile) property() reach.Property {
	dir := m.Property.Direction
	threshold := m.Property.Threshold
	return func(s sets.Set) bool {
		return s.Support(dir) <= threshold
	}
}
