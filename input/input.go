// Package input implements NonDeterministicInput: a uniform iterator
// abstraction over constant or time-varying set-valued inputs,
// dispatched by variant rather than by inheritance, the way
// optimize.FloatParameter is an interface with distinct concrete
// implementations rather than a class hierarchy.
package input

import (
	"errors"

	"bitbucket.org/Davydov/reach/sets"
)

// State is an opaque iteration position: the input set currently in
// scope, and a 1-based index into the underlying sequence.
type State struct {
	set   sets.Set
	index int
}

// Set returns the set associated with this state.
func (s State) Set() sets.Set { return s.set }

// Index returns the 1-based position of this state.
func (s State) Index() int { return s.index }

// NonDeterministicInput is implemented by ConstantInput and
// VaryingInput.
type NonDeterministicInput interface {
	// Start returns the initial iteration state.
	Start() State
	// Next advances from s to the following state.
	Next(s State) State
	// Done reports whether s is past the end of the sequence.
	Done(s State) bool
	// Length returns the sequence length (1 for ConstantInput, by
	// the convention that it stores a single value even though it
	// is semantically infinite).
	Length() int
	// Dim returns the ambient dimension of every set in the
	// sequence.
	Dim() int
}

// ConstantInput is a NonDeterministicInput whose every state yields
// the same set U.
type ConstantInput struct {
	U sets.Set
}

// NewConstantInput builds a ConstantInput over U.
func NewConstantInput(u sets.Set) ConstantInput {
	return ConstantInput{U: u}
}

func (c ConstantInput) Start() State        { return State{set: c.U, index: 1} }
func (c ConstantInput) Next(s State) State  { return State{set: c.U, index: 1} }
func (c ConstantInput) Done(s State) bool   { return false }
func (c ConstantInput) Length() int         { return 1 }
func (c ConstantInput) Dim() int            { return c.U.Dim() }

// VaryingInput is a NonDeterministicInput over a finite sequence of
// sets U_1..U_m; its k-th state yields U_k and terminates once the
// index runs past m.
type VaryingInput struct {
	Us []sets.Set
}

// NewVaryingInput builds a VaryingInput over the given sequence. The
// sequence must be non-empty and every set must share the same
// dimension.
func NewVaryingInput(us []sets.Set) (VaryingInput, error) {
	if len(us) == 0 {
		return VaryingInput{}, errors.New("input: VaryingInput requires at least one set")
	}
	n := us[0].Dim()
	for i, u := range us {
		if u.Dim() != n {
			return VaryingInput{}, errors.New("input: VaryingInput sets must share a common dimension")
		}
		_ = i
	}
	return VaryingInput{Us: us}, nil
}

func (v VaryingInput) Start() State { return State{set: v.Us[0], index: 1} }

func (v VaryingInput) Next(s State) State {
	k := s.index + 1
	if k-1 < len(v.Us) {
		return State{set: v.Us[k-1], index: k}
	}
	return State{set: nil, index: k}
}

func (v VaryingInput) Done(s State) bool { return s.index > len(v.Us) }

func (v VaryingInput) Length() int { return len(v.Us) }

func (v VaryingInput) Dim() int { return v.Us[0].Dim() }

// MapMatrix applies a linear map (represented by a mulFunc closure,
// supplied by the caller so this package stays independent of a
// concrete matrix type) to every set of u, returning a
// NonDeterministicInput of the same variant: M*ConstantInput(U) =
// ConstantInput(M*U), and likewise element-wise for VaryingInput.
func MapMatrix(u NonDeterministicInput, mul func(sets.Set) (sets.Set, error)) (NonDeterministicInput, error) {
	switch v := u.(type) {
	case ConstantInput:
		mapped, err := mul(v.U)
		if err != nil {
			return nil, err
		}
		return ConstantInput{U: mapped}, nil
	case VaryingInput:
		out := make([]sets.Set, len(v.Us))
		for i, ui := range v.Us {
			mapped, err := mul(ui)
			if err != nil {
				return nil, err
			}
			out[i] = mapped
		}
		return VaryingInput{Us: out}, nil
	default:
		return nil, errors.New("input: unknown NonDeterministicInput variant")
	}
}
