// Package langid defines the tables of a byte-level Naive Bayes language
// identifier and the packed forms that are handed to standalone consumers.
package langid

import (
	"fmt"
	"math"
	"sort"
)

// Alphabet is the number of transitions stored per automaton state.
const Alphabet = 256

// Model holds the canonical tables of a trained identifier.
//
// NbPTC is stored flat, feature-major and language-minor, so the weight of
// feature f for language l lives at NbPTC[f*NumLangs+l].
type Model struct {
	NumFeats int
	NumLangs int

	TkNextmove []uint32
	TkOutput   map[uint32][]uint32

	NbPC      []float64
	NbPTC     []float64
	NbClasses []string
}

// Sizes are the three scalar dimensions every artifact carries.
type Sizes struct {
	NumFeats  int
	NumLangs  int
	NumStates int
}

// PTCSize is the number of entries in the flattened nb_ptc table.
func (s Sizes) PTCSize() int {
	return s.NumFeats * s.NumLangs
}

func (s Sizes) validate() error {
	if s.NumFeats <= 0 || s.NumLangs <= 0 || s.NumStates <= 0 {
		return fmt.Errorf("%w: num_feats=%d num_langs=%d num_states=%d must all be positive",
			ErrInvalidModel, s.NumFeats, s.NumLangs, s.NumStates)
	}
	if int64(s.NumFeats) > math.MaxInt32 || int64(s.NumLangs) > math.MaxInt32 || int64(s.NumStates) > math.MaxInt32 {
		return fmt.Errorf("%w: dimensions exceed int32", ErrInvalidModel)
	}
	return nil
}

// NumStates is derived from the transition table length.
func (m *Model) NumStates() int {
	return len(m.TkNextmove) / Alphabet
}

func (m *Model) Sizes() Sizes {
	return Sizes{
		NumFeats:  m.NumFeats,
		NumLangs:  m.NumLangs,
		NumStates: m.NumStates(),
	}
}

// Validate checks the load-time invariants of the tables. It never mutates m.
func (m *Model) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil model", ErrInvalidModel)
	}
	if len(m.TkNextmove)%Alphabet != 0 {
		return fmt.Errorf("%w: tk_nextmove length %d is not a multiple of %d",
			ErrShapeMismatch, len(m.TkNextmove), Alphabet)
	}
	sizes := m.Sizes()
	if err := sizes.validate(); err != nil {
		return err
	}
	if err := validateTransitions(m.TkNextmove, sizes.NumStates); err != nil {
		return err
	}
	if err := validateClassifier(sizes, m.NbPC, m.NbPTC, m.NbClasses); err != nil {
		return err
	}
	for state, feats := range m.TkOutput {
		if int64(state) >= int64(sizes.NumStates) {
			return fmt.Errorf("%w: tk_output state %d >= num_states %d", ErrShapeMismatch, state, sizes.NumStates)
		}
		if err := validateFeatures(feats, sizes.NumFeats); err != nil {
			return fmt.Errorf("tk_output state %d: %w", state, err)
		}
	}
	return nil
}

// States returns the ids of states with a non-empty output list, ascending.
func (m *Model) States() []uint32 {
	out := make([]uint32, 0, len(m.TkOutput))
	for s, feats := range m.TkOutput {
		if len(feats) > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func validateTransitions(next []uint32, numStates int) error {
	for i, s := range next {
		if int64(s) >= int64(numStates) {
			return fmt.Errorf("%w: tk_nextmove[%d][%d]=%d >= num_states %d",
				ErrShapeMismatch, i/Alphabet, i%Alphabet, s, numStates)
		}
	}
	return nil
}

func validateClassifier(sizes Sizes, pc, ptc []float64, classes []string) error {
	if len(ptc) != sizes.PTCSize() {
		return fmt.Errorf("%w: nb_ptc has %d entries, want %d x %d",
			ErrShapeMismatch, len(ptc), sizes.NumFeats, sizes.NumLangs)
	}
	if len(pc) != sizes.NumLangs {
		return fmt.Errorf("%w: nb_pc has %d entries, want %d", ErrShapeMismatch, len(pc), sizes.NumLangs)
	}
	if len(classes) != sizes.NumLangs {
		return fmt.Errorf("%w: nb_classes has %d labels, want %d", ErrShapeMismatch, len(classes), sizes.NumLangs)
	}
	return nil
}

func validateFeatures(feats []uint32, numFeats int) error {
	for _, f := range feats {
		if int64(f) >= int64(numFeats) {
			return fmt.Errorf("%w: feature %d >= num_feats %d", ErrFeatureRange, f, numFeats)
		}
	}
	return nil
}
