package langid

import "fmt"

// Tables is the packed, read-only table set consumed by every emitter.
//
// The sparse output function is stored as compressed rows: the features
// entered at state i are TkOutput[TkOutputS[i] : TkOutputS[i]+TkOutputC[i]].
type Tables struct {
	Sizes

	TkNextmove []uint32
	TkOutputC  []uint32
	TkOutputS  []uint32
	TkOutput   []uint32

	NbPC      []float64
	NbPTC     []float64
	NbClasses []string
}

// Pack flattens a sparse state->features mapping into per-state counts,
// per-state start offsets and one flat feature array. States absent from
// output, or mapped to an empty list, get a zero count. Each list keeps its
// original order.
func Pack(numStates int, output map[uint32][]uint32) (counts, offsets, flat []uint32) {
	if numStates < 0 {
		panic(fmt.Sprintf("langid: negative state count %d", numStates))
	}
	counts = make([]uint32, numStates)
	offsets = make([]uint32, numStates)

	total := 0
	for s, feats := range output {
		if int64(s) < int64(numStates) {
			total += len(feats)
		}
	}
	flat = make([]uint32, 0, total)

	for i := range numStates {
		feats := output[uint32(i)]
		counts[i] = uint32(len(feats))
		offsets[i] = uint32(len(flat))
		flat = append(flat, feats...)
	}
	return counts, offsets, flat
}

// Unpack reverses Pack. Only states with at least one feature appear in the
// returned map.
func Unpack(counts, offsets, flat []uint32) (map[uint32][]uint32, error) {
	if len(counts) != len(offsets) {
		return nil, fmt.Errorf("%w: tk_output_c has %d entries, tk_output_s has %d",
			ErrShapeMismatch, len(counts), len(offsets))
	}
	out := make(map[uint32][]uint32)
	var next uint64
	for i := range counts {
		if uint64(offsets[i]) != next {
			return nil, fmt.Errorf("%w: tk_output_s[%d]=%d, want %d", ErrShapeMismatch, i, offsets[i], next)
		}
		end := next + uint64(counts[i])
		if end > uint64(len(flat)) {
			return nil, fmt.Errorf("%w: state %d slice [%d:%d] exceeds tk_output length %d",
				ErrShapeMismatch, i, next, end, len(flat))
		}
		if counts[i] > 0 {
			row := make([]uint32, counts[i])
			copy(row, flat[next:end])
			out[uint32(i)] = row
		}
		next = end
	}
	if next != uint64(len(flat)) {
		return nil, fmt.Errorf("%w: tk_output has %d trailing entries", ErrShapeMismatch, uint64(len(flat))-next)
	}
	return out, nil
}

// NewTables validates m and packs its output function. The returned tables
// share the classifier and transition slices with m; neither side may
// mutate them afterwards.
func NewTables(m *Model) (*Tables, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	sizes := m.Sizes()
	counts, offsets, flat := Pack(sizes.NumStates, m.TkOutput)
	return &Tables{
		Sizes:      sizes,
		TkNextmove: m.TkNextmove,
		TkOutputC:  counts,
		TkOutputS:  offsets,
		TkOutput:   flat,
		NbPC:       m.NbPC,
		NbPTC:      m.NbPTC,
		NbClasses:  m.NbClasses,
	}, nil
}

// Features returns the features entered at state, sliced from the packed
// array without copying.
func (t *Tables) Features(state int) []uint32 {
	start := t.TkOutputS[state]
	return t.TkOutput[start : start+t.TkOutputC[state]]
}

// Validate checks the packed tables for internal consistency: the shape
// invariants of Model plus the compressed-row prefix sums.
func (t *Tables) Validate() error {
	if err := t.Sizes.validate(); err != nil {
		return err
	}
	if len(t.TkNextmove) != t.NumStates*Alphabet {
		return fmt.Errorf("%w: tk_nextmove has %d entries, want %d x %d",
			ErrShapeMismatch, len(t.TkNextmove), t.NumStates, Alphabet)
	}
	if len(t.TkOutputC) != t.NumStates {
		return fmt.Errorf("%w: tk_output_c has %d entries, want %d", ErrShapeMismatch, len(t.TkOutputC), t.NumStates)
	}
	if err := validateTransitions(t.TkNextmove, t.NumStates); err != nil {
		return err
	}
	if err := validateClassifier(t.Sizes, t.NbPC, t.NbPTC, t.NbClasses); err != nil {
		return err
	}
	if _, err := Unpack(t.TkOutputC, t.TkOutputS, t.TkOutput); err != nil {
		return err
	}
	return validateFeatures(t.TkOutput, t.NumFeats)
}

// Model rebuilds the canonical tables from the packed form.
func (t *Tables) Model() (*Model, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	output, err := Unpack(t.TkOutputC, t.TkOutputS, t.TkOutput)
	if err != nil {
		return nil, err
	}
	return &Model{
		NumFeats:   t.NumFeats,
		NumLangs:   t.NumLangs,
		TkNextmove: t.TkNextmove,
		TkOutput:   output,
		NbPC:       t.NbPC,
		NbPTC:      t.NbPTC,
		NbClasses:  t.NbClasses,
	}, nil
}
