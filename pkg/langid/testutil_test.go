package langid

import "math/rand/v2"

// tinyModel is a 2-state, 3-feature, 2-language identifier.
func tinyModel() *Model {
	next := make([]uint32, 2*Alphabet)
	for b := range Alphabet {
		if b%2 == 1 {
			next[b] = 1
			next[Alphabet+b] = 1
		}
	}
	return &Model{
		NumFeats:   3,
		NumLangs:   2,
		TkNextmove: next,
		TkOutput:   map[uint32][]uint32{0: {1, 2}, 1: {}},
		NbPC:       []float64{-0.6931471805599453, -0.6931471805599453},
		NbPTC:      []float64{-1.5, -2.25, -0.1, -3.0000000000000004, -7e-300, -1e300},
		NbClasses:  []string{"en", "fr"},
	}
}

func randomOutput(rng *rand.Rand, numStates, numFeats int) map[uint32][]uint32 {
	out := make(map[uint32][]uint32)
	for s := range numStates {
		switch rng.IntN(4) {
		case 0:
			continue
		case 1:
			out[uint32(s)] = []uint32{}
		default:
			n := 1 + rng.IntN(5)
			feats := make([]uint32, n)
			for i := range feats {
				feats[i] = uint32(rng.IntN(numFeats))
			}
			out[uint32(s)] = feats
		}
	}
	return out
}
