package modelsrc

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/samcharles93/ldc/pkg/langid"
)

// jsonModel is the on-disk JSON layout. nb_ptc is a list of per-feature
// rows, each holding one weight per language.
type jsonModel struct {
	TkNextmove []uint32            `json:"tk_nextmove"`
	TkOutput   map[string][]uint32 `json:"tk_output"`
	NbPC       []float64           `json:"nb_pc"`
	NbPTC      [][]float64         `json:"nb_ptc"`
	NbClasses  []string            `json:"nb_classes"`
}

// DecodeJSON parses a JSON model and validates it.
func DecodeJSON(data []byte) (*langid.Model, error) {
	var raw jsonModel
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse json: %v", langid.ErrInvalidModel, err)
	}

	m := &langid.Model{
		NumFeats:   len(raw.NbPTC),
		TkNextmove: raw.TkNextmove,
		TkOutput:   make(map[uint32][]uint32, len(raw.TkOutput)),
		NbPC:       raw.NbPC,
		NbClasses:  raw.NbClasses,
	}
	if m.NumFeats > 0 {
		m.NumLangs = len(raw.NbPTC[0])
	}
	m.NbPTC = make([]float64, 0, m.NumFeats*m.NumLangs)
	for f, row := range raw.NbPTC {
		if len(row) != m.NumLangs {
			return nil, fmt.Errorf("%w: nb_ptc row %d has %d entries, want %d",
				langid.ErrShapeMismatch, f, len(row), m.NumLangs)
		}
		m.NbPTC = append(m.NbPTC, row...)
	}

	for key, feats := range raw.TkOutput {
		state, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: tk_output key %q is not a state id", langid.ErrInvalidModel, key)
		}
		m.TkOutput[uint32(state)] = feats
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}
