package bayes

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cescalara/threeML/model"
)

// Samples holds the posterior sample sequence of every free
// parameter, keyed by owning source and parameter name. Key order is
// the registration order of the free parameters, which is also the
// column order of the raw chain.
type Samples struct {
	keys []model.ParamKey
	cols map[model.ParamKey][]float64
}

// buildSamples rebuilds the mapping from scratch, column i of the raw
// chain becoming the sequence of parameter i.
func buildSamples(keys []model.ParamKey, raw *mat.Dense) *Samples {
	s := &Samples{
		keys: keys,
		cols: make(map[model.ParamKey][]float64, len(keys)),
	}
	rows, _ := raw.Dims()
	for i, key := range keys {
		col := make([]float64, rows)
		if rows > 0 {
			mat.Col(col, i, raw)
		}
		s.cols[key] = col
	}
	return s
}

// Keys returns the parameter keys in registration order.
func (s *Samples) Keys() []model.ParamKey {
	out := make([]model.ParamKey, len(s.keys))
	copy(out, s.keys)
	return out
}

// Sources returns the owning sources in first-appearance order.
func (s *Samples) Sources() []string {
	var out []string
	seen := make(map[string]bool)
	for _, k := range s.keys {
		if !seen[k.Source] {
			seen[k.Source] = true
			out = append(out, k.Source)
		}
	}
	return out
}

// Get returns the sample sequence of one parameter.
func (s *Samples) Get(source, name string) ([]float64, bool) {
	col, ok := s.cols[model.ParamKey{Source: source, Name: name}]
	return col, ok
}

// Len returns the number of samples per parameter.
func (s *Samples) Len() int {
	if len(s.keys) == 0 {
		return 0
	}
	return len(s.cols[s.keys[0]])
}
