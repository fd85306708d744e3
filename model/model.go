package model

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// Model is the likelihood-model collaborator contract consumed by the
// Bayesian analysis: an ordered registry of free parameters, parameter
// lookup by identity, and a deep copy for pool workers.
type Model interface {
	// FreeParameters returns the free parameters in a fixed order.
	// The order defines the trial-vector layout.
	FreeParameters() FreeParameters
	// Lookup returns the parameter with the given source and name.
	Lookup(source, name string) (*Parameter, bool)
	// Copy returns an independent deep copy of the model. Every
	// parallel worker evaluates its own copy.
	Copy() Model
}

// SourceModel is a likelihood model holding parameters grouped by
// source, in registration order.
type SourceModel struct {
	params []*Parameter
	index  map[ParamKey]*Parameter
}

// NewSourceModel creates an empty model.
func NewSourceModel() *SourceModel {
	return &SourceModel{
		index: make(map[ParamKey]*Parameter),
	}
}

// Add registers a parameter. Registration order is preserved and fixes
// the trial-vector layout; registering the same (source, name) twice
// panics.
func (m *SourceModel) Add(p *Parameter) {
	key := ParamKey{p.Source(), p.Name()}
	if _, ok := m.index[key]; ok {
		panic(fmt.Sprintf("duplicate parameter %s", key))
	}
	m.params = append(m.params, p)
	m.index[key] = p
}

// Lookup returns the parameter with the given source and name.
func (m *SourceModel) Lookup(source, name string) (*Parameter, bool) {
	p, ok := m.index[ParamKey{source, name}]
	return p, ok
}

// FreeParameters returns the free parameters in registration order.
func (m *SourceModel) FreeParameters() FreeParameters {
	fp := make(FreeParameters, 0, len(m.params))
	for _, p := range m.params {
		if p.IsFree() {
			fp = append(fp, p)
		}
	}
	return fp
}

// Parameters returns all parameters, free and fixed, in registration
// order.
func (m *SourceModel) Parameters() []*Parameter {
	return m.params
}

// SetRandSource sets the random source used for randomized values on
// all parameters.
func (m *SourceModel) SetRandSource(src rand.Source) {
	for _, p := range m.params {
		p.SetRandSource(src)
	}
}

// Copy returns an independent deep copy. Priors are immutable and
// shared; the copy gets no random source of its own.
func (m *SourceModel) Copy() Model {
	nm := NewSourceModel()
	for _, p := range m.params {
		np := &Parameter{
			source: p.source,
			name:   p.name,
			value:  p.value,
			min:    p.min,
			max:    p.max,
			prior:  p.prior,
			unit:   p.unit,
			free:   p.free,
		}
		nm.Add(np)
	}
	return nm
}
