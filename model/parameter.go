// Package model provides likelihood models and their free parameters.
// A model owns named, source-scoped parameters; samplers only read and
// write parameter values and evaluate priors through the accessors
// defined here.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Parameter is a single scalar model parameter. It carries its current
// value, bounds, prior and unit. Parameters are created and owned by a
// model; samplers mutate the value through SetValue only.
type Parameter struct {
	source string
	name   string
	value  float64
	min    float64
	max    float64
	prior  Prior
	unit   string
	free   bool
	src    rand.Source
}

// NewParameter creates a new free parameter belonging to a source.
// Bounds default to (-Inf, +Inf) and the prior to a wide uniform.
func NewParameter(source, name string, value float64) *Parameter {
	return &Parameter{
		source: source,
		name:   name,
		value:  value,
		min:    math.Inf(-1),
		max:    math.Inf(+1),
		prior:  NewUniformPrior(-1e6, 1e6),
		free:   true,
	}
}

// Source returns the name of the source owning the parameter.
func (p *Parameter) Source() string {
	return p.source
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the current parameter value.
func (p *Parameter) Value() float64 {
	return p.value
}

// SetValue sets the current parameter value.
func (p *Parameter) SetValue(v float64) {
	p.value = v
}

// SetBounds sets the minimum and maximum allowed values. The bounds are
// used by RandomizedValue; keeping the chain inside them is the prior's
// job.
func (p *Parameter) SetBounds(min, max float64) {
	if max <= min {
		panic("max <= min")
	}
	p.min = min
	p.max = max
}

// Min returns the lower parameter bound.
func (p *Parameter) Min() float64 {
	return p.min
}

// Max returns the upper parameter bound.
func (p *Parameter) Max() float64 {
	return p.max
}

// SetPrior sets the parameter prior.
func (p *Parameter) SetPrior(prior Prior) {
	if prior == nil {
		panic("nil prior")
	}
	p.prior = prior
}

// Prior returns the parameter prior.
func (p *Parameter) Prior() Prior {
	return p.prior
}

// SetUnit sets the physical unit string.
func (p *Parameter) SetUnit(unit string) {
	p.unit = unit
}

// Unit returns the physical unit string.
func (p *Parameter) Unit() string {
	return p.unit
}

// Fix marks the parameter as fixed, removing it from the free set.
func (p *Parameter) Fix() {
	p.free = false
}

// Free marks the parameter as free.
func (p *Parameter) Free() {
	p.free = true
}

// IsFree returns true if the parameter is free.
func (p *Parameter) IsFree() bool {
	return p.free
}

// PriorLogValue returns the log of the prior density at the current
// value.
func (p *Parameter) PriorLogValue() float64 {
	return p.prior.LogValue(p.value)
}

// PriorDensity returns the prior density at x. This is a separate
// operation from PriorLogValue; parallel-tempering likelihood splitting
// uses it directly.
func (p *Parameter) PriorDensity(x float64) float64 {
	return p.prior.Density(x)
}

// SetRandSource sets the random source used by RandomizedValue.
// A nil source uses the global one.
func (p *Parameter) SetRandSource(src rand.Source) {
	p.src = src
}

// RandomizedValue draws a value around the current one with standard
// deviation fracVariance*|value|. Draws falling outside the bounds are
// reflected back in.
func (p *Parameter) RandomizedValue(fracVariance float64) float64 {
	sd := fracVariance * math.Abs(p.value)
	if sd == 0 {
		// flat spread for a parameter sitting at zero
		sd = fracVariance
	}
	n := distuv.Normal{Mu: p.value, Sigma: sd, Src: p.src}
	return p.reflect(n.Rand())
}

// reflect folds v back into [min, max].
func (p *Parameter) reflect(v float64) float64 {
	for v < p.min || v > p.max {
		if v < p.min {
			v = p.min + (p.min - v)
		}
		if v > p.max {
			v = p.max - (v - p.max)
		}
	}
	return v
}

// ParamKey identifies a parameter by source and name.
type ParamKey struct {
	Source string
	Name   string
}

// String returns the key as source_of_name, the form used in reports.
func (k ParamKey) String() string {
	return fmt.Sprintf("%s_of_%s", k.Source, k.Name)
}

// FreeParameters is an ordered registry of free parameters. The slice
// order fixes the trial-vector layout for a whole sampling run.
type FreeParameters []*Parameter

// Keys returns the (source, name) keys in registry order.
func (fp FreeParameters) Keys() []ParamKey {
	keys := make([]ParamKey, len(fp))
	for i, par := range fp {
		keys[i] = ParamKey{par.Source(), par.Name()}
	}
	return keys
}

// Names returns source_of_name strings in registry order.
func (fp FreeParameters) Names() []string {
	s := make([]string, len(fp))
	for i, par := range fp {
		s[i] = ParamKey{par.Source(), par.Name()}.String()
	}
	return s
}

// Values stores the current parameter values in v, in registry order.
// If v is nil a new slice is allocated.
func (fp FreeParameters) Values(v []float64) []float64 {
	if v == nil {
		v = make([]float64, len(fp))
	}
	if len(v) != len(fp) {
		panic("incorrect number of parameters")
	}
	for i, par := range fp {
		v[i] = par.Value()
	}
	return v
}

// SetValues assigns a trial vector to the parameters in registry order.
// A length mismatch is a programmer error and panics.
func (fp FreeParameters) SetValues(v []float64) {
	if len(v) != len(fp) {
		panic("incorrect number of parameters")
	}
	for i, par := range fp {
		par.SetValue(v[i])
	}
}

// SetRandSource sets the randomization source of every parameter.
func (fp FreeParameters) SetRandSource(src rand.Source) {
	for _, par := range fp {
		par.SetRandSource(src)
	}
}

// Snapshot returns a copy of the current values.
func (fp FreeParameters) Snapshot() []float64 {
	return fp.Values(nil)
}

// Restore assigns previously snapshotted values.
func (fp FreeParameters) Restore(v []float64) {
	fp.SetValues(v)
}

// MarshalJSON encodes the registry as an ordered source_of_name to
// value object.
func (fp FreeParameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, par := range fp {
		if i != 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(ParamKey{par.Source(), par.Name()}.String())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(par.Value())
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON assigns values from a source_of_name to value object.
// Unknown names are rejected, missing ones keep their current value.
func (fp FreeParameters) UnmarshalJSON(b []byte) error {
	m := make(map[string]float64)
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return fp.SetFromMap(m)
}

// SetFromMap assigns values from a source_of_name to value map.
func (fp FreeParameters) SetFromMap(m map[string]float64) error {
	names := make(map[string]*Parameter, len(fp))
	for _, par := range fp {
		names[ParamKey{par.Source(), par.Name()}.String()] = par
	}
	for name, v := range m {
		par, ok := names[name]
		if !ok {
			return fmt.Errorf("unknown parameter: %s", name)
		}
		par.SetValue(v)
	}
	return nil
}
