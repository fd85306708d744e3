package data

import (
	"github.com/cescalara/threeML/model"
)

// FuncData adapts a plain function to the DataSet contract. The
// function receives the bound model and returns the log-likelihood; it
// must be safe to call from copies when used with a worker pool.
type FuncData struct {
	name string
	fn   func(m model.Model) (float64, error)
	m    model.Model
}

// NewFuncData creates a function-backed dataset.
func NewFuncData(name string, fn func(m model.Model) (float64, error)) *FuncData {
	return &FuncData{name: name, fn: fn}
}

// Name returns the dataset name.
func (d *FuncData) Name() string {
	return d.name
}

// SetModel binds the dataset to a model.
func (d *FuncData) SetModel(m model.Model) error {
	d.m = m
	return nil
}

// LogLike calls the wrapped function on the bound model.
func (d *FuncData) LogLike() (float64, error) {
	return d.fn(d.m)
}

// Copy returns an unbound copy sharing the function.
func (d *FuncData) Copy() DataSet {
	return &FuncData{name: d.name, fn: d.fn}
}
