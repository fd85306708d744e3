// Package data defines the dataset side of a Bayesian analysis: the
// DataSet contract, the ordered List aggregating per-dataset
// log-likelihoods, and concrete datasets for synthetic observations.
package data

import (
	"github.com/pkg/errors"

	"github.com/cescalara/threeML/model"
)

// ErrModelAssertion signals that the current model configuration lies
// outside the region a dataset can evaluate (for example a non-positive
// width). It is an expected sampling outcome, not a failure: evaluators
// translate it into a log-probability of -Inf.
var ErrModelAssertion = errors.New("model assertion violated")

// DataSet is a single dataset contributing a log-likelihood term.
type DataSet interface {
	// Name identifies the dataset in error messages and reports.
	Name() string
	// SetModel binds the dataset to a likelihood model. Called once
	// before sampling and again on copies.
	SetModel(m model.Model) error
	// LogLike returns the dataset log-likelihood for the current
	// parameter values of the bound model. A configuration the
	// dataset cannot evaluate is reported as ErrModelAssertion.
	LogLike() (float64, error)
	// Copy returns an independent, unbound copy for pool workers.
	Copy() DataSet
}

// List is an ordered collection of datasets sharing one model.
type List struct {
	sets []DataSet
}

// NewList creates a list from datasets. Duplicate names panic.
func NewList(sets ...DataSet) *List {
	seen := make(map[string]bool, len(sets))
	for _, ds := range sets {
		if seen[ds.Name()] {
			panic("duplicate dataset name: " + ds.Name())
		}
		seen[ds.Name()] = true
	}
	return &List{sets: sets}
}

// Sets returns the datasets in order.
func (l *List) Sets() []DataSet {
	return l.sets
}

// SetModel binds every dataset to the model.
func (l *List) SetModel(m model.Model) error {
	for _, ds := range l.sets {
		if err := ds.SetModel(m); err != nil {
			return errors.Wrapf(err, "binding dataset %s", ds.Name())
		}
	}
	return nil
}

// LogLike returns the aggregate log-likelihood, the sum over all
// datasets. The first error stops the sum; an ErrModelAssertion from
// any dataset surfaces unchanged so callers can match it.
func (l *List) LogLike() (float64, error) {
	total := 0.0
	for _, ds := range l.sets {
		ll, err := ds.LogLike()
		if err != nil {
			if errors.Is(err, ErrModelAssertion) {
				return 0, err
			}
			return 0, errors.Wrapf(err, "dataset %s", ds.Name())
		}
		total += ll
	}
	return total, nil
}

// Copy returns a list of independent, unbound dataset copies.
func (l *List) Copy() *List {
	sets := make([]DataSet, len(l.sets))
	for i, ds := range l.sets {
		sets[i] = ds.Copy()
	}
	return &List{sets: sets}
}
