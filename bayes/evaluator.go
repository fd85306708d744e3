// Package bayes runs Bayesian analyses of likelihood models: it fuses
// a model's priors with the likelihoods of a set of datasets into a
// posterior, samples the posterior with ensemble MCMC and aggregates
// the samples into per-parameter credible intervals.
package bayes

import (
	"math"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/cescalara/threeML/data"
	"github.com/cescalara/threeML/model"
)

var log = logging.MustGetLogger("bayes")

// Status classifies the outcome of a posterior evaluation.
type Status int

const (
	// Valid means the posterior has a finite log-density.
	Valid Status = iota
	// OutOfBounds means a trial value has no prior support.
	OutOfBounds
	// InvalidConfiguration means a dataset rejected the parameter
	// configuration.
	InvalidConfiguration
	// InvalidLikelihood means the likelihood came back non-finite.
	InvalidLikelihood
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case OutOfBounds:
		return "out of bounds"
	case InvalidConfiguration:
		return "invalid configuration"
	case InvalidLikelihood:
		return "invalid likelihood"
	}
	return "unknown"
}

// Evaluation is the outcome of evaluating the posterior at one trial
// vector. LogPosterior is meaningful only when Status is Valid.
type Evaluation struct {
	Status       Status
	LogPosterior float64
}

// LogDensity collapses the evaluation to the value a sampler
// consumes: the log-posterior when valid, -Inf otherwise.
func (ev Evaluation) LogDensity() float64 {
	if ev.Status == Valid {
		return ev.LogPosterior
	}
	return math.Inf(-1)
}

// Evaluator computes posterior, prior and likelihood terms for a
// model bound to a list of datasets. It mutates the model's parameter
// values on every call, so an evaluator must not be shared between
// goroutines; use Clone for concurrent evaluation.
type Evaluator struct {
	model model.Model
	data  *data.List
}

// NewEvaluator binds the datasets to the model and returns an
// evaluator over them.
func NewEvaluator(m model.Model, d *data.List) (*Evaluator, error) {
	if err := d.SetModel(m); err != nil {
		return nil, err
	}
	return &Evaluator{model: m, data: d}, nil
}

// Clone returns an evaluator over an independent copy of the model
// and datasets. Parameter values are copied; subsequent mutations do
// not propagate either way.
func (e *Evaluator) Clone() (*Evaluator, error) {
	m := e.model.Copy()
	d := e.data.Copy()
	ev, err := NewEvaluator(m, d)
	if err != nil {
		return nil, errors.Wrap(err, "cloning evaluator")
	}
	return ev, nil
}

// Parameters returns the model's free parameters in registration
// order. The order defines the meaning of every trial vector.
func (e *Evaluator) Parameters() model.FreeParameters {
	return e.model.FreeParameters()
}

// Eval assigns the trial values to the free parameters in
// registration order and evaluates the posterior. Assignment stops at
// the first value without prior support; values assigned up to that
// point are not rolled back. An error is returned only for fatal
// dataset failures.
func (e *Evaluator) Eval(x []float64) (Evaluation, error) {
	params := e.model.FreeParameters()
	if len(x) != len(params) {
		panic("incorrect number of parameters")
	}

	logPrior := 0.0
	for i, p := range params {
		p.SetValue(x[i])
		pv := p.PriorLogValue()
		if math.IsInf(pv, 0) || math.IsNaN(pv) {
			return Evaluation{Status: OutOfBounds}, nil
		}
		logPrior += pv
	}

	logLike, err := e.data.LogLike()
	if err != nil {
		if errors.Is(err, data.ErrModelAssertion) {
			return Evaluation{Status: InvalidConfiguration}, nil
		}
		return Evaluation{}, err
	}
	if math.IsInf(logLike, 0) || math.IsNaN(logLike) {
		log.Warningf("likelihood value is infinite for parameters %v", x)
		return Evaluation{Status: InvalidLikelihood}, nil
	}

	return Evaluation{Status: Valid, LogPosterior: logLike + logPrior}, nil
}

// LogPosterior is the sampler target: Eval collapsed to a float.
func (e *Evaluator) LogPosterior(x []float64) (float64, error) {
	ev, err := e.Eval(x)
	if err != nil {
		return 0, err
	}
	return ev.LogDensity(), nil
}

// LogPrior sums the prior densities at the trial values without
// assigning them to the model. Parallel tempering uses it as the
// untempered term of the target.
func (e *Evaluator) LogPrior(x []float64) float64 {
	params := e.model.FreeParameters()
	if len(x) != len(params) {
		panic("incorrect number of parameters")
	}
	sum := 0.0
	for i, p := range params {
		sum += p.PriorDensity(x[i])
	}
	return sum
}

// LogLike assigns the trial values to the free parameters and returns
// the summed log-likelihood of all datasets, without any prior term.
// Trial values outside the prior support are assigned all the same.
// Parallel tempering uses it as the tempered term of the target.
func (e *Evaluator) LogLike(x []float64) (float64, error) {
	params := e.model.FreeParameters()
	if len(x) != len(params) {
		panic("incorrect number of parameters")
	}
	params.SetValues(x)

	logLike, err := e.data.LogLike()
	if err != nil {
		if errors.Is(err, data.ErrModelAssertion) {
			return math.Inf(-1), nil
		}
		return 0, err
	}
	if math.IsInf(logLike, 0) || math.IsNaN(logLike) {
		log.Warningf("likelihood value is infinite for parameters %v", x)
		return math.Inf(-1), nil
	}
	return logLike, nil
}
