package data

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cescalara/threeML/model"
)

// GaussianData holds independent observations of a Gaussian line: each
// point is normally distributed around the source mean with the source
// width. It binds to the parameters (source, "mu") and (source,
// "sigma") of the model.
type GaussianData struct {
	name   string
	source string
	obs    []float64

	mu    *model.Parameter
	sigma *model.Parameter
}

// NewGaussianData creates a dataset from observed values for the named
// source.
func NewGaussianData(name, source string, obs []float64) *GaussianData {
	return &GaussianData{name: name, source: source, obs: obs}
}

// Name returns the dataset name.
func (d *GaussianData) Name() string {
	return d.name
}

// SetModel binds the dataset to the mu and sigma parameters of its
// source.
func (d *GaussianData) SetModel(m model.Model) error {
	mu, ok := m.Lookup(d.source, "mu")
	if !ok {
		return errors.Errorf("model has no parameter %s/mu", d.source)
	}
	sigma, ok := m.Lookup(d.source, "sigma")
	if !ok {
		return errors.Errorf("model has no parameter %s/sigma", d.source)
	}
	d.mu = mu
	d.sigma = sigma
	return nil
}

// LogLike returns the sum of per-point Gaussian log-densities. A
// non-positive width cannot be evaluated and is reported as
// ErrModelAssertion.
func (d *GaussianData) LogLike() (float64, error) {
	if d.mu == nil || d.sigma == nil {
		return 0, errors.New("dataset not bound to a model")
	}
	sigma := d.sigma.Value()
	if sigma <= 0 {
		return 0, errors.Wrapf(ErrModelAssertion, "non-positive width %v", sigma)
	}
	n := distuv.Normal{Mu: d.mu.Value(), Sigma: sigma}
	ll := 0.0
	for _, y := range d.obs {
		ll += n.LogProb(y)
	}
	return ll, nil
}

// Copy returns an unbound copy sharing the read-only observations.
func (d *GaussianData) Copy() DataSet {
	return &GaussianData{name: d.name, source: d.source, obs: d.obs}
}
