package model

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Prior is a one-dimensional prior distribution. LogValue returns the
// log of the density at x, Density the density itself; both are needed
// because the fused posterior works in log space while the
// parallel-tempering prior half consumes plain densities.
type Prior interface {
	LogValue(x float64) float64
	Density(x float64) float64
}

type distPrior struct {
	d interface {
		LogProb(float64) float64
		Prob(float64) float64
	}
}

func (p distPrior) LogValue(x float64) float64 { return p.d.LogProb(x) }
func (p distPrior) Density(x float64) float64  { return p.d.Prob(x) }

// NewUniformPrior returns a box prior on [min, max]. Outside the box
// the log value is -Inf.
func NewUniformPrior(min, max float64) Prior {
	if max <= min {
		panic("max <= min")
	}
	return distPrior{distuv.Uniform{Min: min, Max: max}}
}

// NewNormalPrior returns a Gaussian prior with the given mean and
// standard deviation.
func NewNormalPrior(mu, sigma float64) Prior {
	if sigma <= 0 {
		panic("sigma should be > 0")
	}
	return distPrior{distuv.Normal{Mu: mu, Sigma: sigma}}
}

// NewGammaPrior returns a gamma prior with the given shape and scale.
func NewGammaPrior(shape, scale float64) Prior {
	if shape <= 0 || scale <= 0 {
		panic("shape and scale of gamma distribution must be > 0")
	}
	return distPrior{distuv.Gamma{Alpha: shape, Beta: 1 / scale}}
}

// NewExponentialPrior returns an exponential prior with the given rate.
func NewExponentialPrior(rate float64) Prior {
	if rate <= 0 {
		panic("exponential rate should be > 0")
	}
	return distPrior{distuv.Exponential{Rate: rate}}
}

// LogUniformPrior is a Jeffreys prior with density proportional to 1/x
// on [min, max], the usual choice for normalizations spanning decades.
type LogUniformPrior struct {
	min, max float64
	norm     float64
}

// NewLogUniformPrior returns a log-uniform prior on [min, max] with
// 0 < min < max.
func NewLogUniformPrior(min, max float64) *LogUniformPrior {
	if min <= 0 || max <= min {
		panic("log-uniform prior requires 0 < min < max")
	}
	return &LogUniformPrior{min: min, max: max, norm: math.Log(math.Log(max / min))}
}

// LogValue returns the log density at x.
func (p *LogUniformPrior) LogValue(x float64) float64 {
	if x < p.min || x > p.max {
		return math.Inf(-1)
	}
	return -math.Log(x) - p.norm
}

// Density returns the density at x.
func (p *LogUniformPrior) Density(x float64) float64 {
	return math.Exp(p.LogValue(x))
}

// FuncPrior adapts plain functions to the Prior interface. If Dens is
// nil the density is derived from Log.
type FuncPrior struct {
	Log  func(float64) float64
	Dens func(float64) float64
}

// LogValue returns the log density at x.
func (p FuncPrior) LogValue(x float64) float64 {
	return p.Log(x)
}

// Density returns the density at x.
func (p FuncPrior) Density(x float64) float64 {
	if p.Dens != nil {
		return p.Dens(x)
	}
	return math.Exp(p.Log(x))
}
