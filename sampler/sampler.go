// Package sampler implements ensemble Markov-chain Monte Carlo: the
// affine-invariant stretch-move sampler of Goodman & Weare and a
// parallel-tempered variant for multimodal targets. Samplers advance
// through pull iterators so callers can report progress without the
// algorithm knowing about it.
package sampler

import (
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// LogProbFunc evaluates the target log-density at a trial vector. An
// invalid region is reported as -Inf; an error is fatal and aborts the
// run.
type LogProbFunc func(x []float64) (float64, error)

// LogPriorFunc evaluates the prior term used by parallel tempering. It
// touches no datasets and cannot fail.
type LogPriorFunc func(x []float64) float64

// Mapper is the scatter/gather contract used to distribute one batch
// of evaluations per iteration across workers. Run must block until
// every task has returned.
type Mapper interface {
	Workers() int
	Run(n int, fn func(worker, i int))
}

// Handle is the part of a sampler exposed for diagnostics after a run.
type Handle interface {
	// FlatChain returns the retained chain flattened to one row per
	// position, one column per dimension.
	FlatChain() *mat.Dense
	// MeanAcceptanceFraction returns the acceptance fraction
	// averaged over the whole ensemble.
	MeanAcceptanceFraction() float64
}

// Config holds sampler settings.
type Config struct {
	// StretchScale is the scale parameter of the stretch move.
	StretchScale float64
	// TemperatureStep is the geometric spacing of the
	// parallel-tempering ladder.
	TemperatureStep float64
	// Src is the random source. A nil source is seeded from the
	// clock.
	Src rand.Source
}

// DefaultConfig returns the default sampler settings.
func DefaultConfig() Config {
	return Config{
		StretchScale:    2,
		TemperatureStep: 1.4142135623730951,
	}
}

func (c *Config) rng() *rand.Rand {
	if c.Src == nil {
		c.Src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return rand.New(c.Src)
}

// stretchZ draws from the stretch-move scale distribution,
// g(z) proportional to 1/sqrt(z) on [1/a, a].
func stretchZ(a float64, rnd *rand.Rand) float64 {
	s := (a-1)*rnd.Float64() + 1
	return s * s / a
}

// flatten builds a dense matrix from chain rows.
func flatten(rows [][]float64, nDim int) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(rows), nDim, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
