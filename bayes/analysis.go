package bayes

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/cescalara/threeML/checkpoint"
	"github.com/cescalara/threeML/data"
	"github.com/cescalara/threeML/model"
	"github.com/cescalara/threeML/parallel"
	"github.com/cescalara/threeML/sampler"
)

// Config holds the settings of a sampling run. Zero-valued counts and
// scales fall back to their defaults; BurnIn and Thin are taken
// literally.
type Config struct {
	// Walkers is the ensemble size per temperature. It must be even
	// and at least twice the number of free parameters.
	Walkers int
	// BurnIn is the number of warm-up iterations discarded before
	// production.
	BurnIn int
	// Samples is the number of retained production iterations.
	Samples int
	// Temps is the number of temperatures of a parallel-tempered
	// run.
	Temps int
	// Thin retains every Thin-th production iteration.
	Thin int
	// StartVariance is the fractional variance used to randomize
	// walker starting points around the current parameter values.
	StartVariance float64
	// StretchScale is the scale parameter of the stretch move.
	StretchScale float64
	// TemperatureStep is the geometric spacing of the temperature
	// ladder.
	TemperatureStep float64
	// Client distributes posterior evaluations across workers when
	// set; only the standard ensemble mode uses it. Parallel
	// tempering always evaluates in-process. Sampling is serial
	// otherwise.
	Client *parallel.Client
	// Progress receives per-iteration advancement. When nil,
	// progress goes to the package logger.
	Progress Progress
	// TableSink receives the credible-interval summary table. A nil
	// sink means standard output.
	TableSink io.Writer
	// Src seeds starting-point randomization and the sampler. A nil
	// source is seeded from the clock.
	Src rand.Source
}

// DefaultConfig returns the default sampling settings.
func DefaultConfig() Config {
	sc := sampler.DefaultConfig()
	return Config{
		Walkers:         20,
		BurnIn:          100,
		Samples:         500,
		Temps:           4,
		Thin:            1,
		StartVariance:   0.1,
		StretchScale:    sc.StretchScale,
		TemperatureStep: sc.TemperatureStep,
	}
}

// Analysis fuses a likelihood model and a collection of datasets into
// a posterior, samples it with ensemble MCMC and keeps the results of
// the last completed run.
type Analysis struct {
	eval *Evaluator
	cfg  Config

	cio *checkpoint.CheckpointIO

	runParams  model.FreeParameters
	rawSamples *mat.Dense
	samples    *Samples
	handle     sampler.Handle
}

// New binds the datasets to the model and prepares an analysis with
// the given configuration.
func New(m model.Model, d *data.List, cfg Config) (*Analysis, error) {
	if m == nil {
		return nil, errors.New("nil model")
	}
	if d == nil {
		return nil, errors.New("nil data list")
	}
	def := DefaultConfig()
	if cfg.Walkers == 0 {
		cfg.Walkers = def.Walkers
	}
	if cfg.Samples == 0 {
		cfg.Samples = def.Samples
	}
	if cfg.Temps == 0 {
		cfg.Temps = def.Temps
	}
	if cfg.StartVariance == 0 {
		cfg.StartVariance = def.StartVariance
	}
	if cfg.StretchScale == 0 {
		cfg.StretchScale = def.StretchScale
	}
	if cfg.TemperatureStep == 0 {
		cfg.TemperatureStep = def.TemperatureStep
	}
	switch {
	case cfg.Walkers < 0:
		return nil, errors.Errorf("negative number of walkers: %d", cfg.Walkers)
	case cfg.BurnIn < 0:
		return nil, errors.Errorf("negative burn-in length: %d", cfg.BurnIn)
	case cfg.Samples < 0:
		return nil, errors.Errorf("negative number of samples: %d", cfg.Samples)
	case cfg.Temps < 0:
		return nil, errors.Errorf("negative number of temperatures: %d", cfg.Temps)
	case cfg.Thin < 0:
		return nil, errors.Errorf("negative thinning interval: %d", cfg.Thin)
	case cfg.StartVariance < 0:
		return nil, errors.Errorf("negative starting variance: %v", cfg.StartVariance)
	}

	ev, err := NewEvaluator(m, d)
	if err != nil {
		return nil, err
	}
	if len(ev.Parameters()) == 0 {
		return nil, errors.New("model has no free parameters")
	}
	return &Analysis{eval: ev, cfg: cfg}, nil
}

// SetCheckpoint makes the analysis periodically persist its run state
// through cio.
func (a *Analysis) SetCheckpoint(cio *checkpoint.CheckpointIO) {
	a.cio = cio
}

// Sample samples the posterior with the affine-invariant ensemble
// sampler: a burn-in phase, a sampler reset, then a production phase
// whose chain is retained. It returns the samples keyed by source and
// parameter name. Parameter values are restored when sampling ends.
func (a *Analysis) Sample() (*Samples, error) {
	params := a.eval.Parameters()
	if len(params) == 0 {
		return nil, errors.New("model has no free parameters")
	}
	snap := params.Snapshot()
	defer params.Restore(snap)

	if a.cfg.Src != nil {
		params.SetRandSource(a.cfg.Src)
	}
	p0 := startingPoints(params, a.cfg.Walkers, a.cfg.StartVariance)

	ens, err := sampler.NewEnsemble(a.cfg.Walkers, len(params), a.eval.LogPosterior, a.samplerConfig())
	if err != nil {
		return nil, err
	}
	if a.cfg.Client != nil {
		pool := a.cfg.Client.View()
		fns := make([]sampler.LogProbFunc, pool.Workers())
		for w := range fns {
			clone, err := a.eval.Clone()
			if err != nil {
				return nil, err
			}
			fns[w] = clone.LogPosterior
		}
		ens.SetPool(pool, fns)
	}

	a.reportCheckpoint()

	steps := ens.Sample(p0, a.cfg.BurnIn)
	err = a.drive("burn-in", a.cfg.BurnIn, steps, func(done int) {
		a.saveCheckpoint("burn-in", done, steps.Position(), steps.LogProb(), false)
	})
	if err != nil {
		return nil, err
	}

	ens.Reset()

	steps = ens.Sample(nil, a.cfg.Samples)
	err = a.drive("sampling", a.cfg.Samples, steps, func(done int) {
		a.saveCheckpoint("sampling", done, steps.Position(), steps.LogProb(), false)
	})
	if err != nil {
		return nil, err
	}

	log.Noticef("mean acceptance fraction: %v", ens.MeanAcceptanceFraction())
	a.saveCheckpoint("sampling", a.cfg.Samples, steps.Position(), steps.LogProb(), true)

	a.install(params, ens, ens.FlatChain(), a.cfg.Walkers)
	return a.samples, nil
}

// SampleParallelTempering samples the posterior with parallel
// tempering: one walker ensemble per temperature over the split
// likelihood and prior evaluators. The retained chains of all
// temperatures are flattened together into the returned samples.
func (a *Analysis) SampleParallelTempering() (*Samples, error) {
	params := a.eval.Parameters()
	if len(params) == 0 {
		return nil, errors.New("model has no free parameters")
	}
	snap := params.Snapshot()
	defer params.Restore(snap)

	if a.cfg.Src != nil {
		params.SetRandSource(a.cfg.Src)
	}

	pt, err := sampler.NewPT(a.cfg.Temps, a.cfg.Walkers, len(params),
		a.eval.LogLike, a.eval.LogPrior, a.samplerConfig())
	if err != nil {
		return nil, err
	}

	p0 := make([]*mat.Dense, a.cfg.Temps)
	for t := range p0 {
		p0[t] = startingPoints(params, a.cfg.Walkers, a.cfg.StartVariance)
	}

	a.reportCheckpoint()

	steps := pt.Sample(p0, a.cfg.BurnIn)
	err = a.drive("burn-in", a.cfg.BurnIn, steps, func(done int) {
		a.saveCheckpoint("burn-in", done, steps.Positions()[0], steps.LogProb()[0], false)
	})
	if err != nil {
		return nil, err
	}

	pt.Reset()

	steps = pt.Sample(nil, a.cfg.Samples)
	err = a.drive("sampling", a.cfg.Samples, steps, func(done int) {
		a.saveCheckpoint("sampling", done, steps.Positions()[0], steps.LogProb()[0], false)
	})
	if err != nil {
		return nil, err
	}

	log.Noticef("mean acceptance fraction: %v", pt.MeanAcceptanceFraction())
	log.Infof("swap acceptance per temperature pair: %v", pt.SwapAcceptanceFraction())
	a.saveCheckpoint("sampling", a.cfg.Samples, steps.Positions()[0], steps.LogProb()[0], true)

	a.install(params, pt, pt.FlatChain(), a.cfg.Temps*a.cfg.Walkers)
	return a.samples, nil
}

// RawSamples returns the retained chain of the last completed run,
// one row per sample, columns in free-parameter registration order.
// It is nil before any run completes.
func (a *Analysis) RawSamples() *mat.Dense {
	return a.rawSamples
}

// Samples returns the per-parameter samples of the last completed
// run, or nil before any run completes.
func (a *Analysis) Samples() *Samples {
	return a.samples
}

// Sampler returns the sampler of the last completed run for external
// diagnostics, or nil before any run completes.
func (a *Analysis) Sampler() sampler.Handle {
	return a.handle
}

func (a *Analysis) samplerConfig() sampler.Config {
	return sampler.Config{
		StretchScale:    a.cfg.StretchScale,
		TemperatureStep: a.cfg.TemperatureStep,
		Src:             a.cfg.Src,
	}
}

func (a *Analysis) progress() Progress {
	if a.cfg.Progress != nil {
		return a.cfg.Progress
	}
	return &logProgress{}
}

// drive advances one sampling phase to completion, reporting progress
// every iteration and checkpointing on the configured interval. The
// error of a failed phase carries the phase name.
func (a *Analysis) drive(phase string, total int, steps interface {
	Next() bool
	Err() error
}, save func(done int)) error {
	prog := a.progress()
	prog.Start(phase, total)
	done := 0
	for steps.Next() {
		done++
		prog.Advance(done)
		if a.cio != nil && a.cio.Old() {
			save(done)
		}
	}
	if err := steps.Err(); err != nil {
		return errors.Wrapf(err, "%s failed", phase)
	}
	prog.Finish(phase)
	return nil
}

// install publishes the outputs of a completed run.
func (a *Analysis) install(params model.FreeParameters, h sampler.Handle, flat *mat.Dense, rowsPerIter int) {
	a.runParams = params
	a.handle = h
	a.rawSamples = thinChain(flat, rowsPerIter, a.cfg.Thin)
	a.samples = buildSamples(params.Keys(), a.rawSamples)
}

// reportCheckpoint surfaces any state left over from a previous run.
func (a *Analysis) reportCheckpoint() {
	if a.cio == nil {
		return
	}
	if _, err := a.cio.GetState(); err != nil {
		log.Warningf("cannot read checkpoint: %v", err)
	}
}

func (a *Analysis) saveCheckpoint(phase string, iter int, pos *mat.Dense, lnprob []float64, final bool) {
	if a.cio == nil {
		return
	}
	state := &checkpoint.RunState{
		Phase:     phase,
		Iteration: iter,
		Position:  matRows(pos),
		LogProb:   append([]float64(nil), lnprob...),
		Final:     final,
	}
	a.cio.Save(state)
}

func matRows(m *mat.Dense) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		copy(row, m.RawRowView(i))
		out[i] = row
	}
	return out
}

// thinChain keeps every thin-th iteration of a flat chain whose rows
// come in groups of rowsPerIter per iteration.
func thinChain(flat *mat.Dense, rowsPerIter, thin int) *mat.Dense {
	if thin <= 1 {
		return flat
	}
	rows, cols := flat.Dims()
	if rows == 0 || rowsPerIter <= 0 {
		return flat
	}
	iters := rows / rowsPerIter
	kept := (iters + thin - 1) / thin
	out := mat.NewDense(kept*rowsPerIter, cols, nil)
	oi := 0
	for it := 0; it < iters; it += thin {
		for r := 0; r < rowsPerIter; r++ {
			out.SetRow(oi, flat.RawRowView(it*rowsPerIter+r))
			oi++
		}
	}
	return out
}
