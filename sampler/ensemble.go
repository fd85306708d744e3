package sampler

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Ensemble is the affine-invariant stretch-move sampler of Goodman &
// Weare. The ensemble is split into two halves; each half is updated
// against the other, so every proposal of a batch can be evaluated
// concurrently.
type Ensemble struct {
	nWalkers int
	nDim     int

	logProb   LogProbFunc
	pool      Mapper
	workerFns []LogProbFunc

	a   float64
	rnd *rand.Rand

	pos    *mat.Dense
	lnprob []float64

	chain      [][]float64
	accepted   []int
	iterations int
}

// NewEnsemble creates a stretch-move sampler with nWalkers walkers
// over an nDim-dimensional target. The walker count must be even and
// at least twice the dimension.
func NewEnsemble(nWalkers, nDim int, logProb LogProbFunc, cfg Config) (*Ensemble, error) {
	switch {
	case nDim < 1:
		return nil, errors.Errorf("ensemble: dimension %d, need at least 1", nDim)
	case nWalkers%2 != 0:
		return nil, errors.Errorf("ensemble: %d walkers, need an even number", nWalkers)
	case nWalkers < 2*nDim:
		return nil, errors.Errorf("ensemble: %d walkers for %d dimensions, need at least %d", nWalkers, nDim, 2*nDim)
	case logProb == nil:
		return nil, errors.New("ensemble: nil target")
	}
	if cfg.StretchScale <= 1 {
		cfg.StretchScale = DefaultConfig().StretchScale
	}
	return &Ensemble{
		nWalkers: nWalkers,
		nDim:     nDim,
		logProb:  logProb,
		a:        cfg.StretchScale,
		rnd:      cfg.rng(),
		accepted: make([]int, nWalkers),
	}, nil
}

// SetPool makes the sampler evaluate each iteration's proposals on
// pool, worker w calling fns[w]. Every function must be safe to call
// independently of the others.
func (e *Ensemble) SetPool(pool Mapper, fns []LogProbFunc) {
	if pool == nil {
		e.pool, e.workerFns = nil, nil
		return
	}
	if len(fns) != pool.Workers() {
		panic("incorrect number of worker targets")
	}
	e.pool = pool
	e.workerFns = fns
}

// Walkers returns the number of walkers.
func (e *Ensemble) Walkers() int { return e.nWalkers }

// Dim returns the dimension of the target.
func (e *Ensemble) Dim() int { return e.nDim }

// Sample starts a run of n iterations from the ensemble p0, one row
// per walker. A nil p0 continues from the current position without
// re-evaluating the target. The run advances only as the returned
// iterator is consumed.
func (e *Ensemble) Sample(p0 *mat.Dense, n int) *Steps {
	s := &Steps{e: e, remaining: n}
	if p0 == nil {
		if e.pos == nil {
			s.err = errors.New("ensemble: no starting ensemble")
		}
		return s
	}
	r, c := p0.Dims()
	if r != e.nWalkers || c != e.nDim {
		s.err = errors.Errorf("ensemble: starting ensemble is %dx%d, want %dx%d", r, c, e.nWalkers, e.nDim)
		return s
	}
	e.pos = mat.DenseCopyOf(p0)
	points := make([][]float64, e.nWalkers)
	for k := range points {
		points[k] = e.pos.RawRowView(k)
	}
	lnprob, err := e.evalBatch(points)
	if err != nil {
		s.err = err
		return s
	}
	e.lnprob = lnprob
	return s
}

// Reset discards the retained chain and acceptance counts. The
// current position, log-probabilities and random state carry over, so
// sampling resumes where the previous run stopped.
func (e *Ensemble) Reset() {
	e.chain = nil
	e.accepted = make([]int, e.nWalkers)
	e.iterations = 0
}

// FlatChain returns the retained chain with one row per stored walker
// position, columns in target order.
func (e *Ensemble) FlatChain() *mat.Dense {
	return flatten(e.chain, e.nDim)
}

// AcceptanceFraction returns the per-walker fraction of accepted
// proposals since the last reset.
func (e *Ensemble) AcceptanceFraction() []float64 {
	frac := make([]float64, e.nWalkers)
	if e.iterations == 0 {
		return frac
	}
	for k, n := range e.accepted {
		frac[k] = float64(n) / float64(e.iterations)
	}
	return frac
}

// MeanAcceptanceFraction returns the acceptance fraction averaged
// over walkers.
func (e *Ensemble) MeanAcceptanceFraction() float64 {
	return stat.Mean(e.AcceptanceFraction(), nil)
}

// step advances the whole ensemble by one iteration and records it in
// the chain.
func (e *Ensemble) step() error {
	half := e.nWalkers / 2
	if err := e.update(0, half); err != nil {
		return err
	}
	if err := e.update(half, e.nWalkers); err != nil {
		return err
	}
	for k := 0; k < e.nWalkers; k++ {
		row := make([]float64, e.nDim)
		copy(row, e.pos.RawRowView(k))
		e.chain = append(e.chain, row)
	}
	e.iterations++
	return nil
}

// update moves the walkers in [lo, hi) by stretching against the
// complementary half of the ensemble.
func (e *Ensemble) update(lo, hi int) error {
	n := hi - lo
	clo, cn := 0, e.nWalkers/2
	if lo == 0 {
		clo = e.nWalkers / 2
	}

	zs := make([]float64, n)
	proposals := make([][]float64, n)
	for i := 0; i < n; i++ {
		k := lo + i
		j := clo + e.rnd.Intn(cn)
		z := stretchZ(e.a, e.rnd)
		zs[i] = z
		y := make([]float64, e.nDim)
		for d := 0; d < e.nDim; d++ {
			xj := e.pos.At(j, d)
			y[d] = xj + z*(e.pos.At(k, d)-xj)
		}
		proposals[i] = y
	}

	lnprob, err := e.evalBatch(proposals)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		k := lo + i
		lnpdiff := float64(e.nDim-1)*math.Log(zs[i]) + lnprob[i] - e.lnprob[k]
		// A NaN difference (both densities -Inf) rejects.
		if lnpdiff > math.Log(e.rnd.Float64()) {
			e.pos.SetRow(k, proposals[i])
			e.lnprob[k] = lnprob[i]
			e.accepted[k]++
		}
	}
	return nil
}

// evalBatch computes the target for every point, on the pool when one
// is attached. All evaluations of a batch run to completion before
// errors are reported.
func (e *Ensemble) evalBatch(points [][]float64) ([]float64, error) {
	out := make([]float64, len(points))
	if e.pool == nil {
		for i, x := range points {
			lp, err := e.logProb(x)
			if err != nil {
				return nil, err
			}
			out[i] = lp
		}
		return out, nil
	}
	errs := make([]error, len(points))
	e.pool.Run(len(points), func(worker, i int) {
		out[i], errs[i] = e.workerFns[worker](points[i])
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Steps iterates over the iterations of a run. Each call to Next
// advances the ensemble once; the accessors expose the state reached.
type Steps struct {
	e         *Ensemble
	remaining int
	err       error
}

// Next advances the run by one iteration. It returns false when the
// run is exhausted or a target evaluation failed.
func (s *Steps) Next() bool {
	if s.err != nil || s.remaining == 0 {
		return false
	}
	if err := s.e.step(); err != nil {
		s.err = err
		return false
	}
	s.remaining--
	return true
}

// Err returns the error that stopped the run, if any.
func (s *Steps) Err() error { return s.err }

// Position returns the current ensemble, one row per walker. The
// matrix is live and only valid until the next call to Next.
func (s *Steps) Position() *mat.Dense { return s.e.pos }

// LogProb returns the current per-walker log-probabilities. The slice
// is live and only valid until the next call to Next.
func (s *Steps) LogProb() []float64 { return s.e.lnprob }
