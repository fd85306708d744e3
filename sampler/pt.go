package sampler

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PT is a parallel-tempered stretch-move sampler. It runs one walker
// ensemble per temperature against the flattened target
//
//	beta * log-likelihood + prior term
//
// and lets neighbouring temperatures exchange walkers after every
// iteration, so hot chains feed the cold one across likelihood modes.
type PT struct {
	nTemps   int
	nWalkers int
	nDim     int

	logLike  LogProbFunc
	logPrior LogPriorFunc

	betas []float64
	a     float64
	rnd   *rand.Rand

	pos     []*mat.Dense
	lnlike  [][]float64
	lnprior [][]float64

	chain         [][]float64
	accepted      [][]int
	swapsProposed []int
	swapsAccepted []int
	iterations    int
}

// NewPT creates a parallel-tempered sampler with nTemps geometrically
// spaced temperatures. The likelihood and the prior term are kept
// separate so only the likelihood is tempered.
func NewPT(nTemps, nWalkers, nDim int, logLike LogProbFunc, logPrior LogPriorFunc, cfg Config) (*PT, error) {
	switch {
	case nTemps < 1:
		return nil, errors.Errorf("pt: %d temperatures, need at least 1", nTemps)
	case nDim < 1:
		return nil, errors.Errorf("pt: dimension %d, need at least 1", nDim)
	case nWalkers%2 != 0:
		return nil, errors.Errorf("pt: %d walkers, need an even number", nWalkers)
	case nWalkers < 2*nDim:
		return nil, errors.Errorf("pt: %d walkers for %d dimensions, need at least %d", nWalkers, nDim, 2*nDim)
	case logLike == nil:
		return nil, errors.New("pt: nil likelihood")
	case logPrior == nil:
		return nil, errors.New("pt: nil prior")
	}
	if cfg.StretchScale <= 1 {
		cfg.StretchScale = DefaultConfig().StretchScale
	}
	if cfg.TemperatureStep <= 1 {
		cfg.TemperatureStep = DefaultConfig().TemperatureStep
	}
	betas := make([]float64, nTemps)
	for i := range betas {
		betas[i] = math.Pow(cfg.TemperatureStep, -float64(i))
	}
	pt := &PT{
		nTemps:        nTemps,
		nWalkers:      nWalkers,
		nDim:          nDim,
		logLike:       logLike,
		logPrior:      logPrior,
		betas:         betas,
		a:             cfg.StretchScale,
		rnd:           cfg.rng(),
		accepted:      make([][]int, nTemps),
		swapsProposed: make([]int, nTemps-1),
		swapsAccepted: make([]int, nTemps-1),
	}
	for t := range pt.accepted {
		pt.accepted[t] = make([]int, nWalkers)
	}
	return pt, nil
}

// Betas returns the inverse-temperature ladder, hottest last.
func (p *PT) Betas() []float64 {
	out := make([]float64, len(p.betas))
	copy(out, p.betas)
	return out
}

// Temps returns the number of temperatures.
func (p *PT) Temps() int { return p.nTemps }

// Walkers returns the number of walkers per temperature.
func (p *PT) Walkers() int { return p.nWalkers }

// Dim returns the dimension of the target.
func (p *PT) Dim() int { return p.nDim }

// Sample starts a run of n iterations from the per-temperature
// ensembles p0. A nil p0 continues from the current position, keeping
// the retained log-likelihoods instead of re-evaluating them.
func (p *PT) Sample(p0 []*mat.Dense, n int) *PTSteps {
	s := &PTSteps{p: p, remaining: n}
	if p0 == nil {
		if p.pos == nil {
			s.err = errors.New("pt: no starting ensemble")
		}
		return s
	}
	if len(p0) != p.nTemps {
		s.err = errors.Errorf("pt: %d starting ensembles, want %d", len(p0), p.nTemps)
		return s
	}
	pos := make([]*mat.Dense, p.nTemps)
	lnlike := make([][]float64, p.nTemps)
	lnprior := make([][]float64, p.nTemps)
	for t, m := range p0 {
		r, c := m.Dims()
		if r != p.nWalkers || c != p.nDim {
			s.err = errors.Errorf("pt: starting ensemble %d is %dx%d, want %dx%d", t, r, c, p.nWalkers, p.nDim)
			return s
		}
		pos[t] = mat.DenseCopyOf(m)
		lnlike[t] = make([]float64, p.nWalkers)
		lnprior[t] = make([]float64, p.nWalkers)
		for k := 0; k < p.nWalkers; k++ {
			x := pos[t].RawRowView(k)
			ll, err := p.logLike(x)
			if err != nil {
				s.err = err
				return s
			}
			lnlike[t][k] = ll
			lnprior[t][k] = p.logPrior(x)
		}
	}
	p.pos, p.lnlike, p.lnprior = pos, lnlike, lnprior
	return s
}

// Reset discards the retained chain, acceptance and swap counts. The
// walker state and random state carry over.
func (p *PT) Reset() {
	p.chain = nil
	p.iterations = 0
	for t := range p.accepted {
		p.accepted[t] = make([]int, p.nWalkers)
	}
	p.swapsProposed = make([]int, p.nTemps-1)
	p.swapsAccepted = make([]int, p.nTemps-1)
}

// FlatChain returns the retained chain of every temperature flattened
// together, one row per stored walker position.
func (p *PT) FlatChain() *mat.Dense {
	return flatten(p.chain, p.nDim)
}

// AcceptanceFraction returns the per-temperature, per-walker fraction
// of accepted proposals since the last reset.
func (p *PT) AcceptanceFraction() [][]float64 {
	out := make([][]float64, p.nTemps)
	for t := range out {
		out[t] = make([]float64, p.nWalkers)
		if p.iterations == 0 {
			continue
		}
		for k, n := range p.accepted[t] {
			out[t][k] = float64(n) / float64(p.iterations)
		}
	}
	return out
}

// MeanAcceptanceFraction returns the acceptance fraction averaged
// over all temperatures and walkers.
func (p *PT) MeanAcceptanceFraction() float64 {
	var all []float64
	for _, frac := range p.AcceptanceFraction() {
		all = append(all, frac...)
	}
	return stat.Mean(all, nil)
}

// SwapAcceptanceFraction returns, per neighbouring temperature pair,
// the fraction of accepted walker exchanges since the last reset.
func (p *PT) SwapAcceptanceFraction() []float64 {
	out := make([]float64, p.nTemps-1)
	for i := range out {
		if p.swapsProposed[i] > 0 {
			out[i] = float64(p.swapsAccepted[i]) / float64(p.swapsProposed[i])
		}
	}
	return out
}

// step advances every temperature by one stretch-move iteration, then
// exchanges walkers between neighbouring temperatures and records the
// state of all temperatures in the chain.
func (p *PT) step() error {
	half := p.nWalkers / 2
	for t := 0; t < p.nTemps; t++ {
		if err := p.update(t, 0, half); err != nil {
			return err
		}
		if err := p.update(t, half, p.nWalkers); err != nil {
			return err
		}
	}
	p.swap()
	for t := 0; t < p.nTemps; t++ {
		for k := 0; k < p.nWalkers; k++ {
			row := make([]float64, p.nDim)
			copy(row, p.pos[t].RawRowView(k))
			p.chain = append(p.chain, row)
		}
	}
	p.iterations++
	return nil
}

// update moves the walkers of temperature t in [lo, hi) by stretching
// against the complementary half of that temperature's ensemble.
func (p *PT) update(t, lo, hi int) error {
	clo, cn := 0, p.nWalkers/2
	if lo == 0 {
		clo = p.nWalkers / 2
	}
	beta := p.betas[t]
	for k := lo; k < hi; k++ {
		j := clo + p.rnd.Intn(cn)
		z := stretchZ(p.a, p.rnd)
		y := make([]float64, p.nDim)
		for d := 0; d < p.nDim; d++ {
			xj := p.pos[t].At(j, d)
			y[d] = xj + z*(p.pos[t].At(k, d)-xj)
		}
		ll, err := p.logLike(y)
		if err != nil {
			return err
		}
		lpr := p.logPrior(y)
		lnpnew := beta*ll + lpr
		lnpold := beta*p.lnlike[t][k] + p.lnprior[t][k]
		lnpdiff := float64(p.nDim-1)*math.Log(z) + lnpnew - lnpold
		// A NaN difference (both densities -Inf) rejects.
		if lnpdiff > math.Log(p.rnd.Float64()) {
			p.pos[t].SetRow(k, y)
			p.lnlike[t][k] = ll
			p.lnprior[t][k] = lpr
			p.accepted[t][k]++
		}
	}
	return nil
}

// swap proposes walker exchanges between each pair of neighbouring
// temperatures, hottest pair first. An exchange is accepted with
// probability exp((beta_cold - beta_hot) * (loglike_hot - loglike_cold)).
func (p *PT) swap() {
	for t := p.nTemps - 1; t > 0; t-- {
		dbeta := p.betas[t-1] - p.betas[t]
		hot := p.rnd.Perm(p.nWalkers)
		cold := p.rnd.Perm(p.nWalkers)
		for k := 0; k < p.nWalkers; k++ {
			h, c := hot[k], cold[k]
			p.swapsProposed[t-1]++
			paccept := dbeta * (p.lnlike[t][h] - p.lnlike[t-1][c])
			if paccept <= math.Log(p.rnd.Float64()) {
				continue
			}
			p.swapsAccepted[t-1]++
			p.lnlike[t][h], p.lnlike[t-1][c] = p.lnlike[t-1][c], p.lnlike[t][h]
			p.lnprior[t][h], p.lnprior[t-1][c] = p.lnprior[t-1][c], p.lnprior[t][h]
			rh := make([]float64, p.nDim)
			copy(rh, p.pos[t].RawRowView(h))
			p.pos[t].SetRow(h, p.pos[t-1].RawRowView(c))
			p.pos[t-1].SetRow(c, rh)
		}
	}
}

// PTSteps iterates over the iterations of a parallel-tempered run.
type PTSteps struct {
	p         *PT
	remaining int
	err       error
}

// Next advances the run by one iteration. It returns false when the
// run is exhausted or a likelihood evaluation failed.
func (s *PTSteps) Next() bool {
	if s.err != nil || s.remaining == 0 {
		return false
	}
	if err := s.p.step(); err != nil {
		s.err = err
		return false
	}
	s.remaining--
	return true
}

// Err returns the error that stopped the run, if any.
func (s *PTSteps) Err() error { return s.err }

// Positions returns the current per-temperature ensembles. The
// matrices are live and only valid until the next call to Next.
func (s *PTSteps) Positions() []*mat.Dense { return s.p.pos }

// LogLike returns the current per-temperature, per-walker
// log-likelihoods. The slices are live and only valid until the next
// call to Next.
func (s *PTSteps) LogLike() [][]float64 { return s.p.lnlike }

// LogProb returns the current per-temperature, per-walker tempered
// posterior values.
func (s *PTSteps) LogProb() [][]float64 {
	out := make([][]float64, s.p.nTemps)
	for t := range out {
		out[t] = make([]float64, s.p.nWalkers)
		for k := 0; k < s.p.nWalkers; k++ {
			out[t][k] = s.p.betas[t]*s.p.lnlike[t][k] + s.p.lnprior[t][k]
		}
	}
	return out
}
