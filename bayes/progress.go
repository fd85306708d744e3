package bayes

// Progress receives the advancement of a sampling phase. Advance is
// called once per sampler iteration with the number of completed
// iterations, so implementations must be cheap.
type Progress interface {
	Start(phase string, iterations int)
	Advance(done int)
	Finish(phase string)
}

// NopProgress discards all progress reports.
type NopProgress struct{}

func (NopProgress) Start(string, int) {}
func (NopProgress) Advance(int)       {}
func (NopProgress) Finish(string)     {}

// logProgress reports phase advancement to the package logger in
// steps of roughly a tenth of the run.
type logProgress struct {
	phase string
	total int
	step  int
	next  int
}

func (p *logProgress) Start(phase string, iterations int) {
	p.phase = phase
	p.total = iterations
	p.step = iterations / 10
	if p.step < 1 {
		p.step = 1
	}
	p.next = p.step
	log.Noticef("running %s of %d iterations", phase, iterations)
}

func (p *logProgress) Advance(done int) {
	if done < p.next {
		return
	}
	log.Infof("%s: %d/%d iterations", p.phase, done, p.total)
	for p.next <= done {
		p.next += p.step
	}
}

func (p *logProgress) Finish(phase string) {
	log.Noticef("%s finished", phase)
}
