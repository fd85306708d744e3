package bayes

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/cescalara/threeML/data"
	"github.com/cescalara/threeML/model"
)

const smallDiff = 1e-10

// oneParamModel returns a model with a single free parameter carrying
// the given prior.
func oneParamModel(value float64, prior model.Prior) *model.SourceModel {
	m := model.NewSourceModel()
	p := model.NewParameter("src", "x", value)
	p.SetPrior(prior)
	m.Add(p)
	return m
}

// countingData counts LogLike calls and reports a fixed value.
type countingData struct {
	calls int
	ll    float64
	err   error
}

func (d *countingData) Name() string                 { return "counting" }
func (d *countingData) SetModel(m model.Model) error { return nil }
func (d *countingData) Copy() data.DataSet           { return &countingData{ll: d.ll, err: d.err} }
func (d *countingData) LogLike() (float64, error) {
	d.calls++
	return d.ll, d.err
}

func TestEvalValid(tst *testing.T) {
	m := oneParamModel(0, model.NewNormalPrior(0, 1))
	ds := &countingData{ll: -2}
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	res, err := ev.Eval([]float64{0.5})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if res.Status != Valid {
		tst.Fatal("Expected a valid evaluation, got", res.Status)
	}
	want := -2 + m.FreeParameters()[0].PriorLogValue()
	if math.Abs(res.LogPosterior-want) > smallDiff {
		tst.Error("Expected ", want, ", got", res.LogPosterior)
	}
	if res.LogDensity() != res.LogPosterior {
		tst.Error("LogDensity of a valid evaluation should be the log-posterior")
	}
}

func TestEvalOutOfBoundsSkipsLikelihood(tst *testing.T) {
	m := oneParamModel(0.5, model.NewUniformPrior(0, 1))
	ds := &countingData{ll: -1}
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	res, err := ev.Eval([]float64{2})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if res.Status != OutOfBounds {
		tst.Error("Expected out of bounds, got", res.Status)
	}
	if !math.IsInf(res.LogDensity(), -1) {
		tst.Error("Expected -Inf log-density, got", res.LogDensity())
	}
	if ds.calls != 0 {
		tst.Error("Likelihood evaluated for an out-of-bounds point")
	}
	// The assignment up to the offending value is not rolled back.
	if m.FreeParameters()[0].Value() != 2 {
		tst.Error("Expected the trial value to stay assigned, got",
			m.FreeParameters()[0].Value())
	}
}

func TestEvalShortCircuitOrder(tst *testing.T) {
	m := model.NewSourceModel()
	p1 := model.NewParameter("src", "a", 0.5)
	p1.SetPrior(model.NewUniformPrior(0, 1))
	m.Add(p1)
	p2 := model.NewParameter("src", "b", 0.5)
	p2.SetPrior(model.NewUniformPrior(0, 1))
	m.Add(p2)
	ev, err := NewEvaluator(m, data.NewList(&countingData{}))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	res, err := ev.Eval([]float64{5, 0.7})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if res.Status != OutOfBounds {
		tst.Error("Expected out of bounds, got", res.Status)
	}
	// The first prior already failed, so the second value must not
	// have been assigned.
	if p2.Value() != 0.5 {
		tst.Error("Later parameter assigned after an out-of-bounds prior:", p2.Value())
	}
}

func TestEvalModelAssertion(tst *testing.T) {
	m := oneParamModel(0, model.NewNormalPrior(0, 1))
	ds := &countingData{err: errors.Wrap(data.ErrModelAssertion, "bad zone")}
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	res, err := ev.Eval([]float64{0})
	if err != nil {
		tst.Fatal("An assertion should not be an error, got", err)
	}
	if res.Status != InvalidConfiguration {
		tst.Error("Expected invalid configuration, got", res.Status)
	}
	if !math.IsInf(res.LogDensity(), -1) {
		tst.Error("Expected -Inf log-density, got", res.LogDensity())
	}
}

func TestEvalNonFiniteLikelihood(tst *testing.T) {
	m := oneParamModel(0, model.NewNormalPrior(0, 1))
	ds := &countingData{ll: math.Inf(-1)}
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	res, err := ev.Eval([]float64{0})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if res.Status != InvalidLikelihood {
		tst.Error("Expected invalid likelihood, got", res.Status)
	}
	if !math.IsInf(res.LogDensity(), -1) {
		tst.Error("Expected -Inf log-density, got", res.LogDensity())
	}
}

func TestEvalFatalError(tst *testing.T) {
	m := oneParamModel(0, model.NewNormalPrior(0, 1))
	ds := &countingData{err: errors.New("disk on fire")}
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := ev.Eval([]float64{0}); err == nil {
		tst.Error("Expected an unexpected dataset error to propagate")
	}
}

func TestEvalLengthMismatch(tst *testing.T) {
	defer func() {
		if recover() == nil {
			tst.Error("Expected panic for a trial vector of the wrong length")
		}
	}()
	m := oneParamModel(0, model.NewNormalPrior(0, 1))
	ev, err := NewEvaluator(m, data.NewList(&countingData{}))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	ev.Eval([]float64{1, 2})
}

func TestLogPriorSumsDensities(tst *testing.T) {
	m := model.NewSourceModel()
	p1 := model.NewParameter("src", "a", 0)
	p1.SetPrior(model.NewNormalPrior(0, 1))
	m.Add(p1)
	p2 := model.NewParameter("src", "b", 0)
	p2.SetPrior(model.NewUniformPrior(0, 2))
	m.Add(p2)
	ev, err := NewEvaluator(m, data.NewList(&countingData{}))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	x := []float64{0.3, 1.1}
	want := p1.PriorDensity(0.3) + p2.PriorDensity(1.1)
	got := ev.LogPrior(x)
	if math.Abs(got-want) > smallDiff {
		tst.Error("Expected ", want, ", got", got)
	}
	// LogPrior must not assign the trial values.
	if p1.Value() != 0 || p2.Value() != 0 {
		tst.Error("LogPrior mutated parameter values")
	}
}

func TestLogLikeAssigns(tst *testing.T) {
	m := oneParamModel(0, model.NewNormalPrior(0, 10))
	ds := data.NewFuncData("f", func(bm model.Model) (float64, error) {
		v := bm.FreeParameters()[0].Value()
		return -v * v, nil
	})
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	ll, err := ev.LogLike([]float64{2})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if math.Abs(ll+4) > smallDiff {
		tst.Error("Expected -4, got", ll)
	}
	if m.FreeParameters()[0].Value() != 2 {
		tst.Error("LogLike should assign the trial vector")
	}
}

func TestCloneIndependence(tst *testing.T) {
	m := oneParamModel(1, model.NewNormalPrior(0, 1))
	ds := data.NewFuncData("f", func(bm model.Model) (float64, error) {
		return bm.FreeParameters()[0].Value(), nil
	})
	ev, err := NewEvaluator(m, data.NewList(ds))
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	clone, err := ev.Clone()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err := clone.Eval([]float64{7}); err != nil {
		tst.Fatal("Error: ", err)
	}
	if m.FreeParameters()[0].Value() != 1 {
		tst.Error("Evaluating a clone mutated the original model")
	}
	// The clone's datasets must read the clone's model, not the
	// original one.
	ll, err := clone.LogLike([]float64{7})
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if ll != 7 {
		tst.Error("Expected the clone's dataset to see value 7, got", ll)
	}
}
