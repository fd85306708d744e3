package model

import (
	"math"
	"testing"
)

const smallDiff = 1e-10

func TestUniformPrior(tst *testing.T) {
	p := NewUniformPrior(-2, 2)
	want := -math.Log(4)
	if math.Abs(p.LogValue(0)-want) > smallDiff {
		tst.Error("Expected ", want, ", got", p.LogValue(0))
	}
	if !math.IsInf(p.LogValue(3), -1) {
		tst.Error("Expected -Inf outside the box, got", p.LogValue(3))
	}
	if p.Density(3) != 0 {
		tst.Error("Expected zero density outside the box, got", p.Density(3))
	}
	if math.Abs(p.Density(1)-0.25) > smallDiff {
		tst.Error("Expected 0.25, got", p.Density(1))
	}
}

func TestNormalPrior(tst *testing.T) {
	p := NewNormalPrior(1, 2)
	want := -0.5*math.Log(2*math.Pi*4) - 0.5
	got := p.LogValue(3)
	if math.Abs(got-want) > smallDiff {
		tst.Error("Expected ", want, ", got", got)
	}
	if math.Abs(p.Density(3)-math.Exp(want)) > smallDiff {
		tst.Error("Density and log value disagree")
	}
}

func TestGammaPrior(tst *testing.T) {
	// shape 1, scale 2 is an exponential with rate 0.5
	p := NewGammaPrior(1, 2)
	want := math.Log(0.5) - 0.5*3
	if math.Abs(p.LogValue(3)-want) > smallDiff {
		tst.Error("Expected ", want, ", got", p.LogValue(3))
	}
	if !math.IsInf(p.LogValue(-1), -1) {
		tst.Error("Expected -Inf for negative support, got", p.LogValue(-1))
	}
}

func TestExponentialPrior(tst *testing.T) {
	p := NewExponentialPrior(2)
	want := math.Log(2) - 2*1.5
	if math.Abs(p.LogValue(1.5)-want) > smallDiff {
		tst.Error("Expected ", want, ", got", p.LogValue(1.5))
	}
	if !math.IsInf(p.LogValue(-0.1), -1) {
		tst.Error("Expected -Inf for negative support, got", p.LogValue(-0.1))
	}
}

func TestLogUniformPrior(tst *testing.T) {
	p := NewLogUniformPrior(1e-2, 1e2)
	if !math.IsInf(p.LogValue(1e-3), -1) {
		tst.Error("Expected -Inf below min")
	}
	if !math.IsInf(p.LogValue(1e3), -1) {
		tst.Error("Expected -Inf above max")
	}
	// density integrates to one over [min, max]
	var sum float64
	n := 100000
	step := (100.0 - 0.01) / float64(n)
	for i := 0; i < n; i++ {
		x := 0.01 + (float64(i)+0.5)*step
		sum += p.Density(x) * step
	}
	if math.Abs(sum-1) > 1e-3 {
		tst.Error("Expected unit mass, got", sum)
	}
}

func TestFuncPrior(tst *testing.T) {
	p := FuncPrior{Log: func(x float64) float64 { return -x }}
	if p.LogValue(2) != -2 {
		tst.Error("Expected -2, got", p.LogValue(2))
	}
	if math.Abs(p.Density(2)-math.Exp(-2)) > smallDiff {
		tst.Error("Density should fall back to exp of the log value")
	}
}

func TestNormalPriorInvalidSigma(tst *testing.T) {
	defer func() {
		if recover() == nil {
			tst.Error("Expected panic for sigma <= 0")
		}
	}()
	NewNormalPrior(0, 0)
}
