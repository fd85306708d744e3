package data

import (
	"math"
	"testing"

	"github.com/pkg/errors"

	"github.com/cescalara/threeML/model"
)

const smallDiff = 1e-10

func gaussModel(mu, sigma float64) *model.SourceModel {
	m := model.NewSourceModel()
	m.Add(model.NewParameter("src", "mu", mu))
	m.Add(model.NewParameter("src", "sigma", sigma))
	return m
}

func TestGaussianLogLike(tst *testing.T) {
	m := gaussModel(0, 1)
	d := NewGaussianData("obs", "src", []float64{-1, 0, 1})
	if err := d.SetModel(m); err != nil {
		tst.Fatal("Error: ", err)
	}
	ll, err := d.LogLike()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	want := -3*0.5*math.Log(2*math.Pi) - 1
	if math.Abs(ll-want) > smallDiff {
		tst.Error("Expected ", want, ", got", ll)
	}
}

func TestGaussianAssertion(tst *testing.T) {
	m := gaussModel(0, -1)
	d := NewGaussianData("obs", "src", []float64{0})
	if err := d.SetModel(m); err != nil {
		tst.Fatal("Error: ", err)
	}
	_, err := d.LogLike()
	if !errors.Is(err, ErrModelAssertion) {
		tst.Error("Expected a model assertion for non-positive width, got", err)
	}
}

func TestGaussianUnbound(tst *testing.T) {
	d := NewGaussianData("obs", "src", []float64{0})
	if _, err := d.LogLike(); err == nil {
		tst.Error("Expected an error for an unbound dataset")
	}
}

func TestGaussianMissingParameter(tst *testing.T) {
	m := model.NewSourceModel()
	m.Add(model.NewParameter("src", "mu", 0))
	d := NewGaussianData("obs", "src", []float64{0})
	if err := d.SetModel(m); err == nil {
		tst.Error("Expected an error for a model without sigma")
	}
}

func TestListSums(tst *testing.T) {
	m := gaussModel(0, 1)
	l := NewList(
		NewFuncData("a", func(model.Model) (float64, error) { return -1, nil }),
		NewFuncData("b", func(model.Model) (float64, error) { return -2, nil }),
	)
	if err := l.SetModel(m); err != nil {
		tst.Fatal("Error: ", err)
	}
	ll, err := l.LogLike()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if ll != -3 {
		tst.Error("Expected -3, got", ll)
	}
}

func TestListAssertionPassesThrough(tst *testing.T) {
	l := NewList(
		NewFuncData("a", func(model.Model) (float64, error) { return -1, nil }),
		NewFuncData("b", func(model.Model) (float64, error) {
			return 0, errors.Wrap(ErrModelAssertion, "bad zone")
		}),
	)
	_, err := l.LogLike()
	if !errors.Is(err, ErrModelAssertion) {
		tst.Error("Expected the assertion to surface, got", err)
	}
}

func TestListOtherErrorWrapped(tst *testing.T) {
	l := NewList(
		NewFuncData("broken", func(model.Model) (float64, error) {
			return 0, errors.New("disk on fire")
		}),
	)
	_, err := l.LogLike()
	if err == nil || errors.Is(err, ErrModelAssertion) {
		tst.Error("Expected a plain error, got", err)
	}
}

func TestListDuplicateName(tst *testing.T) {
	defer func() {
		if recover() == nil {
			tst.Error("Expected panic for duplicate dataset names")
		}
	}()
	ds := NewFuncData("a", func(model.Model) (float64, error) { return 0, nil })
	NewList(ds, ds)
}

func TestListCopyUnbound(tst *testing.T) {
	m := gaussModel(0, 1)
	l := NewList(NewGaussianData("obs", "src", []float64{0}))
	if err := l.SetModel(m); err != nil {
		tst.Fatal("Error: ", err)
	}
	c := l.Copy()
	if _, err := c.Sets()[0].LogLike(); err == nil {
		tst.Error("Copies should start unbound")
	}
	if _, err := l.LogLike(); err != nil {
		tst.Error("Copying should not unbind the original:", err)
	}
}
