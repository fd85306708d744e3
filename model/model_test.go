package model

import (
	"testing"
)

func newTestModel() *SourceModel {
	m := NewSourceModel()
	m.Add(NewParameter("a", "x", 1))
	m.Add(NewParameter("a", "y", 2))
	m.Add(NewParameter("b", "x", 3))
	return m
}

func TestFreeParametersOrder(tst *testing.T) {
	m := newTestModel()
	keys := m.FreeParameters().Keys()
	want := []ParamKey{{"a", "x"}, {"a", "y"}, {"b", "x"}}
	for i := range want {
		if keys[i] != want[i] {
			tst.Error("Expected ", want[i], ", got", keys[i])
		}
	}
}

func TestFreeParametersSkipFixed(tst *testing.T) {
	m := newTestModel()
	p, ok := m.Lookup("a", "y")
	if !ok {
		tst.Fatal("Lookup failed for a/y")
	}
	p.Fix()
	fp := m.FreeParameters()
	if len(fp) != 2 {
		tst.Fatal("Expected 2 free parameters, got", len(fp))
	}
	if fp[1].Source() != "b" || fp[1].Name() != "x" {
		tst.Error("Incorrect free parameter order after fixing")
	}
}

func TestLookup(tst *testing.T) {
	m := newTestModel()
	if _, ok := m.Lookup("a", "z"); ok {
		tst.Error("Lookup found a parameter which was never added")
	}
	p, ok := m.Lookup("b", "x")
	if !ok || p.Value() != 3 {
		tst.Error("Lookup returned the wrong parameter")
	}
}

func TestAddDuplicate(tst *testing.T) {
	defer func() {
		if recover() == nil {
			tst.Error("Expected panic for a duplicate parameter key")
		}
	}()
	m := newTestModel()
	m.Add(NewParameter("a", "x", 0))
}

func TestCopyIndependence(tst *testing.T) {
	m := newTestModel()
	c := m.Copy()
	cp, ok := c.Lookup("a", "x")
	if !ok {
		tst.Fatal("Copy lost parameter a/x")
	}
	cp.SetValue(100)
	orig, _ := m.Lookup("a", "x")
	if orig.Value() != 1 {
		tst.Error("Mutating a copy changed the original, got", orig.Value())
	}
	if len(c.FreeParameters()) != len(m.FreeParameters()) {
		tst.Error("Copy has a different free parameter count")
	}
}
