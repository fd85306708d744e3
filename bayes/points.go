package bayes

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cescalara/threeML/model"
)

// startingPoints draws a walker ensemble clustered around the current
// parameter values, one row per walker. Each entry is an independent
// randomization of the owning parameter with the given fractional
// variance, folded back into the parameter's bounds.
func startingPoints(params model.FreeParameters, nWalkers int, fracVariance float64) *mat.Dense {
	p0 := mat.NewDense(nWalkers, len(params), nil)
	for k := 0; k < nWalkers; k++ {
		for i, p := range params {
			p0.Set(k, i, p.RandomizedValue(fracVariance))
		}
	}
	return p0
}
