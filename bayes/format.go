package bayes

import (
	"fmt"
	"math"
)

// FormatValue renders a median with its asymmetric uncertainties the
// way measurements are quoted: both gaps printed with the precision
// set by the larger one at two significant digits, and a shared
// power-of-ten exponent pulled out when the magnitude calls for it,
// as in "(1.25 -0.10 +0.23)e+06".
func FormatValue(lower, median, upper float64) string {
	errLow := math.Abs(median - lower)
	errHigh := math.Abs(upper - median)
	big := math.Max(errLow, errHigh)

	ref := math.Max(math.Abs(median), big)
	if math.IsNaN(ref) || math.IsInf(ref, 0) {
		return fmt.Sprintf("%v -%v +%v", median, errLow, errHigh)
	}
	if ref == 0 {
		return "0.0 -0.0 +0.0"
	}

	exp := int(math.Floor(math.Log10(ref)))
	useExp := exp < -3 || exp >= 4
	scale := 1.0
	if useExp {
		scale = math.Pow(10, -float64(exp))
	}

	digits := 1
	if big > 0 {
		digits = 1 - int(math.Floor(math.Log10(big*scale)))
		if digits < 0 {
			digits = 0
		}
	}

	m := fmt.Sprintf("%.*f", digits, median*scale)
	lo := fmt.Sprintf("%.*f", digits, errLow*scale)
	hi := fmt.Sprintf("%.*f", digits, errHigh*scale)
	if useExp {
		return fmt.Sprintf("(%s -%s +%s)e%+03d", m, lo, hi, exp)
	}
	return fmt.Sprintf("%s -%s +%s", m, lo, hi)
}
