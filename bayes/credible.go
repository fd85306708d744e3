package bayes

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/cescalara/threeML/model"
)

// ErrNotSampled is returned when post-sampling outputs are requested
// before any sampling run has completed.
var ErrNotSampled = errors.New("sampler has not run yet")

// Interval is the equal-tail credible interval of one parameter.
type Interval struct {
	Key        model.ParamKey
	Unit       string
	LowerBound float64
	Median     float64
	UpperBound float64
}

// Value renders the interval's median with its asymmetric
// uncertainties.
func (iv Interval) Value() string {
	return FormatValue(iv.LowerBound, iv.Median, iv.UpperBound)
}

// CredibleIntervals returns, per free parameter in registration
// order, the equal-tail credible interval for the given probability
// in percent: the (100-probability, 50, probability) percentiles of
// the parameter's posterior samples. As a side effect it renders the
// summary table to the configured sink.
func (a *Analysis) CredibleIntervals(probability float64) ([]Interval, error) {
	if a.samples == nil {
		return nil, ErrNotSampled
	}
	if probability <= 0 || probability >= 100 {
		return nil, errors.Errorf("credible probability %v outside (0, 100)", probability)
	}

	intervals := make([]Interval, 0, len(a.runParams))
	for i, p := range a.runParams {
		col := a.samples.cols[a.samples.keys[i]]
		sorted := make([]float64, len(col))
		copy(sorted, col)
		sort.Float64s(sorted)

		intervals = append(intervals, Interval{
			Key:        model.ParamKey{Source: p.Source(), Name: p.Name()},
			Unit:       p.Unit(),
			LowerBound: stat.Quantile((100-probability)/100, stat.LinInterp, sorted, nil),
			Median:     stat.Quantile(0.5, stat.LinInterp, sorted, nil),
			UpperBound: stat.Quantile(probability/100, stat.LinInterp, sorted, nil),
		})
	}
	if err := WriteIntervalTable(a.tableSink(), intervals); err != nil {
		return nil, errors.Wrap(err, "rendering interval table")
	}
	return intervals, nil
}

func (a *Analysis) tableSink() io.Writer {
	if a.cfg.TableSink != nil {
		return a.cfg.TableSink
	}
	return os.Stdout
}

// WriteIntervalTable renders credible intervals as an aligned table
// of parameter name, formatted value and unit.
func WriteIntervalTable(w io.Writer, intervals []Interval) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Name\tValue\tUnit")
	for _, iv := range intervals {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", iv.Key, iv.Value(), iv.Unit)
	}
	return tw.Flush()
}
