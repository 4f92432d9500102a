/*package diagnostic summarizes particle velocities before and after a
conversion so that unit and convention mistakes are easy to spot in the log.
*/
package diagnostic

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	plt "github.com/phil-mansfield/pyplot"
)

// plotPoints is the maximum number of points drawn per curve.
const plotPoints = 1000

// SpeedSummary describes the distribution of particle speeds.
type SpeedSummary struct {
	N                         int
	Mean, StdDev, Median, Max float64
}

func (s SpeedSummary) String() string {
	return fmt.Sprintf("N = %d, mean = %.4g, std = %.4g, median = %.4g, "+
		"max = %.4g", s.N, s.Mean, s.StdDev, s.Median, s.Max)
}

// Speeds returns the magnitude of each vector in v, in sorted order.
func Speeds(v [][3]float32) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		x, y, z := float64(v[i][0]), float64(v[i][1]), float64(v[i][2])
		out[i] = math.Sqrt(x*x + y*y + z*z)
	}
	sort.Float64s(out)
	return out
}

// Summarize computes the speed distribution of v.
func Summarize(v [][3]float32) SpeedSummary {
	if len(v) == 0 { return SpeedSummary{} }
	speeds := Speeds(v)

	s := SpeedSummary{N: len(speeds)}
	s.Mean, s.StdDev = stat.MeanStdDev(speeds, nil)
	if len(speeds) == 1 { s.StdDev = 0 }
	s.Median = stat.Quantile(0.5, stat.Empirical, speeds, nil)
	s.Max = floats.Max(speeds)
	return s
}

// Comparison compares the speeds of Gadget and peculiar velocities.
type Comparison struct {
	Gadget, Peculiar SpeedSummary
	// Factor is the ratio of the median speeds. Without subsampling it's
	// sqrt(a) up to rounding.
	Factor float64
}

// Compare summarizes both velocity sets.
func Compare(gadget, peculiar [][3]float32) Comparison {
	c := Comparison{Gadget: Summarize(gadget), Peculiar: Summarize(peculiar)}
	if c.Gadget.Median > 0 {
		c.Factor = c.Peculiar.Median / c.Gadget.Median
	} else {
		c.Factor = math.NaN()
	}
	return c
}

// Check returns an error if the comparison is inconsistent with velocities
// that were multiplied by sqrt(a). tol is the allowed relative error.
func (c Comparison) Check(a, tol float64) error {
	if c.Gadget.N == 0 || c.Gadget.Median == 0 { return nil }
	want := math.Sqrt(a)
	if math.Abs(c.Factor-want) > tol*want {
		return fmt.Errorf("The median speed changed by a factor of %.4g, "+
			"but sqrt(a) = %.4g.", c.Factor, want)
	}
	return nil
}

// cumulative returns at most n points of the cumulative distribution of the
// sorted values xs.
func cumulative(xs []float64, n int) (vals, frac []float64) {
	if len(xs) == 0 { return nil, nil }
	if n > len(xs) { n = len(xs) }
	vals, frac = make([]float64, n), make([]float64, n)
	if n == 1 {
		vals[0], frac[0] = xs[len(xs)-1], 1
		return vals, frac
	}

	for i := 0; i < n; i++ {
		j := i * (len(xs) - 1) / (n - 1)
		vals[i] = xs[j]
		frac[i] = float64(j+1) / float64(len(xs))
	}
	return vals, frac
}

// PlotSpeeds writes a figure with the cumulative speed distributions of both
// velocity sets to fname. It runs python, so it's slow.
func PlotSpeeds(fname string, gadget, peculiar [][3]float32, a float64) {
	plt.Reset()
	plt.Figure()

	gVals, gFrac := cumulative(Speeds(gadget), plotPoints)
	pVals, pFrac := cumulative(Speeds(peculiar), plotPoints)
	plt.Plot(gVals, gFrac, "k", plt.LW(2))
	plt.Plot(pVals, pFrac, "r", plt.LW(2))

	plt.Title(fmt.Sprintf(
		`Gadget (black) and peculiar (red) speeds, $a$ = %.3g`, a,
	))
	plt.XLabel(`$|v|$ [km/s]`, plt.FontSize(16))
	plt.YLabel(`$N(<|v|)/N$`, plt.FontSize(16))
	plt.XScale("log")
	plt.YLim(0, 1)
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(fname)

	plt.Execute()
}
