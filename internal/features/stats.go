package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// valid returns the non-missing values of x.
func valid(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MeanStd returns the mean and sample standard deviation of the non-missing
// values of x. The mean is NaN without values, the deviation is NaN with
// fewer than two.
func MeanStd(x []float64) (mean, std float64) {
	v := valid(x)
	switch len(v) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return v[0], math.NaN()
	}
	return stat.MeanStdDev(v, nil)
}

// Percentile returns the p-th percentile (0..100) of the non-missing values
// of x, interpolating linearly between closest ranks.
func Percentile(x []float64, p float64) float64 {
	v := valid(x)
	if len(v) == 0 {
		return math.NaN()
	}
	sort.Float64s(v)

	rank := p / 100 * float64(len(v)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi >= len(v) {
		hi = len(v) - 1
	}
	frac := rank - float64(lo)
	return v[lo] + (v[hi]-v[lo])*frac
}

// Slope returns the least-squares slope of y against 0..len(y)-1.
// Fewer than two points have slope 0.
func Slope(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	xs := make([]float64, len(y))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, y, nil, false)
	return beta
}

// rolling applies fn to the non-missing values of every trailing window of
// x. Windows without values yield NaN.
func rolling(x []float64, window int, fn func(vals []float64) float64) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, window)
	for i := range x {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		buf = buf[:0]
		for _, v := range x[start : i+1] {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = fn(buf)
	}
	return out
}

func windowMean(vals []float64) float64 { return floats.Sum(vals) / float64(len(vals)) }

func windowStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	return stat.StdDev(vals, nil)
}

func windowMin(vals []float64) float64 { return floats.Min(vals) }

func windowMax(vals []float64) float64 { return floats.Max(vals) }

// RollingMean is the trailing mean over window samples, min one sample.
func RollingMean(x []float64, window int) []float64 {
	return rolling(x, window, windowMean)
}

// nanSeries returns n missing values.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
