package util

import "math"

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// StdDev is the population standard deviation (ddof = 0).
func StdDev(xs []float64) float64 {
	return stddev(xs, 0)
}

// SampleStdDev is the sample standard deviation (ddof = 1). Returns 0 for fewer than two values.
func SampleStdDev(xs []float64) float64 {
	return stddev(xs, 1)
}

func stddev(xs []float64, ddof int) float64 {
	n := len(xs) - ddof
	if n <= 0 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n))
}

// Polyfit1 fits y = slope*x + intercept by least squares over x = 0..n-1.
func Polyfit1(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if len(ys) == 0 {
		return 0, 0
	}
	if len(ys) == 1 {
		return 0, ys[0]
	}
	mx := (n - 1) / 2
	my := Mean(ys)
	var num, den float64
	for i, y := range ys {
		dx := float64(i) - mx
		num += dx * (y - my)
		den += dx * dx
	}
	slope = num / den
	return slope, my - slope*mx
}

// Pearson returns the correlation coefficient of two equal-length slices, 0 when undefined.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	ma, mb := Mean(a), Mean(b)
	var cov, va, vb float64
	for i := range a {
		da, db := a[i]-ma, b[i]-mb
		cov += da * db
		va += da * da
		vb += db * db
	}
	if va == 0 || vb == 0 {
		return 0
	}
	return cov / math.Sqrt(va*vb)
}

// PctChange returns (x[i]-x[i-1])/x[i-1] for i >= 1. Steps from a zero value yield 0.
func PctChange(xs []float64) []float64 {
	if len(xs) < 2 {
		return nil
	}
	out := make([]float64, len(xs)-1)
	for i := 1; i < len(xs); i++ {
		if xs[i-1] != 0 {
			out[i-1] = (xs[i] - xs[i-1]) / xs[i-1]
		}
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
