package zonal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ciNoiseFloor suppresses near-zero background values of the
// cyanobacteria index.
const ciNoiseFloor = 5e-5

// Validity is the physical-validity filter applied before any selector.
// NaN bounds mean "unknown" and disable the corresponding test. Threshold
// is an exclusive lower bound (values must be strictly greater).
type Validity struct {
	Min       float64
	Max       float64
	Threshold float64
}

// NoFilter passes every finite value.
func NoFilter() Validity {
	return Validity{Min: math.NaN(), Max: math.NaN(), Threshold: math.Inf(-1)}
}

// CIValidity builds the filter for cyanobacteria-index data from the
// variable's valid_min/valid_max attributes. The noise threshold is
// max(valid_min, 5e-5) when valid_min is known, else 5e-5.
func CIValidity(validMin, validMax float64) Validity {
	v := Validity{Min: validMin, Max: validMax, Threshold: ciNoiseFloor}
	if !math.IsNaN(validMin) {
		v.Threshold = math.Max(validMin, ciNoiseFloor)
	}
	return v
}

// Keep reports whether x survives the filter.
func (v Validity) Keep(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	if !math.IsNaN(v.Min) && x < v.Min {
		return false
	}
	if !math.IsNaN(v.Max) && x > v.Max {
		return false
	}
	return x > v.Threshold
}

// Stats is one reduction result: the valid-cell count, the mean over
// valid cells and, when requested, the 90th percentile. Mean and P90 are
// NaN when NValid is zero; the zero count itself is data, not an error.
type Stats struct {
	NValid int
	Mean   float64
	P90    float64
}

// Reduce computes statistics over the selected, valid cells of one raster
// slice. The slice is flat row-major with the selector's shape.
func Reduce(values []float64, sel *Selector, v Validity, wantP90 bool) Stats {
	vals := make([]float64, 0, sel.Count())
	for _, i := range sel.Indices() {
		if x := values[i]; v.Keep(x) {
			vals = append(vals, x)
		}
	}
	st := Stats{NValid: len(vals), Mean: math.NaN(), P90: math.NaN()}
	if len(vals) == 0 {
		return st
	}
	st.Mean = stat.Mean(vals, nil)
	if wantP90 {
		sort.Float64s(vals)
		st.P90 = quantileLinear(vals, 0.9)
	}
	return st
}

// CubeMeans reduces a (steps, ny, nx) cube against a mask in one pass,
// returning the per-step mean over valid member cells. This is the
// climate-pipeline path: the mask broadcasts across the whole time chunk
// instead of re-selecting per step.
func CubeMeans(cube []float64, steps int, sel *Selector, v Validity) []Stats {
	cells := sel.Ny * sel.Nx
	out := make([]Stats, steps)
	for t := 0; t < steps; t++ {
		base := t * cells
		var sum float64
		var n int
		for _, i := range sel.Indices() {
			if x := cube[base+i]; v.Keep(x) {
				sum += x
				n++
			}
		}
		if n == 0 {
			out[t] = Stats{Mean: math.NaN(), P90: math.NaN()}
			continue
		}
		out[t] = Stats{NValid: n, Mean: sum / float64(n), P90: math.NaN()}
	}
	return out
}

// quantileLinear computes the p-quantile of a sorted sample with linear
// interpolation between the two nearest order statistics (position
// p*(n-1)). This matches the original extraction's percentile method,
// which gonum's cumulant-based Quantile kinds do not reproduce.
func quantileLinear(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := p * float64(n-1)
	i := int(math.Floor(h))
	if i >= n-1 {
		return sorted[n-1]
	}
	frac := h - float64(i)
	return sorted[i]*(1-frac) + sorted[i+1]*frac
}
