package raster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds basic statistics over the finite pixels of a raster.
type Summary struct {
	Min   float64 `json:"min" msgpack:"min"`
	Mean  float64 `json:"mean" msgpack:"mean"`
	Max   float64 `json:"max" msgpack:"max"`
	Valid int     `json:"valid" msgpack:"valid"`
}

// Summarize computes min, mean and max over finite pixels. A raster with
// no finite pixels yields a zero Summary.
func Summarize(r *Raster) Summary {
	vals := make([]float64, 0, r.Len())
	for _, v := range r.data() {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return Summary{}
	}
	return Summary{
		Min:   floats.Min(vals),
		Mean:  stat.Mean(vals, nil),
		Max:   floats.Max(vals),
		Valid: len(vals),
	}
}

// EqualApprox reports whether a and b have the same shape and every pixel
// agrees within tol. NaN pixels must be NaN in both.
func EqualApprox(a, b *Raster, tol float64) bool {
	if !SameShape(a, b) {
		return false
	}
	return floats.EqualFunc(a.data(), b.data(), func(x, y float64) bool {
		if math.IsNaN(x) || math.IsNaN(y) {
			return math.IsNaN(x) && math.IsNaN(y)
		}
		return math.Abs(x-y) <= tol
	})
}
