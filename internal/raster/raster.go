// Package raster provides the elementwise algebra the fire weather engine is
// written in: a grid of float64 pixels backed by a gonum dense matrix,
// boolean masks produced by comparisons, and a Select primitive for masked
// blending.
//
// Rasters are values. Every operation allocates a new raster and never
// mutates its receiver or arguments, so a raster can be shared freely
// between goroutines. Combining rasters of different dimensions panics with
// mat.ErrShape, mirroring gonum; callers at API boundaries check shapes first
// with SameShape.
//
// NaN is the no-data value and propagates through arithmetic.
package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrEmpty is returned when a raster would have no pixels.
var ErrEmpty = errors.New("raster: zero-sized raster")

// Raster is an immutable 2-D grid of float64 pixel values.
type Raster struct {
	m *mat.Dense
}

// New creates a rows x cols raster from row-major data. The data is copied.
func New(rows, cols int, data []float64) (*Raster, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrEmpty
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("raster: %d values for a %dx%d grid", len(data), rows, cols)
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return &Raster{m: mat.NewDense(rows, cols, buf)}, nil
}

// Fill returns a rows x cols raster with every pixel set to v.
// It panics if rows or cols is not positive.
func Fill(rows, cols int, v float64) *Raster {
	m := mat.NewDense(rows, cols, nil)
	if v != 0 {
		raw := m.RawMatrix().Data
		for i := range raw {
			raw[i] = v
		}
	}
	return &Raster{m: m}
}

// Scalar is a 1x1 raster, convenient for single-station computations.
func Scalar(v float64) *Raster {
	return Fill(1, 1, v)
}

// Dims returns the number of rows and columns.
func (r *Raster) Dims() (rows, cols int) {
	return r.m.Dims()
}

// Len returns the number of pixels.
func (r *Raster) Len() int {
	rows, cols := r.m.Dims()
	return rows * cols
}

// At returns the pixel value at row i, column j.
func (r *Raster) At(i, j int) float64 {
	return r.m.At(i, j)
}

// Values returns a row-major copy of the pixel values.
func (r *Raster) Values() []float64 {
	out := make([]float64, r.Len())
	copy(out, r.data())
	return out
}

// SameShape reports whether all rasters have identical dimensions.
func SameShape(rs ...*Raster) bool {
	if len(rs) == 0 {
		return true
	}
	rows, cols := rs[0].Dims()
	for _, r := range rs[1:] {
		rr, rc := r.Dims()
		if rr != rows || rc != cols {
			return false
		}
	}
	return true
}

// data exposes the contiguous backing slice. Rasters built by this package
// always have stride == cols.
func (r *Raster) data() []float64 {
	return r.m.RawMatrix().Data
}

func (r *Raster) apply(fn func(v float64) float64) *Raster {
	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 { return fn(v) }, r.m)
	return &Raster{m: &out}
}

// Add returns r + o.
func (r *Raster) Add(o *Raster) *Raster {
	var out mat.Dense
	out.Add(r.m, o.m)
	return &Raster{m: &out}
}

// Sub returns r - o.
func (r *Raster) Sub(o *Raster) *Raster {
	var out mat.Dense
	out.Sub(r.m, o.m)
	return &Raster{m: &out}
}

// Mul returns the elementwise product r * o.
func (r *Raster) Mul(o *Raster) *Raster {
	var out mat.Dense
	out.MulElem(r.m, o.m)
	return &Raster{m: &out}
}

// Div returns the elementwise quotient r / o.
func (r *Raster) Div(o *Raster) *Raster {
	var out mat.Dense
	out.DivElem(r.m, o.m)
	return &Raster{m: &out}
}

// Scale returns c * r.
func (r *Raster) Scale(c float64) *Raster {
	var out mat.Dense
	out.Scale(c, r.m)
	return &Raster{m: &out}
}

// AddConst returns r + c.
func (r *Raster) AddConst(c float64) *Raster {
	return r.apply(func(v float64) float64 { return v + c })
}

// Exp returns e^r.
func (r *Raster) Exp() *Raster { return r.apply(math.Exp) }

// Log returns the natural logarithm of r.
func (r *Raster) Log() *Raster { return r.apply(math.Log) }

// Sqrt returns the square root of r.
func (r *Raster) Sqrt() *Raster { return r.apply(math.Sqrt) }

// Abs returns |r|.
func (r *Raster) Abs() *Raster { return r.apply(math.Abs) }

// Pow returns r raised to the real power p.
func (r *Raster) Pow(p float64) *Raster {
	return r.apply(func(v float64) float64 { return math.Pow(v, p) })
}

// Min clamps every pixel from above: min(r, c). NaN pixels stay NaN.
func (r *Raster) Min(c float64) *Raster {
	return r.apply(func(v float64) float64 {
		if v > c {
			return c
		}
		return v
	})
}

// Max clamps every pixel from below: max(r, c). NaN pixels stay NaN.
func (r *Raster) Max(c float64) *Raster {
	return r.apply(func(v float64) float64 {
		if v < c {
			return c
		}
		return v
	})
}

// Map applies fn to every pixel.
func (r *Raster) Map(fn func(v float64) float64) *Raster {
	return r.apply(fn)
}

// Map2 applies fn pixel by pixel to two rasters of the same shape.
func Map2(a, b *Raster, fn func(x, y float64) float64) *Raster {
	mustSameShape(a, b)
	ad, bd := a.data(), b.data()
	_, cols := a.Dims()
	var out mat.Dense
	out.Apply(func(i, j int, _ float64) float64 {
		k := i*cols + j
		return fn(ad[k], bd[k])
	}, a.m)
	return &Raster{m: &out}
}

// Map3 applies fn pixel by pixel to three rasters of the same shape.
func Map3(a, b, c *Raster, fn func(x, y, z float64) float64) *Raster {
	mustSameShape(a, b, c)
	ad, bd, cd := a.data(), b.data(), c.data()
	_, cols := a.Dims()
	var out mat.Dense
	out.Apply(func(i, j int, _ float64) float64 {
		k := i*cols + j
		return fn(ad[k], bd[k], cd[k])
	}, a.m)
	return &Raster{m: &out}
}

func mustSameShape(rs ...*Raster) {
	if !SameShape(rs...) {
		panic(mat.ErrShape)
	}
}
