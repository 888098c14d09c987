package raster

import "gonum.org/v1/gonum/mat"

// Mask is an immutable boolean raster produced by comparisons.
// Comparisons involving NaN are false, so no-data pixels never satisfy a
// mask; negating such a mask makes them true.
type Mask struct {
	rows, cols int
	bits       []bool
}

// Dims returns the number of rows and columns.
func (m Mask) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// At reports whether the pixel at row i, column j is set.
func (m Mask) At(i, j int) bool {
	return m.bits[i*m.cols+j]
}

// Count returns the number of set pixels.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.bits {
		if b {
			n++
		}
	}
	return n
}

// Not returns the complement of m.
func (m Mask) Not() Mask {
	out := Mask{rows: m.rows, cols: m.cols, bits: make([]bool, len(m.bits))}
	for i, b := range m.bits {
		out.bits[i] = !b
	}
	return out
}

// And returns m ∧ o.
func (m Mask) And(o Mask) Mask {
	m.mustMatch(o)
	out := Mask{rows: m.rows, cols: m.cols, bits: make([]bool, len(m.bits))}
	for i := range m.bits {
		out.bits[i] = m.bits[i] && o.bits[i]
	}
	return out
}

// Or returns m ∨ o.
func (m Mask) Or(o Mask) Mask {
	m.mustMatch(o)
	out := Mask{rows: m.rows, cols: m.cols, bits: make([]bool, len(m.bits))}
	for i := range m.bits {
		out.bits[i] = m.bits[i] || o.bits[i]
	}
	return out
}

// Float returns the mask as a 0/1 raster.
func (m Mask) Float() *Raster {
	data := make([]float64, len(m.bits))
	for i, b := range m.bits {
		if b {
			data[i] = 1
		}
	}
	return &Raster{m: mat.NewDense(m.rows, m.cols, data)}
}

func (m Mask) mustMatch(o Mask) {
	if m.rows != o.rows || m.cols != o.cols {
		panic(mat.ErrShape)
	}
}

func (r *Raster) compare(pred func(v float64) bool) Mask {
	rows, cols := r.Dims()
	d := r.data()
	out := Mask{rows: rows, cols: cols, bits: make([]bool, len(d))}
	for i, v := range d {
		out.bits[i] = pred(v)
	}
	return out
}

func (r *Raster) compareRaster(o *Raster, pred func(x, y float64) bool) Mask {
	mustSameShape(r, o)
	rows, cols := r.Dims()
	a, b := r.data(), o.data()
	out := Mask{rows: rows, cols: cols, bits: make([]bool, len(a))}
	for i := range a {
		out.bits[i] = pred(a[i], b[i])
	}
	return out
}

// Gt returns the mask r > c.
func (r *Raster) Gt(c float64) Mask {
	return r.compare(func(v float64) bool { return v > c })
}

// Gte returns the mask r >= c.
func (r *Raster) Gte(c float64) Mask {
	return r.compare(func(v float64) bool { return v >= c })
}

// Lt returns the mask r < c.
func (r *Raster) Lt(c float64) Mask {
	return r.compare(func(v float64) bool { return v < c })
}

// Lte returns the mask r <= c.
func (r *Raster) Lte(c float64) Mask {
	return r.compare(func(v float64) bool { return v <= c })
}

// GtRaster returns the mask r > o.
func (r *Raster) GtRaster(o *Raster) Mask {
	return r.compareRaster(o, func(x, y float64) bool { return x > y })
}

// LtRaster returns the mask r < o.
func (r *Raster) LtRaster(o *Raster) Mask {
	return r.compareRaster(o, func(x, y float64) bool { return x < y })
}

// LteRaster returns the mask r <= o.
func (r *Raster) LteRaster(o *Raster) Mask {
	return r.compareRaster(o, func(x, y float64) bool { return x <= y })
}

// Finite returns the mask of pixels that are neither NaN nor ±Inf.
func (r *Raster) Finite() Mask {
	return r.compare(func(v float64) bool { return v-v == 0 })
}

// Select blends two rasters: a where mask is set, b elsewhere.
//
// Only the selected value of each pixel is read. A branch may therefore hold
// NaN or ±Inf (log of a non-positive number, division by zero) wherever it is
// masked out without affecting the result.
func Select(mask Mask, a, b *Raster) *Raster {
	mustSameShape(a, b)
	rows, cols := a.Dims()
	if mask.rows != rows || mask.cols != cols {
		panic(mat.ErrShape)
	}
	ad, bd := a.data(), b.data()
	data := make([]float64, len(ad))
	for i, set := range mask.bits {
		if set {
			data[i] = ad[i]
		} else {
			data[i] = bd[i]
		}
	}
	return &Raster{m: mat.NewDense(rows, cols, data)}
}

// SelectConst is Select with a constant for the unset pixels.
func SelectConst(mask Mask, a *Raster, c float64) *Raster {
	rows, cols := a.Dims()
	return Select(mask, a, Fill(rows, cols, c))
}
