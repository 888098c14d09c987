package raster

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Grid describes the geometry of a regular latitude/longitude raster.
// North and West locate the centre of the top-left pixel; rows run south
// and columns run east in steps of CellSize degrees.
type Grid struct {
	Rows     int     `json:"rows" msgpack:"rows"`
	Cols     int     `json:"cols" msgpack:"cols"`
	North    float64 `json:"north" msgpack:"north"`
	West     float64 `json:"west" msgpack:"west"`
	CellSize float64 `json:"cell_size" msgpack:"cell_size"`
}

// Validate checks that the grid describes at least one pixel on the globe.
func (g Grid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("grid: invalid size %dx%d", g.Rows, g.Cols)
	}
	if g.CellSize <= 0 {
		return errors.New("grid: cell size must be positive")
	}
	if g.North > 90 || g.South() < -90 {
		return fmt.Errorf("grid: latitude span [%g, %g] outside [-90, 90]", g.South(), g.North)
	}
	return nil
}

// South is the latitude of the bottom row's pixel centres.
func (g Grid) South() float64 {
	return g.North - float64(g.Rows-1)*g.CellSize
}

// East is the longitude of the rightmost column's pixel centres.
func (g Grid) East() float64 {
	return g.West + float64(g.Cols-1)*g.CellSize
}

// Lat returns the latitude of row i.
func (g Grid) Lat(i int) float64 {
	return g.North - float64(i)*g.CellSize
}

// Lon returns the longitude of column j.
func (g Grid) Lon(j int) float64 {
	return g.West + float64(j)*g.CellSize
}

// Latitudes returns a raster holding each pixel's latitude.
func (g Grid) Latitudes() *Raster {
	m := mat.NewDense(g.Rows, g.Cols, nil)
	for i := 0; i < g.Rows; i++ {
		lat := g.Lat(i)
		for j := 0; j < g.Cols; j++ {
			m.Set(i, j, lat)
		}
	}
	return &Raster{m: m}
}

// WithCellSize returns a grid covering the same extent at a new resolution.
func (g Grid) WithCellSize(cellSize float64) Grid {
	latSpan := float64(g.Rows-1) * g.CellSize
	lonSpan := float64(g.Cols-1) * g.CellSize
	return Grid{
		Rows:     int(math.Floor(latSpan/cellSize+1e-9)) + 1,
		Cols:     int(math.Floor(lonSpan/cellSize+1e-9)) + 1,
		North:    g.North,
		West:     g.West,
		CellSize: cellSize,
	}
}

// Interpolation selects the resampling kernel.
type Interpolation int

const (
	Nearest Interpolation = iota
	Bilinear
)

// ParseInterpolation converts "nearest" or "bilinear".
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "nearest":
		return Nearest, nil
	case "bilinear":
		return Bilinear, nil
	default:
		return Nearest, fmt.Errorf("unknown interpolation %q", s)
	}
}

// Resample maps src, laid out on from, onto the pixel centres of to.
// Target pixels outside the source extent are NaN.
func Resample(src *Raster, from, to Grid, method Interpolation) (*Raster, error) {
	rows, cols := src.Dims()
	if rows != from.Rows || cols != from.Cols {
		return nil, fmt.Errorf("resample: raster is %dx%d, grid is %dx%d", rows, cols, from.Rows, from.Cols)
	}
	if err := to.Validate(); err != nil {
		return nil, err
	}

	out := mat.NewDense(to.Rows, to.Cols, nil)
	for i := 0; i < to.Rows; i++ {
		fi := (from.North - to.Lat(i)) / from.CellSize
		for j := 0; j < to.Cols; j++ {
			fj := (to.Lon(j) - from.West) / from.CellSize
			out.Set(i, j, sample(src, fi, fj, method))
		}
	}
	return &Raster{m: out}, nil
}

const edgeTolerance = 1e-9

func sample(src *Raster, fi, fj float64, method Interpolation) float64 {
	rows, cols := src.Dims()
	maxI, maxJ := float64(rows-1), float64(cols-1)
	if fi < -edgeTolerance || fj < -edgeTolerance || fi > maxI+edgeTolerance || fj > maxJ+edgeTolerance {
		return math.NaN()
	}
	fi = math.Min(math.Max(fi, 0), maxI)
	fj = math.Min(math.Max(fj, 0), maxJ)

	if method == Nearest {
		return src.At(int(math.Round(fi)), int(math.Round(fj)))
	}

	i0, j0 := int(math.Floor(fi)), int(math.Floor(fj))
	i1, j1 := min(i0+1, rows-1), min(j0+1, cols-1)
	di, dj := fi-float64(i0), fj-float64(j0)

	top := src.At(i0, j0)*(1-dj) + src.At(i0, j1)*dj
	bottom := src.At(i1, j0)*(1-dj) + src.At(i1, j1)*dj
	return top*(1-di) + bottom*di
}
