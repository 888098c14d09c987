package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid_Validate(t *testing.T) {
	tests := []struct {
		name    string
		grid    Grid
		wantErr bool
	}{
		{"valid", Grid{Rows: 3, Cols: 4, North: 50, West: -120, CellSize: 0.25}, false},
		{"zero rows", Grid{Rows: 0, Cols: 4, North: 50, CellSize: 0.25}, true},
		{"zero cell size", Grid{Rows: 3, Cols: 4, North: 50}, true},
		{"north of pole", Grid{Rows: 1, Cols: 1, North: 91, CellSize: 1}, true},
		{"south of pole", Grid{Rows: 3, Cols: 1, North: -89, CellSize: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.grid.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGrid_Latitudes(t *testing.T) {
	g := Grid{Rows: 3, Cols: 2, North: 1, West: 100, CellSize: 1}
	lat := g.Latitudes()

	assert.Equal(t, []float64{1, 1, 0, 0, -1, -1}, lat.Values())
	assert.Equal(t, -1.0, g.South())
	assert.Equal(t, 101.0, g.East())
	assert.Equal(t, 101.0, g.Lon(1))
}

func TestGrid_WithCellSize(t *testing.T) {
	g := Grid{Rows: 3, Cols: 5, North: 10, West: 20, CellSize: 1}
	fine := g.WithCellSize(0.5)

	assert.Equal(t, Grid{Rows: 5, Cols: 9, North: 10, West: 20, CellSize: 0.5}, fine)
	assert.Equal(t, g.South(), fine.South())
	assert.Equal(t, g.East(), fine.East())
}

func TestResample(t *testing.T) {
	from := Grid{Rows: 2, Cols: 2, North: 1, West: 0, CellSize: 1}
	src, err := New(2, 2, []float64{0, 10, 20, 30})
	require.NoError(t, err)

	to := from.WithCellSize(0.5)

	t.Run("bilinear", func(t *testing.T) {
		out, err := Resample(src, from, to, Bilinear)
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{
			0, 5, 10,
			10, 15, 20,
			20, 25, 30,
		}, out.Values(), 1e-12)
	})

	t.Run("nearest keeps source values", func(t *testing.T) {
		out, err := Resample(src, from, to, Nearest)
		require.NoError(t, err)
		for _, v := range out.Values() {
			assert.Contains(t, []float64{0, 10, 20, 30}, v)
		}
		assert.Equal(t, 0.0, out.At(0, 0))
		assert.Equal(t, 30.0, out.At(2, 2))
	})

	t.Run("outside extent is nodata", func(t *testing.T) {
		shifted := Grid{Rows: 1, Cols: 2, North: 1, West: 0.5, CellSize: 1}
		out, err := Resample(src, from, shifted, Bilinear)
		require.NoError(t, err)
		assert.Equal(t, 5.0, out.At(0, 0))
		assert.True(t, math.IsNaN(out.At(0, 1)))
	})

	t.Run("grid mismatch", func(t *testing.T) {
		_, err := Resample(Fill(3, 3, 0), from, to, Nearest)
		assert.Error(t, err)
	})
}

func TestParseInterpolation(t *testing.T) {
	m, err := ParseInterpolation("bilinear")
	require.NoError(t, err)
	assert.Equal(t, Bilinear, m)

	_, err = ParseInterpolation("cubic")
	assert.Error(t, err)
}
