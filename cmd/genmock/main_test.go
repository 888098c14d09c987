package main

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

func testOptions(days int) options {
	return options{
		region:   "bc-interior",
		timezone: "America/Vancouver",
		start:    time.Date(2024, 4, 13, 0, 0, 0, 0, time.UTC),
		days:     days,
		grid:     raster.Grid{Rows: 3, Cols: 2, North: 52, West: -124, CellSize: 0.25},
	}
}

func TestGenerate(t *testing.T) {
	grids := generate(testOptions(10))
	require.Len(t, grids, 10)

	assert.Equal(t, "2024-04-13", grids[0].Date)
	assert.Equal(t, "2024-04-22", grids[9].Date)

	var rainyDays int
	for _, g := range grids {
		require.NoError(t, g.Validate())
		for i, r := range g.Rain {
			assert.GreaterOrEqual(t, r, 0.0)
			assert.LessOrEqual(t, g.RelativeHumidity[i], 100.0)
			assert.GreaterOrEqual(t, g.RelativeHumidity[i], 15.0)
		}
		if g.Rain[0] > 0 {
			rainyDays++
		}
	}
	assert.Equal(t, 2, rainyDays)

	// Northern rows are cooler.
	assert.Less(t, grids[0].Temperature[0], grids[0].Temperature[4])
}

func TestGenerate_Deterministic(t *testing.T) {
	assert.Equal(t, generate(testOptions(5)), generate(testOptions(5)))
}

func TestComputeIndices(t *testing.T) {
	grids := generate(testOptions(5))

	indices, err := computeIndices(grids)
	require.NoError(t, err)
	require.Len(t, indices, 5)

	for i, ig := range indices {
		assert.Equal(t, grids[i].Date, ig.Date)
		assert.Equal(t, domain.IndexGridID("bc-interior", grids[i].Date), ig.ID)
		assert.Len(t, ig.FWI, 6)
		assert.Equal(t, 6, ig.Summary["FWI"].Valid)
	}
}

func TestWriteJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "grids.jsonl")
	grids := generate(testOptions(3))

	require.NoError(t, writeJSONLines(path, grids))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines int
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		var g domain.WeatherGrid
		require.NoError(t, json.Unmarshal(sc.Bytes(), &g))
		assert.Equal(t, grids[lines].Date, g.Date)
		lines++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 3, lines)
}
