package fwi

import (
	"math"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

const (
	dmcRainMin   = 1.5  // mm
	dmcDryingMin = -1.1 // °C; no duff drying at or below
)

// dmcSlope returns the rain-phase slope b for a previous DMC. The three bands
// are selected on the previous code, not on moisture content.
func dmcSlope(prev *raster.Raster) *raster.Raster {
	low := prev.Map(func(p float64) float64 { return 100 / (0.5 + 0.3*p) })
	mid := prev.Map(func(p float64) float64 { return 14 - 1.3*math.Log(p) })
	high := prev.Map(func(p float64) float64 { return 6.2*math.Log(p) - 17.2 })

	return raster.Select(prev.Lte(33), low, raster.Select(prev.Lte(65), mid, high))
}

// DMC advances yesterday's Duff Moisture Code by one day of weather.
// dayLength is the effective day length from SeasonalTables.
func DMC(w Weather, prev, dayLength *raster.Raster) *raster.Raster {
	// Rain phase.
	mo := prev.Map(func(p float64) float64 { return 20 + 280/math.Exp(0.023*p) })
	re := w.Rain.Map(func(r float64) float64 { return 0.92*r - 1.27 })
	b := dmcSlope(prev)

	mr := raster.Map3(mo, re, b, func(m, r, b float64) float64 {
		return m + 1000*r/(48.77+b*r)
	})
	wet := mr.Map(func(m float64) float64 {
		return 244.72 - 43.43*math.Log(math.Abs(m-20))
	}).Max(0)
	p := raster.Select(w.Rain.Gt(dmcRainMin), wet, prev)

	// Drying phase.
	k := raster.Map3(w.Temp, w.RH, dayLength, func(t, h, le float64) float64 {
		return 1.894 * (t + 1.1) * (100 - h) * le * 1e-6
	})
	k = raster.SelectConst(w.Temp.Gt(dmcDryingMin), k, 0)

	return p.Add(k.Scale(100))
}
