package fwi

import (
	"math"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

const (
	dcRainMin   = 2.8  // mm
	dcDryingMin = -2.8 // °C
)

// DC advances yesterday's Drought Code by one day of weather.
// dryingFactor is the monthly Lf value from SeasonalTables.
func DC(w Weather, prev, dryingFactor *raster.Raster) *raster.Raster {
	// Rain phase.
	qo := prev.Map(func(d float64) float64 { return 800 * math.Exp(-d/400) })
	qr := raster.Map2(qo, w.Rain, func(q, r float64) float64 {
		return q + 3.937*(0.83*r-1.27)
	})
	wet := qr.Map(func(q float64) float64 { return 400 * math.Log(800/q) }).Max(0)
	d := raster.Select(w.Rain.Gt(dcRainMin), wet, prev)

	// Drying phase. Below the threshold the drying factor still applies on
	// its own.
	v := raster.Select(
		w.Temp.Gt(dcDryingMin),
		raster.Map2(w.Temp, dryingFactor, func(t, lf float64) float64 { return 0.36*(t+2.8) + lf }),
		dryingFactor,
	)

	return d.Add(v.Scale(0.5))
}
