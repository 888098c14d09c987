package fwi

import (
	"math"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

const (
	ffmcMax         = 101.0
	fineMoistureMax = 250.0
	ffmcRainMin     = 0.5 // mm; less is intercepted by the canopy
)

// fineFuelMoisture converts an FFMC to fine fuel moisture content (%).
func fineFuelMoisture(ffmc *raster.Raster) *raster.Raster {
	return ffmc.Map(func(f float64) float64 {
		return 147.2 * (ffmcMax - f) / (59.5 + f)
	})
}

// FFMC advances yesterday's Fine Fuel Moisture Code by one day of weather.
func FFMC(w Weather, prev *raster.Raster) *raster.Raster {
	mo := fineFuelMoisture(prev)

	// Rain phase.
	raining := w.Rain.Gt(ffmcRainMin)
	rf := w.Rain.AddConst(-ffmcRainMin)
	gain := raster.Map2(mo, rf, func(m, r float64) float64 {
		return 42.5 * r * math.Exp(-100/(251-m)) * (1 - math.Exp(-6.93/r))
	})
	corrective := raster.Map2(mo, rf, func(m, r float64) float64 {
		return 0.0015 * (m - 150) * (m - 150) * math.Sqrt(r)
	})
	delta := raster.Select(mo.Gt(150), gain.Add(corrective), gain)
	mr := raster.Select(raining, mo.Add(delta), mo).Min(fineMoistureMax)

	// Drying/wetting phase.
	h, t, wind := w.RH, w.Temp, w.Wind
	ed := raster.Map2(h, t, func(h, t float64) float64 {
		return 0.942*math.Pow(h, 0.679) + 11*math.Exp((h-100)/10) + 0.18*(21.1-t)*(1-math.Exp(-0.115*h))
	})
	ew := raster.Map2(h, t, func(h, t float64) float64 {
		return 0.618*math.Pow(h, 0.753) + 10*math.Exp((h-100)/10) + 0.18*(21.1-t)*(1-math.Exp(-0.115*h))
	})
	kd := raster.Map3(h, wind, t, func(h, w, t float64) float64 {
		ko := 0.424*(1-math.Pow(h/100, 1.7)) + 0.0694*math.Sqrt(w)*(1-math.Pow(h/100, 8))
		return ko * 0.581 * math.Exp(0.0365*t)
	})
	kw := raster.Map3(h, wind, t, func(h, w, t float64) float64 {
		k1 := 0.424*(1-math.Pow((100-h)/100, 1.7)) + 0.0694*math.Sqrt(w)*(1-math.Pow((100-h)/100, 8))
		return k1 * 0.581 * math.Exp(0.0365*t)
	})

	dried := raster.Map3(ed, mr, kd, func(ed, m, k float64) float64 {
		return ed + (m-ed)*math.Pow(10, -k)
	})
	wetted := raster.Map3(ew, mr, kw, func(ew, m, k float64) float64 {
		return ew - (ew-m)*math.Pow(10, -k)
	})
	m := raster.Select(mr.GtRaster(ed), dried, raster.Select(mr.LtRaster(ew), wetted, mr))

	return m.Map(func(m float64) float64 {
		return 59.5 * (fineMoistureMax - m) / (147.2 + m)
	}).Min(ffmcMax)
}
