package fwi

import (
	"math"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// ISI computes the Initial Spread Index from wind speed and today's FFMC.
func ISI(wind, ffmc *raster.Raster) *raster.Raster {
	m := fineFuelMoisture(ffmc)
	return raster.Map2(wind, m, func(w, m float64) float64 {
		fWind := math.Exp(0.05039 * w)
		fF := 91.9 * math.Exp(-0.1386*m) * (1 + math.Pow(m, 5.31)/4.93e7)
		return 0.208 * fWind * fF
	})
}

// BUI computes the Buildup Index from today's DMC and DC.
//
// Where dmc+0.4*dc is not positive the index is 0, the limit of the
// low-DMC branch as DMC approaches 0. A winter DC below zero can push the
// high-DMC branch negative, so the result is floored at 0.
func BUI(dmc, dc *raster.Raster) *raster.Raster {
	denom := raster.Map2(dmc, dc, func(p, d float64) float64 { return p + 0.4*d })

	low := raster.Map3(dmc, dc, denom, func(p, d, s float64) float64 {
		return 0.8 * p * d / s
	})
	high := raster.Map3(dmc, dc, denom, func(p, d, s float64) float64 {
		return p - (1-0.8*d/s)*(0.92+math.Pow(0.0114*p, 1.7))
	})

	u := raster.Select(dmc.LteRaster(dc.Scale(0.4)), low, high)
	return raster.SelectConst(denom.Gt(0), u, 0).Max(0)
}

// FWI computes the Fire Weather Index from today's ISI and BUI.
func FWI(isi, bui *raster.Raster) *raster.Raster {
	heavy := bui.Map(func(u float64) float64 { return 1000 / (25 + 108.64*math.Exp(-0.023*u)) })
	normal := bui.Map(func(u float64) float64 { return 0.626*math.Pow(u, 0.809) + 2 })
	fD := raster.Select(bui.Gt(80), heavy, normal)

	b := isi.Mul(fD).Scale(0.1)
	s := b.Map(func(b float64) float64 {
		return math.Exp(2.72 * math.Pow(0.434*math.Log(b), 0.647))
	})
	return raster.Select(b.Gt(1), s, b)
}
