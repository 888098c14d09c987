package fwi

import (
	"time"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// Weather holds one day's noon observations, all on the same grid.
type Weather struct {
	Temp *raster.Raster // °C
	RH   *raster.Raster // %
	Wind *raster.Raster // km/h
	Rain *raster.Raster // mm over the past 24 hours
}

// Sanitize clamps relative humidity to [0, 100] and floors wind and rain at zero.
func (w Weather) Sanitize() Weather {
	return Weather{
		Temp: w.Temp,
		RH:   w.RH.Max(0).Min(100),
		Wind: w.Wind.Max(0),
		Rain: w.Rain.Max(0),
	}
}

func (w Weather) rasters() []*raster.Raster {
	return []*raster.Raster{w.Temp, w.RH, w.Wind, w.Rain}
}

// State is the set of moisture codes carried from one day to the next.
// Date is the observation date the codes were computed for; it is zero for
// codes set by Initialize.
type State struct {
	FFMC *raster.Raster
	DMC  *raster.Raster
	DC   *raster.Raster
	Date time.Time
}

func (s State) rasters() []*raster.Raster {
	return []*raster.Raster{s.FFMC, s.DMC, s.DC}
}

// Derived holds the indices computed from a day's codes. They are never
// carried forward.
type Derived struct {
	ISI *raster.Raster
	BUI *raster.Raster
	FWI *raster.Raster
}

// Season selects the monthly table row and whether equatorial constants
// replace the latitude-dependent lookups.
type Season struct {
	Date       time.Time
	Equatorial bool
}
