// Package fwi computes the Canadian Forest Fire Weather Index (FWI) System
// over rasters.
//
// # Codes and indices
//
// Three moisture codes carry state from one day to the next:
//
//	FFMC  Fine Fuel Moisture Code   surface litter, responds within hours
//	DMC   Duff Moisture Code        loosely compacted organic layer
//	DC    Drought Code              deep compact organic layer, seasonal
//
// Three indices are derived fresh every day from today's codes:
//
//	ISI   Initial Spread Index      wind + FFMC
//	BUI   Buildup Index             DMC + DC
//	FWI   Fire Weather Index        ISI + BUI
//
// # Inputs
//
// Noon local standard time observations: temperature (°C), relative
// humidity (%), wind speed (km/h) and 24-hour rainfall (mm). Day length and
// the DC drying factor come from monthly tables split by latitude band, or
// from fixed constants in equatorial mode.
//
// # Evaluation
//
// Each stage is a pure function over rasters. Piecewise formulas compute
// every branch for every pixel and blend them with [raster.Select], which
// never reads the discarded branch; out-of-domain values (log of a
// non-positive number) produced there cannot reach the result.
//
// The formulas follow Van Wagner & Pickett (1985), "Equations and FORTRAN
// program for the Canadian Forest Fire Weather Index System".
package fwi
