// Package domain models the messages exchanged by the fire weather service.
//
// # Weather grids
//
// Each source message is one day of gridded noon weather for a named region:
//
//	{"region":"bc-interior","date":"2024-07-01","timezone":"America/Vancouver",
//	 "grid":{"rows":2,"cols":2,"north":50.5,"west":-120.5,"cell_size":0.25},
//	 "units":{"temperature":"K","wind":"m/s","rain":"m"},
//	 "temperature":[...],"dewpoint":[...],"wind_u":[...],"wind_v":[...],
//	 "rain_hourly":[[...],[...]]}
//
// Fields are flat row-major arrays of grid.rows*grid.cols values. Missing
// pixels carry the nodata sentinel (default -9999), which becomes NaN.
//
// Reanalysis and forecast feeds rarely ship the FWI inputs directly, so a
// grid may instead supply:
//
//	dewpoint       relative humidity is derived with the Magnus formula
//	wind_u/wind_v  wind speed is the vector magnitude
//	rain_hourly    the 24 hourly accumulations ending at noon are summed
//
// Units are normalised to °C, km/h and mm before the grid reaches the
// calculator: K → °C, m/s → km/h (×3.6) and m → mm (×1000).
//
// # Observation time
//
// FWI observations are taken at local noon. The grid's date and timezone
// (IANA name, default UTC) give [WeatherGrid.ObservedAt]; its month selects
// the seasonal day length tables.
//
// # Index grids
//
// The sink message carries the three moisture codes and three indices as
// named rasters (FFMC, DMC, DC, ISI, BUI, FWI) on the grid actually
// computed, with a min/mean/max summary per raster.
//
// # ID Generation
//
// Index grid IDs are name-based UUIDs (SHA-1) of region|date. Replaying a
// day produces the same ID, so downstream stores can upsert idempotently.
// See [IndexGridID].
package domain
