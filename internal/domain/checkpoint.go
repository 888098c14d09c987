package domain

import (
	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// Checkpoint is a region's fire codes after its most recent day, with the
// grid they were computed on.
type Checkpoint struct {
	Region string
	Grid   raster.Grid
	State  fwi.State
}

// RegionStatus describes a region held in memory by the transformer.
type RegionStatus struct {
	Region string `json:"region"`
	Date   string `json:"date,omitempty"` // last advanced day, empty before the first
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
}
