package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// indexNamespace scopes name-based index grid IDs.
var indexNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:fire-weather-etl:index-grid"))

// IndexGridID returns the deterministic ID for a region's day.
func IndexGridID(region, date string) string {
	return uuid.NewSHA1(indexNamespace, []byte(region+"|"+date)).String()
}

// NewIndexGrid assembles the output message for one advanced day. grid is
// the geometry the codes were computed on, which differs from the source
// grid when regridding is enabled. NaN pixels are written as the source
// grid's nodata sentinel.
func NewIndexGrid(src WeatherGrid, grid raster.Grid, observedAt time.Time, s fwi.State, d fwi.Derived) IndexGrid {
	nodata := src.NoDataValue()
	out := IndexGrid{
		ID:          IndexGridID(src.Region, src.Date),
		Region:      src.Region,
		Date:        src.Date,
		ObservedAt:  observedAt,
		Grid:        grid,
		NoData:      nodata,
		Summary:     make(map[string]raster.Summary, 6),
		ProcessedAt: clock.Now().UTC(),
	}

	for _, n := range []struct {
		name string
		r    *raster.Raster
		dst  *[]float64
	}{
		{"FFMC", s.FFMC, &out.FFMC},
		{"DMC", s.DMC, &out.DMC},
		{"DC", s.DC, &out.DC},
		{"ISI", d.ISI, &out.ISI},
		{"BUI", d.BUI, &out.BUI},
		{"FWI", d.FWI, &out.FWI},
	} {
		*n.dst = withNoData(n.r.Values(), nodata)
		out.Summary[n.name] = raster.Summarize(n.r)
	}
	return out
}

// OutputEvent encodes the grid for the sink topic, keyed by region so a
// region's days stay ordered within one partition.
func (ig IndexGrid) OutputEvent(f Format) (OutputEvent, error) {
	data, err := Encode(f, ig)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize index grid: %w", err)
	}
	return OutputEvent{
		Key:   []byte(ig.Region),
		Value: data,
		Headers: map[string]string{
			HeaderContentType: f.ContentType(),
			"id":              ig.ID,
			"date":            ig.Date,
			"processed_at":    ig.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}

func withNoData(vs []float64, nodata float64) []float64 {
	for i, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			vs[i] = nodata
		}
	}
	return vs
}
