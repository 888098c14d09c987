package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Units names the units a WeatherGrid's fields are expressed in. Empty
// values mean °C, km/h and mm.
type Units struct {
	Temperature string `json:"temperature,omitempty"` // "C" or "K"; also applies to dewpoint
	Wind        string `json:"wind,omitempty"`        // "kph" or "m/s"
	Rain        string `json:"rain,omitempty"`        // "mm" or "m"
}

// WeatherGrid is one region's noon weather for one day.
type WeatherGrid struct {
	Region   string      `json:"region"`
	Date     string      `json:"date"` // YYYY-MM-DD
	Timezone string      `json:"timezone,omitempty"`
	Grid     raster.Grid `json:"grid"`
	NoData   *float64    `json:"nodata,omitempty"`
	Units    Units       `json:"units"`

	Temperature      []float64   `json:"temperature"`
	RelativeHumidity []float64   `json:"relative_humidity,omitempty"`
	Dewpoint         []float64   `json:"dewpoint,omitempty"`
	WindSpeed        []float64   `json:"wind_speed,omitempty"`
	WindU            []float64   `json:"wind_u,omitempty"`
	WindV            []float64   `json:"wind_v,omitempty"`
	Rain             []float64   `json:"rain,omitempty"`
	RainHourly       [][]float64 `json:"rain_hourly,omitempty"`
}

// IndexGrid is the computed fire weather for one region and day.
type IndexGrid struct {
	ID         string      `json:"id"`
	Region     string      `json:"region"`
	Date       string      `json:"date"`
	ObservedAt time.Time   `json:"observed_at"`
	Grid       raster.Grid `json:"grid"`
	NoData     float64     `json:"nodata"`

	FFMC []float64 `json:"FFMC"`
	DMC  []float64 `json:"DMC"`
	DC   []float64 `json:"DC"`
	ISI  []float64 `json:"ISI"`
	BUI  []float64 `json:"BUI"`
	FWI  []float64 `json:"FWI"`

	Summary map[string]raster.Summary `json:"summary"`

	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
