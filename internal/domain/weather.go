package domain

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"
	_ "time/tzdata" // containers ship without zoneinfo

	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// DefaultNoData marks missing pixels when a grid does not name its own
// sentinel.
const DefaultNoData = -9999.0

const (
	dateLayout   = time.DateOnly
	hoursPerDay  = 24
	kelvinOffset = 273.15
	msToKph      = 3.6
	metresToMM   = 1000.0
)

var (
	// ErrInvalidWeatherGrid wraps every validation failure of a source
	// message. Such messages are skipped, never retried.
	ErrInvalidWeatherGrid = errors.New("invalid weather grid")

	// ErrStaleObservation is returned when a grid is not newer than the
	// last day already computed for its region.
	ErrStaleObservation = errors.New("stale observation")
)

// ParseWeatherGrid decodes and validates a source message. The codec is
// chosen by the message's content-type header.
func ParseWeatherGrid(raw RawEvent) (WeatherGrid, error) {
	var g WeatherGrid
	if err := Decode(raw.Headers[HeaderContentType], raw.Value, &g); err != nil {
		return WeatherGrid{}, fmt.Errorf("parse weather grid: %w", err)
	}
	if err := g.Validate(); err != nil {
		return WeatherGrid{}, err
	}
	return g, nil
}

// Validate checks that every required field is present and sized to the
// grid.
func (g WeatherGrid) Validate() error {
	if g.Region == "" {
		return invalid("region is required")
	}
	if _, err := g.Day(); err != nil {
		return invalid("date %q: %v", g.Date, err)
	}
	if _, err := g.location(); err != nil {
		return invalid("timezone %q: %v", g.Timezone, err)
	}
	if err := g.Grid.Validate(); err != nil {
		return invalid("%v", err)
	}
	if !slices.Contains([]string{"", "C", "K"}, g.Units.Temperature) {
		return invalid("unknown temperature unit %q", g.Units.Temperature)
	}
	if !slices.Contains([]string{"", "kph", "m/s"}, g.Units.Wind) {
		return invalid("unknown wind unit %q", g.Units.Wind)
	}
	if !slices.Contains([]string{"", "mm", "m"}, g.Units.Rain) {
		return invalid("unknown rain unit %q", g.Units.Rain)
	}

	n := g.Grid.Rows * g.Grid.Cols
	if err := checkLen("temperature", g.Temperature, n); err != nil {
		return err
	}

	switch {
	case g.RelativeHumidity != nil:
		if err := checkLen("relative_humidity", g.RelativeHumidity, n); err != nil {
			return err
		}
	case g.Dewpoint != nil:
		if err := checkLen("dewpoint", g.Dewpoint, n); err != nil {
			return err
		}
	default:
		return invalid("one of relative_humidity or dewpoint is required")
	}

	switch {
	case g.WindSpeed != nil:
		if err := checkLen("wind_speed", g.WindSpeed, n); err != nil {
			return err
		}
	case g.WindU != nil || g.WindV != nil:
		if err := checkLen("wind_u", g.WindU, n); err != nil {
			return err
		}
		if err := checkLen("wind_v", g.WindV, n); err != nil {
			return err
		}
	default:
		return invalid("one of wind_speed or wind_u/wind_v is required")
	}

	switch {
	case g.Rain != nil:
		if err := checkLen("rain", g.Rain, n); err != nil {
			return err
		}
	case g.RainHourly != nil:
		if len(g.RainHourly) != hoursPerDay {
			return invalid("rain_hourly has %d hours, want %d", len(g.RainHourly), hoursPerDay)
		}
		for h, layer := range g.RainHourly {
			if err := checkLen(fmt.Sprintf("rain_hourly[%d]", h), layer, n); err != nil {
				return err
			}
		}
	default:
		return invalid("one of rain or rain_hourly is required")
	}
	return nil
}

// Day returns the observation date at midnight UTC.
func (g WeatherGrid) Day() (time.Time, error) {
	return time.Parse(dateLayout, g.Date)
}

// ObservedAt returns local noon of the grid's date in its timezone.
func (g WeatherGrid) ObservedAt() (time.Time, error) {
	day, err := g.Day()
	if err != nil {
		return time.Time{}, err
	}
	loc, err := g.location()
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), 12, 0, 0, 0, loc), nil
}

// NoDataValue returns the grid's missing-pixel sentinel.
func (g WeatherGrid) NoDataValue() float64 {
	if g.NoData != nil {
		return *g.NoData
	}
	return DefaultNoData
}

// Weather converts the grid's fields to calculator inputs in °C, %, km/h
// and mm. The grid must have passed Validate.
func (g WeatherGrid) Weather() (fwi.Weather, error) {
	nodata := g.NoDataValue()
	field := func(vs []float64) (*raster.Raster, error) {
		return raster.New(g.Grid.Rows, g.Grid.Cols, withNaN(vs, nodata))
	}

	temp, err := field(g.Temperature)
	if err != nil {
		return fwi.Weather{}, fmt.Errorf("temperature: %w", err)
	}
	if g.Units.Temperature == "K" {
		temp = temp.AddConst(-kelvinOffset)
	}

	var rh *raster.Raster
	if g.RelativeHumidity != nil {
		if rh, err = field(g.RelativeHumidity); err != nil {
			return fwi.Weather{}, fmt.Errorf("relative_humidity: %w", err)
		}
	} else {
		dew, err := field(g.Dewpoint)
		if err != nil {
			return fwi.Weather{}, fmt.Errorf("dewpoint: %w", err)
		}
		if g.Units.Temperature == "K" {
			dew = dew.AddConst(-kelvinOffset)
		}
		rh = raster.Map2(temp, dew, RelativeHumidity)
	}

	var wind *raster.Raster
	if g.WindSpeed != nil {
		if wind, err = field(g.WindSpeed); err != nil {
			return fwi.Weather{}, fmt.Errorf("wind_speed: %w", err)
		}
	} else {
		u, err := field(g.WindU)
		if err != nil {
			return fwi.Weather{}, fmt.Errorf("wind_u: %w", err)
		}
		v, err := field(g.WindV)
		if err != nil {
			return fwi.Weather{}, fmt.Errorf("wind_v: %w", err)
		}
		wind = raster.Map2(u, v, math.Hypot)
	}
	if g.Units.Wind == "m/s" {
		wind = wind.Scale(msToKph)
	}

	var rain *raster.Raster
	if g.Rain != nil {
		if rain, err = field(g.Rain); err != nil {
			return fwi.Weather{}, fmt.Errorf("rain: %w", err)
		}
	} else {
		rain = raster.Fill(g.Grid.Rows, g.Grid.Cols, 0)
		for h, layer := range g.RainHourly {
			r, err := field(layer)
			if err != nil {
				return fwi.Weather{}, fmt.Errorf("rain_hourly[%d]: %w", h, err)
			}
			rain = rain.Add(r)
		}
	}
	if g.Units.Rain == "m" {
		rain = rain.Scale(metresToMM)
	}

	return fwi.Weather{Temp: temp, RH: rh, Wind: wind, Rain: rain}, nil
}

// RelativeHumidity derives relative humidity (%) from air temperature and
// dewpoint (°C) with the Magnus approximation.
func RelativeHumidity(temp, dewpoint float64) float64 {
	const a, b = 17.625, 243.04
	return 100 * math.Exp(a*dewpoint/(b+dewpoint)) / math.Exp(a*temp/(b+temp))
}

func (g WeatherGrid) location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(g.Timezone)
}

func withNaN(vs []float64, nodata float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		if v == nodata {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
	}
	return out
}

func checkLen(name string, vs []float64, want int) error {
	if len(vs) != want {
		return invalid("%s has %d values, want %d", name, len(vs), want)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidWeatherGrid, fmt.Sprintf(format, args...))
}
