// Command genmock writes synthetic daily weather grids as JSON lines, one
// WeatherGrid per line, for local runs and integration tests. With -index-out
// it also runs the grids through the transformer and writes the expected
// IndexGrids, so fixtures always match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -region bc-interior -start 2024-04-13 -days 30 \
//	  -rows 8 -cols 8 -north 52 -west -124 -cell 0.25 \
//	  -out data/mock/weather_grids.jsonl \
//	  -index-out data/mock/index_grids.jsonl
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/observability"
	"github.com/couchcryptid/fire-weather-etl/internal/pipeline"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

type options struct {
	region   string
	timezone string
	start    time.Time
	days     int
	grid     raster.Grid
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	region := flag.String("region", "bc-interior", "region name")
	timezone := flag.String("timezone", "America/Vancouver", "IANA timezone of the region")
	start := flag.String("start", "2024-04-13", "first day, YYYY-MM-DD")
	days := flag.Int("days", 30, "number of consecutive days")
	rows := flag.Int("rows", 4, "grid rows")
	cols := flag.Int("cols", 4, "grid columns")
	north := flag.Float64("north", 52, "latitude of the top row")
	west := flag.Float64("west", -124, "longitude of the left column")
	cell := flag.Float64("cell", 0.25, "cell size in degrees")
	out := flag.String("out", "", "output path for weather grids (JSON lines)")
	indexOut := flag.String("index-out", "", "optional output path for computed index grids (JSON lines)")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	startDay, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	if *days < 1 {
		return fmt.Errorf("invalid -days: must be positive")
	}

	opts := options{
		region:   *region,
		timezone: *timezone,
		start:    startDay,
		days:     *days,
		grid:     raster.Grid{Rows: *rows, Cols: *cols, North: *north, West: *west, CellSize: *cell},
	}
	if err := opts.grid.Validate(); err != nil {
		return err
	}

	grids := generate(opts)
	if err := writeJSONLines(*out, grids); err != nil {
		return fmt.Errorf("writing weather grids: %w", err)
	}
	log.Printf("wrote %d weather grids: %s", len(grids), *out)

	if *indexOut == "" {
		return nil
	}
	indices, err := computeIndices(grids)
	if err != nil {
		return err
	}
	if err := writeJSONLines(*indexOut, indices); err != nil {
		return fmt.Errorf("writing index grids: %w", err)
	}
	log.Printf("wrote %d index grids: %s", len(indices), *indexOut)
	printSummary(indices)
	return nil
}

// generate builds one grid per day with a seasonal temperature cycle,
// cooler northern rows and a rain event every few days.
func generate(opts options) []domain.WeatherGrid {
	n := opts.grid.Rows * opts.grid.Cols
	out := make([]domain.WeatherGrid, 0, opts.days)
	for d := range opts.days {
		day := opts.start.AddDate(0, 0, d)
		seasonal := math.Sin(2 * math.Pi * float64(day.YearDay()-80) / 365)
		rainy := (d*7+3)%5 == 0

		g := domain.WeatherGrid{
			Region:           opts.region,
			Date:             day.Format(time.DateOnly),
			Timezone:         opts.timezone,
			Grid:             opts.grid,
			Temperature:      make([]float64, 0, n),
			RelativeHumidity: make([]float64, 0, n),
			WindSpeed:        make([]float64, 0, n),
			Rain:             make([]float64, 0, n),
		}
		for i := range opts.grid.Rows {
			cooling := 0.6 * (opts.grid.Lat(i) - opts.grid.South())
			for j := range opts.grid.Cols {
				temp := round1(14 + 10*seasonal - cooling + 2*math.Sin(float64(d)*0.9))
				rh := math.Min(100, math.Max(15, 75-1.6*temp))
				rain := 0.0
				if rainy {
					rh = math.Min(100, rh+25)
					rain = round1(1.5 + float64(d%4)*3 + 0.2*float64(j))
				}
				wind := round1(8 + 12*math.Abs(math.Sin(float64(d)*0.7)) + 0.5*float64(j))

				g.Temperature = append(g.Temperature, temp)
				g.RelativeHumidity = append(g.RelativeHumidity, round1(rh))
				g.WindSpeed = append(g.WindSpeed, wind)
				g.Rain = append(g.Rain, rain)
			}
		}
		out = append(out, g)
	}
	return out
}

// computeIndices runs the grids through an in-memory transformer with a fixed
// clock for reproducible processed_at values.
func computeIndices(grids []domain.WeatherGrid) ([]domain.IndexGrid, error) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	tfm := pipeline.NewTransformer(pipeline.TransformerConfig{
		InitialFFMC: 85,
		InitialDMC:  6,
		InitialDC:   15,
		CacheSize:   1,
	}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())

	out := make([]domain.IndexGrid, 0, len(grids))
	for _, g := range grids {
		data, err := json.Marshal(g)
		if err != nil {
			return nil, err
		}
		ev, err := tfm.Transform(context.Background(), domain.RawEvent{Key: []byte(g.Region), Value: data})
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", g.Region, g.Date, err)
		}
		var ig domain.IndexGrid
		if err := json.Unmarshal(ev.Value, &ig); err != nil {
			return nil, err
		}
		out = append(out, ig)
	}
	return out, nil
}

func writeJSONLines[T any](path string, items []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			_ = f.Close()
			return err
		}
	}
	return f.Close()
}

func printSummary(indices []domain.IndexGrid) {
	fmt.Println()
	fmt.Printf("%-12s %8s %8s %8s %8s\n", "date", "FFMC", "DMC", "DC", "FWI max")
	for _, ig := range indices {
		fmt.Printf("%-12s %8.2f %8.2f %8.2f %8.2f\n", ig.Date,
			ig.Summary["FFMC"].Mean, ig.Summary["DMC"].Mean, ig.Summary["DC"].Mean, ig.Summary["FWI"].Max)
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
