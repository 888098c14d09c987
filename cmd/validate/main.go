// Command validate runs the fire weather engine over a single-station CSV of
// daily noon observations and compares every computed code with the expected
// values in the same file. It is the numeric acceptance check for the core.
//
// The CSV needs a header with date, temp, rh, wind and rain columns; any of
// ffmc, dmc, dc, isi, bui and fwi present are compared.
//
// Usage:
//
//	go run ./cmd/validate -csv testdata/station.csv -lat 45.98 -tolerance 0.1
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

var (
	inputCols = []string{"temp", "rh", "wind", "rain"}
	codeCols  = []string{"ffmc", "dmc", "dc", "isi", "bui", "fwi"}
)

type options struct {
	lat        float64
	tolerance  float64
	equatorial bool
	ffmc       float64
	dmc        float64
	dc         float64
}

// observation is one parsed CSV row. expected holds only the code columns
// present in the file.
type observation struct {
	lineNum  int
	date     time.Time
	weather  map[string]float64
	expected map[string]float64
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "station CSV with daily observations and expected codes")
	opts := options{}
	flag.Float64Var(&opts.lat, "lat", 46, "station latitude")
	flag.Float64Var(&opts.tolerance, "tolerance", 0.1, "maximum absolute difference per code")
	flag.BoolVar(&opts.equatorial, "equatorial", false, "use equatorial day length and drying factor")
	flag.Float64Var(&opts.ffmc, "ffmc", 85, "initial FFMC")
	flag.Float64Var(&opts.dmc, "dmc", 6, "initial DMC")
	flag.Float64Var(&opts.dc, "dc", 15, "initial DC")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	code := run(f, os.Stdout, opts)
	_ = f.Close()
	os.Exit(code)
}

func run(in io.Reader, out io.Writer, opts options) int {
	obs, err := loadObservations(in)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load observations: %v\n", err)
		return 1
	}

	p, computed := validate(obs, opts)

	fmt.Fprintf(out, "=== FWI Station Validation (lat %.2f, %d days) ===\n\n", opts.lat, len(obs))
	fmt.Fprintf(out, "%-12s", "date")
	for _, c := range codeCols {
		fmt.Fprintf(out, " %8s", strings.ToUpper(c))
	}
	fmt.Fprintln(out)
	for i, o := range obs {
		fmt.Fprintf(out, "%-12s", o.date.Format(time.DateOnly))
		for _, c := range codeCols {
			fmt.Fprintf(out, " %8.2f", computed[i][c])
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out)
	if p.passed() {
		fmt.Fprintf(out, "  %-42s \033[32mPASS\033[0m\n", p.name)
		return 0
	}
	fmt.Fprintf(out, "  %-42s \033[31mFAIL (%d errors)\033[0m\n\n", p.name, len(p.errors))
	for i, e := range p.errors {
		fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
	}
	return 1
}

// validate advances a 1x1 engine through obs and compares each day's codes.
// It returns the computed codes per day.
func validate(obs []observation, opts options) (*phase, []map[string]float64) {
	p := &phase{name: fmt.Sprintf("Codes within ±%g", opts.tolerance)}
	computed := make([]map[string]float64, len(obs))

	engine := fwi.NewEngine(raster.Scalar(opts.lat))
	if err := engine.Initialize(raster.Scalar(opts.ffmc), raster.Scalar(opts.dmc), raster.Scalar(opts.dc)); err != nil {
		p.errorf("initialize: %v", err)
		return p, computed
	}

	for i, o := range obs {
		computed[i] = map[string]float64{}
		derived, err := engine.Advance(fwi.Weather{
			Temp: raster.Scalar(o.weather["temp"]),
			RH:   raster.Scalar(o.weather["rh"]),
			Wind: raster.Scalar(o.weather["wind"]),
			Rain: raster.Scalar(o.weather["rain"]),
		}, fwi.Season{Date: o.date, Equatorial: opts.equatorial})
		if err != nil {
			p.errorf("line %d: advance: %v", o.lineNum, err)
			continue
		}
		state, err := engine.State()
		if err != nil {
			p.errorf("line %d: state: %v", o.lineNum, err)
			continue
		}

		for c, r := range map[string]*raster.Raster{
			"ffmc": state.FFMC, "dmc": state.DMC, "dc": state.DC,
			"isi": derived.ISI, "bui": derived.BUI, "fwi": derived.FWI,
		} {
			computed[i][c] = r.At(0, 0)
		}
		for _, c := range codeCols {
			want, ok := o.expected[c]
			if !ok {
				continue
			}
			if got := computed[i][c]; math.Abs(got-want) > opts.tolerance {
				p.errorf("line %d (%s): %s expected %.2f, got %.2f", o.lineNum, o.date.Format(time.DateOnly),
					strings.ToUpper(c), want, got)
			}
		}
	}
	return p, computed
}

func loadObservations(in io.Reader) ([]observation, error) {
	all, err := csv.NewReader(in).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range all[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range append([]string{"date"}, inputCols...) {
		if _, ok := colIdx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	obs := make([]observation, 0, len(all)-1)
	for i, row := range all[1:] {
		o := observation{lineNum: i + 2, weather: map[string]float64{}, expected: map[string]float64{}}
		if o.date, err = time.Parse(time.DateOnly, strings.TrimSpace(row[colIdx["date"]])); err != nil {
			return nil, fmt.Errorf("line %d: %w", o.lineNum, err)
		}
		for _, c := range inputCols {
			if o.weather[c], err = parseCell(row, colIdx[c]); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", o.lineNum, c, err)
			}
		}
		for _, c := range codeCols {
			idx, ok := colIdx[c]
			if !ok || idx >= len(row) || strings.TrimSpace(row[idx]) == "" {
				continue
			}
			if o.expected[c], err = parseCell(row, idx); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", o.lineNum, c, err)
			}
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func parseCell(row []string, i int) (float64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
}
