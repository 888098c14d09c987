package fwi

import (
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// StageObserver receives the wall time of each stage. The pipeline wires it
// to a Prometheus histogram.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The engine only logs at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStageObserver reports per-stage timings to o.
func WithStageObserver(o StageObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// WithStrictRanges makes Advance fail with a *RangeError when a code or
// index leaves its valid range.
func WithStrictRanges() Option {
	return func(e *Engine) { e.strict = true }
}

// Engine owns the moisture codes of one grid and advances them one day at a
// time.
//
// An Engine is not safe for concurrent use: at most one Advance may be in
// flight. Calling Advance twice for the same day advances the codes twice.
type Engine struct {
	tables     *SeasonalTables
	rows, cols int
	logger     *slog.Logger
	observer   StageObserver
	strict     bool

	state *State
}

// NewEngine creates an engine for the grid whose per-pixel latitudes are
// given. The engine must be initialized or restored before Advance.
func NewEngine(latitudes *raster.Raster, opts ...Option) *Engine {
	rows, cols := latitudes.Dims()
	e := &Engine{
		tables: NewSeasonalTables(latitudes),
		rows:   rows,
		cols:   cols,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize sets the starting codes. It may be called once, and only on an
// engine that has not been restored.
func (e *Engine) Initialize(ffmc, dmc, dc *raster.Raster) error {
	if e.state != nil {
		return ErrAlreadyInitialized
	}
	s := State{FFMC: ffmc, DMC: dmc, DC: dc}
	if err := e.checkShape(map[string]*raster.Raster{"ffmc": ffmc, "dmc": dmc, "dc": dc}); err != nil {
		return err
	}
	e.state = &s
	return nil
}

// Restore resumes from previously computed codes, e.g. a checkpoint.
func (e *Engine) Restore(s State) error {
	if s.FFMC == nil || s.DMC == nil || s.DC == nil {
		return ErrNotInitialized
	}
	if err := e.checkShape(map[string]*raster.Raster{"ffmc": s.FFMC, "dmc": s.DMC, "dc": s.DC}); err != nil {
		return err
	}
	e.state = &s
	return nil
}

// State returns the current codes.
func (e *Engine) State() (State, error) {
	if e.state == nil {
		return State{}, ErrNotInitialized
	}
	return *e.state, nil
}

// Advance computes one day. On success the day's FFMC, DMC and DC replace the
// held state and the derived indices are returned. On error the held state is
// unchanged.
func (e *Engine) Advance(w Weather, s Season) (Derived, error) {
	if e.state == nil {
		return Derived{}, ErrNotInitialized
	}
	if err := e.checkShape(map[string]*raster.Raster{
		"temperature": w.Temp, "relative humidity": w.RH, "wind": w.Wind, "rain": w.Rain,
	}); err != nil {
		return Derived{}, err
	}

	prev := *e.state
	w = w.Sanitize()
	valid := finiteAll(append(w.rasters(), prev.rasters()...)...)

	var ffmc, dmc, dc *raster.Raster
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		ffmc = e.timed("ffmc", func() *raster.Raster { return FFMC(w, prev.FFMC) })
	}()
	go func() {
		defer wg.Done()
		dmc = e.timed("dmc", func() *raster.Raster { return DMC(w, prev.DMC, e.tables.DayLength(s)) })
	}()
	go func() {
		defer wg.Done()
		dc = e.timed("dc", func() *raster.Raster { return DC(w, prev.DC, e.tables.DryingFactor(s)) })
	}()
	wg.Wait()

	isi := e.timed("isi", func() *raster.Raster { return ISI(w.Wind, ffmc) })
	bui := e.timed("bui", func() *raster.Raster { return BUI(dmc, dc) })
	fwi := e.timed("fwi", func() *raster.Raster { return FWI(isi, bui) })

	outputs := []struct {
		stage string
		r     **raster.Raster
	}{
		{"ffmc", &ffmc}, {"dmc", &dmc}, {"dc", &dc}, {"isi", &isi}, {"bui", &bui}, {"fwi", &fwi},
	}
	for _, o := range outputs {
		if n := (*o.r).Finite().Not().And(valid).Count(); n > 0 {
			return Derived{}, &DomainError{Stage: o.stage, Count: n}
		}
		*o.r = raster.SelectConst(valid, *o.r, math.NaN())
	}

	next := State{FFMC: ffmc, DMC: dmc, DC: dc, Date: s.Date}
	derived := Derived{ISI: isi, BUI: bui, FWI: fwi}
	if e.strict {
		if err := ValidateRanges(next, derived); err != nil {
			return Derived{}, err
		}
	}

	e.state = &next
	e.logger.Debug("advanced fire codes",
		"date", s.Date.Format(time.DateOnly),
		"equatorial", s.Equatorial,
		"nodata_pixels", valid.Not().Count(),
	)
	return derived, nil
}

func (e *Engine) timed(stage string, fn func() *raster.Raster) *raster.Raster {
	start := time.Now()
	r := fn()
	if e.observer != nil {
		e.observer.ObserveStage(stage, time.Since(start))
	}
	return r
}

func (e *Engine) checkShape(fields map[string]*raster.Raster) error {
	for name, r := range fields {
		if r == nil {
			return &ShapeError{Field: name, WantRows: e.rows, WantCols: e.cols}
		}
		rows, cols := r.Dims()
		if rows != e.rows || cols != e.cols {
			return &ShapeError{Field: name, Rows: rows, Cols: cols, WantRows: e.rows, WantCols: e.cols}
		}
	}
	return nil
}

func finiteAll(rs ...*raster.Raster) raster.Mask {
	m := rs[0].Finite()
	for _, r := range rs[1:] {
		m = m.And(r.Finite())
	}
	return m
}

// ValidateRanges checks every finite pixel against the physically valid range
// of its code or index: FFMC in [0, 101], everything else non-negative.
func ValidateRanges(s State, d Derived) error {
	checks := []struct {
		code     string
		r        *raster.Raster
		min, max float64
	}{
		{"FFMC", s.FFMC, 0, ffmcMax},
		{"DMC", s.DMC, 0, math.Inf(1)},
		{"DC", s.DC, 0, math.Inf(1)},
		{"ISI", d.ISI, 0, math.Inf(1)},
		{"BUI", d.BUI, 0, math.Inf(1)},
		{"FWI", d.FWI, 0, math.Inf(1)},
	}
	for _, c := range checks {
		out := c.r.Lt(c.min).Or(c.r.Gt(c.max))
		if n := out.Count(); n > 0 {
			return &RangeError{Code: c.code, Count: n, Min: c.min, Max: c.max, Sample: firstSet(out, c.r)}
		}
	}
	return nil
}

func firstSet(m raster.Mask, r *raster.Raster) float64 {
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if m.At(i, j) {
				return r.At(i, j)
			}
		}
	}
	return math.NaN()
}
