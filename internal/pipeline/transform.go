package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/observability"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// CheckpointStore persists each region's fire codes between runs.
type CheckpointStore interface {
	Load(ctx context.Context, region string) (domain.Checkpoint, bool, error)
	Save(ctx context.Context, cp domain.Checkpoint) error
}

// TransformerConfig controls how regions are started and computed.
type TransformerConfig struct {
	// Codes for a region seen for the first time with no checkpoint.
	InitialFFMC float64
	InitialDMC  float64
	InitialDC   float64

	Equatorial   bool
	StrictRanges bool

	// TargetCellSize regrids inputs before computing when positive.
	TargetCellSize float64
	Interpolation  raster.Interpolation

	CacheSize int
	Format    domain.Format
}

// FWITransformer implements Transformer and Checkpointer. It owns one fire
// code engine per region and advances it by one day for every weather grid.
//
// Advanced state is held as pending until Checkpoint persists it, so a
// checkpoint never runs ahead of the output that was actually loaded.
type FWITransformer struct {
	cfg     TransformerConfig
	store   CheckpointStore
	logger  *slog.Logger
	metrics *observability.Metrics

	engines *engineCache
	loadMu  sync.Mutex // serialises cache misses

	pendingMu sync.Mutex
	pending   map[string]domain.Checkpoint
}

type regionEngine struct {
	mu     sync.Mutex
	grid   raster.Grid
	engine *fwi.Engine
}

// NewTransformer creates an FWITransformer. Pass a nil store to keep state in
// memory only.
func NewTransformer(cfg TransformerConfig, store CheckpointStore, logger *slog.Logger, metrics *observability.Metrics) *FWITransformer {
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 1
	}
	if cfg.Format == "" {
		cfg.Format = domain.FormatJSON
	}
	return &FWITransformer{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		metrics: metrics,
		engines: newEngineCache(cfg.CacheSize),
		pending: make(map[string]domain.Checkpoint),
	}
}

func (t *FWITransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	g, err := domain.ParseWeatherGrid(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	day, err := g.Day()
	if err != nil {
		return domain.OutputEvent{}, err
	}
	observedAt, err := g.ObservedAt()
	if err != nil {
		return domain.OutputEvent{}, err
	}
	w, err := g.Weather()
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("convert weather grid: %w", err)
	}

	grid := g.Grid
	if t.cfg.TargetCellSize > 0 {
		grid = g.Grid.WithCellSize(t.cfg.TargetCellSize)
		if w, err = regrid(w, g.Grid, grid, t.cfg.Interpolation); err != nil {
			return domain.OutputEvent{}, fmt.Errorf("regrid: %w", err)
		}
	}

	re, err := t.engineFor(ctx, g.Region, grid)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	re.mu.Lock()
	defer re.mu.Unlock()

	if re.grid != grid {
		return domain.OutputEvent{}, fmt.Errorf("%w: region %s grid changed from %+v to %+v",
			domain.ErrInvalidWeatherGrid, g.Region, re.grid, grid)
	}

	prev, err := re.engine.State()
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if !prev.Date.IsZero() && !day.After(prev.Date) {
		return domain.OutputEvent{}, fmt.Errorf("%w: region %s already computed through %s, got %s",
			domain.ErrStaleObservation, g.Region, prev.Date.Format(time.DateOnly), g.Date)
	}

	derived, err := re.engine.Advance(w, fwi.Season{Date: day, Equatorial: t.cfg.Equatorial})
	if err != nil {
		var domainErr *fwi.DomainError
		if errors.As(err, &domainErr) {
			t.metrics.DomainErrors.WithLabelValues(domainErr.Stage).Inc()
		}
		return domain.OutputEvent{}, fmt.Errorf("advance region %s to %s: %w", g.Region, g.Date, err)
	}

	state, err := re.engine.State()
	if err != nil {
		return domain.OutputEvent{}, err
	}
	t.stage(domain.Checkpoint{Region: g.Region, Grid: grid, State: state})

	t.logger.Debug("region advanced", "region", g.Region, "date", g.Date, "rows", grid.Rows, "cols", grid.Cols)

	return domain.NewIndexGrid(g, grid, observedAt, state, derived).OutputEvent(t.cfg.Format)
}

// Regions lists the regions held in memory, sorted by name.
func (t *FWITransformer) Regions() []domain.RegionStatus {
	cached := t.engines.snapshot()
	out := make([]domain.RegionStatus, 0, len(cached))
	for region, re := range cached {
		st := domain.RegionStatus{Region: region, Rows: re.grid.Rows, Cols: re.grid.Cols}
		re.mu.Lock()
		if s, err := re.engine.State(); err == nil && !s.Date.IsZero() {
			st.Date = s.Date.Format(time.DateOnly)
		}
		re.mu.Unlock()
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b domain.RegionStatus) int { return strings.Compare(a.Region, b.Region) })
	return out
}

// engineFor returns the region's engine, restoring it from a checkpoint or
// initializing it from the configured codes on a cache miss.
func (t *FWITransformer) engineFor(ctx context.Context, region string, grid raster.Grid) (*regionEngine, error) {
	if re, ok := t.engines.get(region); ok {
		t.metrics.EngineCache.WithLabelValues("hit").Inc()
		return re, nil
	}

	t.loadMu.Lock()
	defer t.loadMu.Unlock()
	if re, ok := t.engines.get(region); ok {
		return re, nil
	}
	t.metrics.EngineCache.WithLabelValues("miss").Inc()

	opts := []fwi.Option{
		fwi.WithLogger(t.logger.With("region", region)),
		fwi.WithStageObserver(t.metrics),
	}
	if t.cfg.StrictRanges {
		opts = append(opts, fwi.WithStrictRanges())
	}
	engine := fwi.NewEngine(grid.Latitudes(), opts...)

	restored, err := t.restore(ctx, engine, region, grid)
	if err != nil {
		return nil, err
	}
	if !restored {
		err := engine.Initialize(
			raster.Fill(grid.Rows, grid.Cols, t.cfg.InitialFFMC),
			raster.Fill(grid.Rows, grid.Cols, t.cfg.InitialDMC),
			raster.Fill(grid.Rows, grid.Cols, t.cfg.InitialDC),
		)
		if err != nil {
			return nil, fmt.Errorf("initialize region %s: %w", region, err)
		}
		t.logger.Info("region initialized", "region", region,
			"ffmc", t.cfg.InitialFFMC, "dmc", t.cfg.InitialDMC, "dc", t.cfg.InitialDC)
	}

	re := &regionEngine{grid: grid, engine: engine}
	if evicted, ok := t.engines.put(region, re); ok {
		t.logger.Debug("region evicted from engine cache", "region", evicted)
	}
	t.metrics.RegionsActive.Set(float64(t.engines.size()))
	return re, nil
}

func (t *FWITransformer) restore(ctx context.Context, engine *fwi.Engine, region string, grid raster.Grid) (bool, error) {
	if t.store == nil {
		return false, nil
	}
	// A region evicted before its state was persisted resumes from the
	// pending checkpoint, which is newer than the stored one.
	t.pendingMu.Lock()
	cp, found := t.pending[region]
	t.pendingMu.Unlock()
	if !found {
		var err error
		cp, found, err = t.store.Load(ctx, region)
		if err != nil {
			return false, fmt.Errorf("load checkpoint for region %s: %w", region, err)
		}
	}
	if !found {
		return false, nil
	}
	if cp.Grid != grid {
		t.logger.Warn("checkpoint grid differs from input, starting region fresh",
			"region", region, "checkpoint_grid", cp.Grid, "grid", grid)
		return false, nil
	}
	if err := engine.Restore(cp.State); err != nil {
		return false, fmt.Errorf("restore region %s: %w", region, err)
	}
	t.metrics.Checkpoints.WithLabelValues("restored").Inc()
	t.logger.Info("region restored", "region", region, "date", cp.State.Date.Format(time.DateOnly))
	return true, nil
}

func (t *FWITransformer) stage(cp domain.Checkpoint) {
	if t.store == nil {
		return
	}
	t.pendingMu.Lock()
	t.pending[cp.Region] = cp
	t.pendingMu.Unlock()
}

// Checkpoint saves the latest state of every region advanced since the last
// call. The pipeline calls it once a batch's output has been loaded. A failed
// save is logged and dropped; the region is recomputed from its previous
// checkpoint after a restart.
func (t *FWITransformer) Checkpoint(ctx context.Context) {
	t.pendingMu.Lock()
	pending := t.pending
	t.pending = make(map[string]domain.Checkpoint)
	t.pendingMu.Unlock()

	for _, cp := range pending {
		if err := t.store.Save(ctx, cp); err != nil {
			t.logger.Warn("checkpoint save failed", "region", cp.Region, "error", err)
			t.metrics.Checkpoints.WithLabelValues("failed").Inc()
			continue
		}
		t.metrics.Checkpoints.WithLabelValues("saved").Inc()
	}
}

func regrid(w fwi.Weather, from, to raster.Grid, method raster.Interpolation) (fwi.Weather, error) {
	var out fwi.Weather
	for _, f := range []struct {
		src *raster.Raster
		dst **raster.Raster
	}{
		{w.Temp, &out.Temp}, {w.RH, &out.RH}, {w.Wind, &out.Wind}, {w.Rain, &out.Rain},
	} {
		r, err := raster.Resample(f.src, from, to, method)
		if err != nil {
			return fwi.Weather{}, err
		}
		*f.dst = r
	}
	return out, nil
}
