package sqlite

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustRaster(t *testing.T, vs ...float64) *raster.Raster {
	t.Helper()
	r, err := raster.New(1, len(vs), vs)
	require.NoError(t, err)
	return r
}

func testCheckpoint(t *testing.T, region, date string, ffmc float64) domain.Checkpoint {
	t.Helper()
	day, err := time.Parse(time.DateOnly, date)
	require.NoError(t, err)
	return domain.Checkpoint{
		Region: region,
		Grid:   raster.Grid{Rows: 1, Cols: 2, North: 50, West: -120, CellSize: 0.25},
		State: fwi.State{
			FFMC: mustRaster(t, ffmc, math.NaN()),
			DMC:  mustRaster(t, 8.55, math.NaN()),
			DC:   mustRaster(t, 19.01, math.NaN()),
			Date: day,
		},
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Load(context.Background(), "nowhere")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := testCheckpoint(t, "bc-interior", "2024-04-13", 87.69)

	require.NoError(t, s.Save(ctx, want))

	got, found, err := s.Load(ctx, "bc-interior")
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, want.Region, got.Region)
	assert.Equal(t, want.Grid, got.Grid)
	assert.True(t, want.State.Date.Equal(got.State.Date))
	assert.True(t, raster.EqualApprox(want.State.FFMC, got.State.FFMC, 0))
	assert.True(t, raster.EqualApprox(want.State.DMC, got.State.DMC, 0))
	assert.True(t, raster.EqualApprox(want.State.DC, got.State.DC, 0))
	assert.True(t, math.IsNaN(got.State.FFMC.At(0, 1)))
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testCheckpoint(t, "bc-interior", "2024-04-13", 87.69)))
	require.NoError(t, s.Save(ctx, testCheckpoint(t, "bc-interior", "2024-04-14", 86.25)))
	require.NoError(t, s.Save(ctx, testCheckpoint(t, "yukon", "2024-04-13", 80)))

	got, found, err := s.Load(ctx, "bc-interior")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2024-04-14", got.State.Date.Format(time.DateOnly))
	assert.Equal(t, 86.25, got.State.FFMC.At(0, 0))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM checkpoints`).Scan(&n))
	assert.Equal(t, 2, n)
}

func TestStore_UpdatedAt(t *testing.T) {
	s := openTestStore(t)
	now := time.Date(2024, 4, 14, 18, 30, 0, 0, time.UTC)
	s.clock = clockwork.NewFakeClockAt(now)

	require.NoError(t, s.Save(context.Background(), testCheckpoint(t, "bc-interior", "2024-04-14", 86.25)))

	var updated string
	require.NoError(t, s.db.QueryRow(`SELECT updated_at FROM checkpoints WHERE region = ?`, "bc-interior").Scan(&updated))
	assert.Equal(t, "2024-04-14T18:30:00Z", updated)
}

func TestStore_InitializedStateKeepsZeroDate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	cp := testCheckpoint(t, "fresh", "2024-04-13", 85)
	cp.State.Date = time.Time{}

	require.NoError(t, s.Save(ctx, cp))

	got, found, err := s.Load(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.State.Date.IsZero())
}

func TestStore_SaveRejectsUninitializedState(t *testing.T) {
	s := openTestStore(t)

	err := s.Save(context.Background(), domain.Checkpoint{Region: "empty"})
	assert.ErrorIs(t, err, fwi.ErrNotInitialized)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, testCheckpoint(t, "bc-interior", "2024-04-13", 87.69)))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Ping(ctx))

	_, found, err := s.Load(ctx, "bc-interior")
	require.NoError(t, err)
	assert.True(t, found)
}
