package domain

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

func row(vs ...float64) *raster.Raster {
	r, err := raster.New(1, len(vs), vs)
	if err != nil {
		panic(err)
	}
	return r
}

func freezeClock(t *testing.T, at time.Time) {
	t.Helper()
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })
}

func testIndexGrid(t *testing.T) IndexGrid {
	t.Helper()
	src := testGrid()
	observedAt, err := src.ObservedAt()
	require.NoError(t, err)

	state := fwi.State{FFMC: row(87.7, math.NaN()), DMC: row(8.5, math.NaN()), DC: row(19, math.NaN())}
	derived := fwi.Derived{ISI: row(10.9, math.NaN()), BUI: row(8.5, math.NaN()), FWI: row(10.1, math.NaN())}
	return NewIndexGrid(src, src.Grid, observedAt, state, derived)
}

func TestIndexGridID(t *testing.T) {
	a := IndexGridID(testRegion, "2024-04-13")
	assert.Equal(t, a, IndexGridID(testRegion, "2024-04-13"))
	assert.NotEqual(t, a, IndexGridID(testRegion, "2024-04-14"))
	assert.NotEqual(t, a, IndexGridID("yukon", "2024-04-13"))

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), id.Version())
}

func TestNewIndexGrid(t *testing.T) {
	now := time.Date(2024, 4, 13, 20, 30, 0, 0, time.UTC)
	freezeClock(t, now)

	ig := testIndexGrid(t)

	want := IndexGrid{
		ID:         IndexGridID(testRegion, "2024-04-13"),
		Region:     testRegion,
		Date:       "2024-04-13",
		ObservedAt: time.Date(2024, 4, 13, 12, 0, 0, 0, time.UTC),
		Grid:       testGrid().Grid,
		NoData:     DefaultNoData,
		FFMC:       []float64{87.7, DefaultNoData},
		DMC:        []float64{8.5, DefaultNoData},
		DC:         []float64{19, DefaultNoData},
		ISI:        []float64{10.9, DefaultNoData},
		BUI:        []float64{8.5, DefaultNoData},
		FWI:        []float64{10.1, DefaultNoData},
		Summary: map[string]raster.Summary{
			"FFMC": {Min: 87.7, Mean: 87.7, Max: 87.7, Valid: 1},
			"DMC":  {Min: 8.5, Mean: 8.5, Max: 8.5, Valid: 1},
			"DC":   {Min: 19, Mean: 19, Max: 19, Valid: 1},
			"ISI":  {Min: 10.9, Mean: 10.9, Max: 10.9, Valid: 1},
			"BUI":  {Min: 8.5, Mean: 8.5, Max: 8.5, Valid: 1},
			"FWI":  {Min: 10.1, Mean: 10.1, Max: 10.1, Valid: 1},
		},
		ProcessedAt: now,
	}
	if diff := cmp.Diff(want, ig); diff != "" {
		t.Errorf("NewIndexGrid mismatch (-want +got):\n%s", diff)
	}
}

func TestIndexGrid_OutputEvent(t *testing.T) {
	now := time.Date(2024, 4, 13, 20, 30, 0, 0, time.UTC)
	freezeClock(t, now)
	ig := testIndexGrid(t)

	t.Run("json", func(t *testing.T) {
		out, err := ig.OutputEvent(FormatJSON)
		require.NoError(t, err)

		assert.Equal(t, []byte(testRegion), out.Key)
		assert.Equal(t, ContentTypeJSON, out.Headers[HeaderContentType])
		assert.Equal(t, ig.ID, out.Headers["id"])
		assert.Equal(t, "2024-04-13", out.Headers["date"])
		assert.Equal(t, "2024-04-13T20:30:00Z", out.Headers["processed_at"])
		assert.Contains(t, string(out.Value), `"FWI":[10.1,-9999]`)

		var decoded IndexGrid
		require.NoError(t, json.Unmarshal(out.Value, &decoded))
		assert.Equal(t, ig.Summary, decoded.Summary)
	})

	t.Run("msgpack", func(t *testing.T) {
		out, err := ig.OutputEvent(FormatMsgpack)
		require.NoError(t, err)
		assert.Equal(t, ContentTypeMsgpack, out.Headers[HeaderContentType])

		var decoded IndexGrid
		require.NoError(t, Decode(out.Headers[HeaderContentType], out.Value, &decoded))
		assert.Equal(t, ig.FFMC, decoded.FFMC)
		assert.Equal(t, ig.Grid, decoded.Grid)
		assert.True(t, ig.ProcessedAt.Equal(decoded.ProcessedAt))
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MsgPack")
	require.NoError(t, err)
	assert.Equal(t, FormatMsgpack, f)
	assert.Equal(t, ContentTypeMsgpack, f.ContentType())

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, f.ContentType())

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
