package pipeline_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

// Standard FWI test data: noon weather at a northern site, starting in April.
var referenceDays = []struct {
	date                 string
	temp, rh, wind, rain float64
	ffmc, dmc, dc, fwi   float64
}{
	{"2024-04-13", 17, 42, 25, 0, 87.69, 8.55, 19.01, 10.10},
	{"2024-04-14", 20, 21, 25, 2.4, 86.25, 10.40, 23.57, 9.28},
}

func referenceGrid(region, date string, temp, rh, wind, rain float64) domain.WeatherGrid {
	return domain.WeatherGrid{
		Region:           region,
		Date:             date,
		Grid:             raster.Grid{Rows: 1, Cols: 1, North: 50, West: -120, CellSize: 0.25},
		Temperature:      []float64{temp},
		RelativeHumidity: []float64{rh},
		WindSpeed:        []float64{wind},
		Rain:             []float64{rain},
	}
}

func makeRawEvent(t *testing.T, g domain.WeatherGrid) domain.RawEvent {
	t.Helper()
	data, err := json.Marshal(g)
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(g.Region),
		Value: data,
	}
}

func referenceEvents(t *testing.T, region string) []domain.RawEvent {
	t.Helper()
	events := make([]domain.RawEvent, len(referenceDays))
	for i, d := range referenceDays {
		events[i] = makeRawEvent(t, referenceGrid(region, d.date, d.temp, d.rh, d.wind, d.rain))
	}
	return events
}

// memoryStore is an in-memory CheckpointStore.
type memoryStore struct {
	mu      sync.Mutex
	byKey   map[string]domain.Checkpoint
	saves   int
	loadErr error
	saveErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byKey: make(map[string]domain.Checkpoint)}
}

func (s *memoryStore) Load(_ context.Context, region string) (domain.Checkpoint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return domain.Checkpoint{}, false, s.loadErr
	}
	cp, ok := s.byKey[region]
	return cp, ok, nil
}

func (s *memoryStore) Save(_ context.Context, cp domain.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.byKey[cp.Region] = cp
	s.saves++
	return nil
}
