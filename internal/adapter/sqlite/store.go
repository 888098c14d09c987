// Package sqlite persists each region's fire codes so a restarted service
// resumes where it left off.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/fire-weather-etl/internal/domain"
	"github.com/couchcryptid/fire-weather-etl/internal/fwi"
	"github.com/couchcryptid/fire-weather-etl/internal/raster"
)

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	region     TEXT PRIMARY KEY,
	date       TEXT NOT NULL,
	grid       TEXT NOT NULL,
	state      BLOB NOT NULL,
	updated_at TEXT NOT NULL
)`

// Store implements pipeline.CheckpointStore on a SQLite database.
type Store struct {
	db    *sql.DB
	clock clockwork.Clock
}

// codes is the stored form of a region's rasters. NaN pixels survive the
// msgpack round trip as float64 NaN.
type codes struct {
	Rows int       `msgpack:"rows"`
	Cols int       `msgpack:"cols"`
	FFMC []float64 `msgpack:"ffmc"`
	DMC  []float64 `msgpack:"dmc"`
	DC   []float64 `msgpack:"dc"`
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping checkpoint database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}
	return &Store{db: db, clock: clockwork.NewRealClock()}, nil
}

// Load returns the region's checkpoint. found is false when the region has
// never been saved.
func (s *Store) Load(ctx context.Context, region string) (cp domain.Checkpoint, found bool, err error) {
	var date, grid string
	var state []byte
	err = s.db.QueryRowContext(ctx,
		`SELECT date, grid, state FROM checkpoints WHERE region = ?`, region,
	).Scan(&date, &grid, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Checkpoint{}, false, nil
	}
	if err != nil {
		return domain.Checkpoint{}, false, fmt.Errorf("query checkpoint %s: %w", region, err)
	}

	cp.Region = region
	if err := json.Unmarshal([]byte(grid), &cp.Grid); err != nil {
		return domain.Checkpoint{}, false, fmt.Errorf("decode checkpoint grid %s: %w", region, err)
	}
	if cp.State, err = decodeState(date, state); err != nil {
		return domain.Checkpoint{}, false, fmt.Errorf("decode checkpoint state %s: %w", region, err)
	}
	return cp, true, nil
}

// Save inserts or replaces the region's checkpoint.
func (s *Store) Save(ctx context.Context, cp domain.Checkpoint) error {
	grid, err := json.Marshal(cp.Grid)
	if err != nil {
		return fmt.Errorf("encode checkpoint grid %s: %w", cp.Region, err)
	}
	state, err := encodeState(cp.State)
	if err != nil {
		return fmt.Errorf("encode checkpoint state %s: %w", cp.Region, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (region, date, grid, state, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (region) DO UPDATE SET
			date = excluded.date,
			grid = excluded.grid,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		cp.Region,
		cp.State.Date.Format(time.DateOnly),
		string(grid),
		state,
		s.clock.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save checkpoint %s: %w", cp.Region, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func encodeState(st fwi.State) ([]byte, error) {
	if st.FFMC == nil || st.DMC == nil || st.DC == nil {
		return nil, fwi.ErrNotInitialized
	}
	rows, cols := st.FFMC.Dims()
	var buf bytes.Buffer
	err := msgpack.NewEncoder(&buf).Encode(codes{
		Rows: rows,
		Cols: cols,
		FFMC: st.FFMC.Values(),
		DMC:  st.DMC.Values(),
		DC:   st.DC.Values(),
	})
	return buf.Bytes(), err
}

func decodeState(date string, data []byte) (fwi.State, error) {
	var c codes
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&c); err != nil {
		return fwi.State{}, err
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return fwi.State{}, err
	}

	st := fwi.State{Date: day}
	for _, f := range []struct {
		vs  []float64
		dst **raster.Raster
	}{
		{c.FFMC, &st.FFMC}, {c.DMC, &st.DMC}, {c.DC, &st.DC},
	} {
		r, err := raster.New(c.Rows, c.Cols, f.vs)
		if err != nil {
			return fwi.State{}, err
		}
		*f.dst = r
	}
	return st, nil
}
