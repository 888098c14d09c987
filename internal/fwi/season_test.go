package fwi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayLengthAt_Bands(t *testing.T) {
	tests := []struct {
		lat  float64
		want float64
	}{
		{lat: 60, want: 12.8},
		{lat: 33.01, want: 12.8},
		{lat: 33, want: 9.5},
		{lat: 0.01, want: 9.5},
		{lat: 0, want: 8.5},
		{lat: -29.99, want: 8.5},
		{lat: -30, want: 7.9},
		{lat: -90, want: 7.9},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DayLengthAt(time.April, tt.lat), "lat %v", tt.lat)
	}
}

func TestDryingFactorAt_Hemispheres(t *testing.T) {
	assert.Equal(t, 6.4, DryingFactorAt(time.July, 45))
	assert.Equal(t, -1.6, DryingFactorAt(time.July, 0))
	assert.Equal(t, -1.6, DryingFactorAt(time.July, -45))
	assert.Equal(t, 6.4, DryingFactorAt(time.January, -45))
}

func TestSeasonalTables(t *testing.T) {
	lat := row(50, 20, -20, -40)
	tables := NewSeasonalTables(lat)

	t.Run("maps latitude bands", func(t *testing.T) {
		s := Season{Date: time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)}
		assert.Equal(t, []float64{13.9, 10.2, 7.8, 6.2}, tables.DayLength(s).Values())
		assert.Equal(t, []float64{5.8, 5.8, -1.6, -1.6}, tables.DryingFactor(s).Values())
	})

	t.Run("follows month changes", func(t *testing.T) {
		s := Season{Date: time.Date(2024, time.December, 1, 12, 0, 0, 0, time.UTC)}
		assert.Equal(t, []float64{6.0, 7.8, 10.2, 11.8}, tables.DayLength(s).Values())
		assert.Equal(t, []float64{-1.6, -1.6, 5.8, 5.8}, tables.DryingFactor(s).Values())
	})

	t.Run("equatorial constants", func(t *testing.T) {
		s := Season{Date: time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC), Equatorial: true}
		assert.Equal(t, []float64{9, 9, 9, 9}, tables.DayLength(s).Values())
		assert.Equal(t, []float64{1.39, 1.39, 1.39, 1.39}, tables.DryingFactor(s).Values())
	})
}
