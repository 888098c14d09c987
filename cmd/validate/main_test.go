package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stationCSV = `date,temp,rh,wind,rain,ffmc,dmc,dc,isi,bui,fwi
2024-04-13,17,42,25,0,87.69,8.55,19.01,10.85,8.49,10.10
2024-04-14,20,21,25,2.4,86.25,10.40,23.57,8.84,10.36,9.28
`

func defaultOptions() options {
	return options{lat: 46, tolerance: 0.05, ffmc: 85, dmc: 6, dc: 15}
}

func TestLoadObservations(t *testing.T) {
	obs, err := loadObservations(strings.NewReader(stationCSV))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, 2, obs[0].lineNum)
	assert.Equal(t, "2024-04-14", obs[1].date.Format("2006-01-02"))
	assert.Equal(t, 2.4, obs[1].weather["rain"])
	assert.Equal(t, 9.28, obs[1].expected["fwi"])
}

func TestLoadObservations_Errors(t *testing.T) {
	tests := map[string]string{
		"header only":    "date,temp,rh,wind,rain\n",
		"missing column": "date,temp,rh,wind\n2024-04-13,17,42,25\n",
		"bad date":       "date,temp,rh,wind,rain\n13/04/2024,17,42,25,0\n",
		"bad number":     "date,temp,rh,wind,rain\n2024-04-13,warm,42,25,0\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadObservations(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestLoadObservations_ExpectedColumnsOptional(t *testing.T) {
	obs, err := loadObservations(strings.NewReader("date,temp,rh,wind,rain,fwi\n2024-04-13,17,42,25,0,\n"))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Empty(t, obs[0].expected)
}

func TestRun_Passes(t *testing.T) {
	var out bytes.Buffer
	code := run(strings.NewReader(stationCSV), &out, defaultOptions())

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "PASS")
}

func TestRun_ReportsMismatch(t *testing.T) {
	in := strings.Replace(stationCSV, "9.28", "12.00", 1)

	var out bytes.Buffer
	code := run(strings.NewReader(in), &out, defaultOptions())

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FWI expected 12.00, got 9.28")
}
