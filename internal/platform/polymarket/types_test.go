package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIMarketToRecord(t *testing.T) {
	raw := `{
		"id": "123",
		"question": "Will the Fed cut rates in March?",
		"slug": "fed-march-cut",
		"outcomePrices": "[\"0.655\", \"0.345\"]",
		"oneDayPriceChange": 0.0712,
		"oneWeekPriceChange": -0.023,
		"volume24hr": 125000.5,
		"volumeNum": "2400000"
	}`

	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	rec := m.ToRecord()
	assert.Equal(t, "123", rec.ID)
	assert.Equal(t, 0.655, rec.YesPrice)
	assert.Equal(t, 0.345, rec.NoPrice)
	assert.Equal(t, 65.5, rec.CurrentProb)
	assert.Equal(t, 7.12, rec.DayChangePct)
	assert.Equal(t, -2.3, rec.WeekChangePct)
	assert.Equal(t, 125000.5, rec.Volume24h)
	assert.Equal(t, 2400000.0, rec.VolumeTotal)
}

func TestAPIMarketMissingChanges(t *testing.T) {
	var m APIMarket
	require.NoError(t, json.Unmarshal([]byte(`{"id":"1","outcomePrices":"[\"0.5\",\"0.5\"]"}`), &m))

	rec := m.ToRecord()
	assert.Equal(t, 0.0, rec.DayChangePct)
	assert.Equal(t, 0.0, rec.WeekChangePct)
	assert.Equal(t, 50.0, rec.CurrentProb)
}

func TestParseOutcomePricesMalformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not json", "oops"},
		{"wrong shape", `{"yes":"0.5"}`},
		{"non-numeric entries", `["abc","def"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yes, no := parseOutcomePrices(tt.encoded)
			assert.Equal(t, 0.0, yes)
			assert.Equal(t, 0.0, no)
		})
	}
}

func TestParseOutcomePricesSingleOutcome(t *testing.T) {
	yes, no := parseOutcomePrices(`["0.8"]`)
	assert.Equal(t, 0.8, yes)
	assert.Equal(t, 0.0, no)
}

func TestFlexFloatVariants(t *testing.T) {
	var m APIMarket

	require.NoError(t, json.Unmarshal([]byte(`{"volume24hr": "1500.25", "volumeNum": null}`), &m))
	assert.Equal(t, flexFloat(1500.25), m.Volume24hr)
	assert.Equal(t, flexFloat(0), m.VolumeNum)

	require.NoError(t, json.Unmarshal([]byte(`{"volume24hr": "garbage"}`), &m))
	assert.Equal(t, flexFloat(0), m.Volume24hr)
}
