package polymarket

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// flexFloat unmarshals from a JSON number or a string-encoded decimal, and
// tolerates null. The Gamma API is inconsistent about which it sends for
// volume fields.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = flexFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Unparsable price-like strings degrade to zero rather than failing
		// the whole batch decode.
		*f = 0
		return nil
	}
	*f = flexFloat(v)
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Gamma API. An event groups
// one or more related markets.
type APIEvent struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Description string      `json:"description"`
	Closed      bool        `json:"closed"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket represents a market as returned by the Gamma API.
type APIMarket struct {
	ID                 string    `json:"id"`
	Question           string    `json:"question"`
	Description        string    `json:"description"`
	Slug               string    `json:"slug"`
	OutcomePrices      string    `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.65\",\"0.35\"]"
	OneDayPriceChange  *float64  `json:"oneDayPriceChange"`  // fractional, e.g. 0.07 for +7 points
	OneWeekPriceChange *float64  `json:"oneWeekPriceChange"` // fractional
	Volume24hr         flexFloat `json:"volume24hr"`
	VolumeNum          flexFloat `json:"volumeNum"`
}

// ToRecord converts a Gamma APIMarket to a domain.MarketRecord, normalizing
// prices to percentage units. Malformed or missing outcome prices default to
// a probability of 0 for the record rather than failing.
func (m *APIMarket) ToRecord() domain.MarketRecord {
	yes, no := parseOutcomePrices(m.OutcomePrices)

	dayChange := 0.0
	if m.OneDayPriceChange != nil {
		dayChange = *m.OneDayPriceChange * 100
	}
	weekChange := 0.0
	if m.OneWeekPriceChange != nil {
		weekChange = *m.OneWeekPriceChange * 100
	}

	return domain.MarketRecord{
		ID:            m.ID,
		Question:      m.Question,
		Description:   m.Description,
		Slug:          m.Slug,
		YesPrice:      yes,
		NoPrice:       no,
		CurrentProb:   round1(yes * 100),
		DayChangePct:  round2(dayChange),
		WeekChangePct: round2(weekChange),
		Volume24h:     float64(m.Volume24hr),
		VolumeTotal:   float64(m.VolumeNum),
	}
}

// parseOutcomePrices decodes the JSON-encoded price array. Index 0 is the Yes
// outcome, index 1 (when present) the No outcome. Any parse failure yields
// (0, 0).
func parseOutcomePrices(encoded string) (yes, no float64) {
	if encoded == "" {
		return 0, 0
	}
	var prices []string
	if err := json.Unmarshal([]byte(encoded), &prices); err != nil {
		return 0, 0
	}
	if len(prices) > 0 {
		if v, err := strconv.ParseFloat(prices[0], 64); err == nil {
			yes = v
		}
	}
	if len(prices) > 1 {
		if v, err := strconv.ParseFloat(prices[1], 64); err == nil {
			no = v
		}
	}
	return yes, no
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
