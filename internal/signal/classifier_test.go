package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

func TestClassify(t *testing.T) {
	const major, notable = 5.0, 2.0

	tests := []struct {
		name      string
		dayChange float64
		want      domain.Tier
	}{
		{"large positive move", 7.0, domain.TierMajor},
		{"large negative move", -7.0, domain.TierMajor},
		{"exactly major threshold", 5.0, domain.TierMajor},
		{"mid-range move", 3.0, domain.TierNotable},
		{"exactly notable threshold", 2.0, domain.TierNotable},
		{"negative notable", -2.5, domain.TierNotable},
		{"small move", 1.0, domain.TierStable},
		{"flat", 0.0, domain.TierStable},
		{"just below notable", 1.99, domain.TierStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.dayChange, major, notable))
		})
	}
}

func TestClassifyMonotonic(t *testing.T) {
	// Severity must never decrease as the magnitude grows.
	rank := map[domain.Tier]int{domain.TierStable: 0, domain.TierNotable: 1, domain.TierMajor: 2}

	prev := -1
	for change := 0.0; change <= 10.0; change += 0.25 {
		got := rank[Classify(change, 5.0, 2.0)]
		assert.GreaterOrEqual(t, got, prev, "severity dropped at change=%v", change)
		prev = got
	}
}
