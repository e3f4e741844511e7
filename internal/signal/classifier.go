package signal

import (
	"math"

	"github.com/alanyoungcy/polysignal/internal/domain"
)

// Classify buckets a day-over-day probability change (in percentage points)
// into a severity tier. Magnitude is what matters; direction is carried
// separately by the sign of the change.
//
// Both comparisons are inclusive: a change exactly equal to the major
// threshold is major, exactly equal to the notable threshold is notable.
func Classify(dayChangePct, majorThreshold, notableThreshold float64) domain.Tier {
	abs := math.Abs(dayChangePct)
	switch {
	case abs >= majorThreshold:
		return domain.TierMajor
	case abs >= notableThreshold:
		return domain.TierNotable
	default:
		return domain.TierStable
	}
}
