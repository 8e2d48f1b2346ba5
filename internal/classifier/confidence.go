package classifier

import "math"

const (
	// maxScore caps the score used for confidence mapping.
	maxScore = 3.0

	confidenceFloor = 0.55
	confidenceCeil  = 0.98
)

// ToConfidence maps a match score onto [0.55, 0.98], rounded to two decimals
// with round-half-up (math.Round). The mapping is linear and monotonic: a
// score of 0 yields exactly 0.55, any score >= 3.0 yields exactly 0.98.
func ToConfidence(score float64) float64 {
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	t := score / maxScore
	c := confidenceFloor + t*(confidenceCeil-confidenceFloor)
	return math.Round(c*100) / 100
}
