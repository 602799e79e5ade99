package domain

import "math"

// SpeedBonusFactor caps the time bonus at +50% of base points.
const SpeedBonusFactor = 0.5

// ClampTime bounds client-reported elapsed time into [0, limit] seconds.
func ClampTime(spent float64, limit int) float64 {
	if math.IsNaN(spent) || spent < 0 {
		return 0
	}
	if ceiling := float64(limit); spent > ceiling {
		return ceiling
	}
	return spent
}

// AwardPoints applies the time-weighted formula. Incorrect answers earn nothing;
// an instant correct answer earns 1.5x base, a maximally slow one earns base.
func AwardPoints(base int, correct bool, spent float64, limit int) int {
	if !correct {
		return 0
	}
	if limit <= 0 {
		return base
	}
	t := ClampTime(spent, limit)
	bonus := math.Max(0, float64(limit)-t) / float64(limit)
	return int(math.Round(float64(base) * (1 + bonus*SpeedBonusFactor)))
}
