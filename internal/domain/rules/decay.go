package rules

import "math"

const (
	MinDeactivationDays = 1
	MaxDeactivationDays = 30

	decayConstantDays = 30.0
)

// DeactivationDays computes a smoothed inverse penalty window:
// days = min + (max - min) * e^(-(daysSinceLastViolation / decayConstant)).
// A repeat offender with no gap gets the full window; the penalty shrinks
// towards the minimum as the gap since the last violation grows.
func DeactivationDays(daysSinceLastViolation int) int {
	if daysSinceLastViolation < 0 {
		daysSinceLastViolation = 0
	}

	raw := float64(MinDeactivationDays) +
		float64(MaxDeactivationDays-MinDeactivationDays)*math.Exp(-float64(daysSinceLastViolation)/decayConstantDays)

	days := int(math.Floor(raw))
	if days < MinDeactivationDays {
		return MinDeactivationDays
	}
	if days > MaxDeactivationDays {
		return MaxDeactivationDays
	}
	return days
}
