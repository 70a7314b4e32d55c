// Package leniency maps loop iteration numbers to review strictness.
// Strictness decays across rounds so the decision policy can guarantee the
// loop terminates without giving up early-round rigor.
package leniency

import "fmt"

// regime binds an inclusive iteration ceiling to a strictness multiplier.
// A zero ceiling means "all remaining iterations". Regimes are evaluated in
// order, so adding a fourth regime is a one-line change.
type regime struct {
	maxIteration int
	multiplier   float64
}

var regimes = []regime{
	{maxIteration: 1, multiplier: 1.0},
	{maxIteration: 2, multiplier: 0.8},
	{maxIteration: 0, multiplier: 0.6},
}

// Multiplier returns the strictness multiplier for the given iteration.
// Iterations start at 1; anything lower is an input error.
func Multiplier(iteration int) (float64, error) {
	if iteration < 1 {
		return 0, fmt.Errorf("iteration must be >= 1, got %d", iteration)
	}
	for _, r := range regimes {
		if r.maxIteration == 0 || iteration <= r.maxIteration {
			return r.multiplier, nil
		}
	}
	// Unreachable while the last regime is unbounded.
	return regimes[len(regimes)-1].multiplier, nil
}

// Adjusted applies the iteration multiplier to the base strictness.
func Adjusted(iteration int, baseStrictness float64) (float64, error) {
	if baseStrictness <= 0 {
		return 0, fmt.Errorf("base strictness must be positive, got %g", baseStrictness)
	}
	m, err := Multiplier(iteration)
	if err != nil {
		return 0, err
	}
	return baseStrictness * m, nil
}

// Threshold maps adjusted strictness to the quality score an artifact must
// reach for outright approval.
func Threshold(adjusted float64) float64 {
	switch {
	case adjusted >= 1.0:
		return 9.0
	case adjusted >= 0.8:
		return 7.5
	default:
		return 6.0
	}
}

// Schedule returns both the adjusted strictness and the quality threshold for
// one round.
func Schedule(iteration int, baseStrictness float64) (adjusted, threshold float64, err error) {
	adjusted, err = Adjusted(iteration, baseStrictness)
	if err != nil {
		return 0, 0, err
	}
	return adjusted, Threshold(adjusted), nil
}
