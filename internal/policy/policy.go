// Package policy turns review scores and issues into an approval decision.
// The arithmetic is deterministic: the same scores, issues, and schedule
// always produce the same decision.
package policy

import (
	"fmt"

	"github.com/pairloop/pairloop/internal/models"
)

const (
	// lenientCutoff is the adjusted-strictness boundary of the lenient
	// regime. The boundary is keyed to strictness, not iteration number,
	// so non-default base strictness shifts when it kicks in.
	lenientCutoff = 0.6

	// lenientQualityFloor: below this, a critical issue still blocks
	// approval in the lenient regime.
	lenientQualityFloor = 5.0

	// rejectionFloor: below this overall quality the artifact is rejected
	// outright (outside the lenient regime).
	rejectionFloor = 4.0
)

// Violation reports a review outcome the policy refuses to interpret, such
// as a component score outside [0,10]. It is never coerced into a decision.
type Violation struct {
	Field string
	Value int
}

func (v *Violation) Error() string {
	return fmt.Sprintf("policy violation: %s score %d outside [0,10]", v.Field, v.Value)
}

// Scores holds the three component scores of one review.
// Missing scores are defaulted to 0 at the parse boundary, before they
// reach the policy.
type Scores struct {
	Quality      int
	Completeness int
	Correctness  int
}

// Overall averages the component scores without rounding.
func (s Scores) Overall() float64 {
	return float64(s.Quality+s.Completeness+s.Correctness) / 3.0
}

func (s Scores) validate() error {
	checks := []struct {
		field string
		value int
	}{
		{"quality", s.Quality},
		{"completeness", s.Completeness},
		{"correctness", s.Correctness},
	}
	for _, c := range checks {
		if c.value < 0 || c.value > 10 {
			return &Violation{Field: c.field, Value: c.value}
		}
	}
	return nil
}

// Decide maps scores and issues to a decision under the given schedule.
//
// In the lenient regime (adjusted strictness <= 0.6) only a critical issue
// combined with overall quality below 5.0 blocks approval. Otherwise the
// quality threshold gates approval, quality >= 4.0 earns another round, and
// anything lower is rejected. A single critical issue never forces rejection
// by itself outside the lenient rule.
func Decide(scores Scores, issues []models.ReviewIssue, threshold, adjustedStrictness float64) (models.Decision, error) {
	if err := scores.validate(); err != nil {
		return "", err
	}

	overall := scores.Overall()
	hasCritical := false
	for _, issue := range issues {
		if issue.Severity == models.SeverityCritical {
			hasCritical = true
			break
		}
	}

	if adjustedStrictness <= lenientCutoff {
		if hasCritical && overall < lenientQualityFloor {
			return models.DecisionNeedsChanges, nil
		}
		return models.DecisionApproved, nil
	}

	switch {
	case overall >= threshold:
		return models.DecisionApproved, nil
	case overall >= rejectionFloor:
		return models.DecisionNeedsChanges, nil
	default:
		return models.DecisionRejected, nil
	}
}
