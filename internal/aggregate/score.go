// Package aggregate computes loop-termination outcomes: the
// disaster-prevention score, the partial-acceptance policy for exhausted
// loops, and a bounded history of recent results for dashboards.
package aggregate

import (
	"math"

	"github.com/pairloop/pairloop/internal/models"
)

// DisasterScore rates 0-100 how much the review loop guarded against a
// low-quality or destructive result. Point buckets, in order: a base award,
// credit for extra iterations, credit for quality improvement across the run,
// credit for final quality, a penalty for critical issues left in the final
// round, and credit for the volume of actionable feedback.
//
// A terminal rejection zeroes the score regardless of the formula.
func DisasterScore(res *models.PairResult) int {
	if len(res.Iterations) == 0 {
		return 0
	}
	if res.FinalDecision() == models.DecisionRejected {
		return 0
	}

	first := res.Iterations[0].Outcome
	final := res.Iterations[len(res.Iterations)-1].Outcome
	firstQuality := first.OverallQuality()
	finalQuality := final.OverallQuality()

	score := 30.0
	score += math.Min(20, float64(len(res.Iterations)-1)*10)
	score += clampFloat((finalQuality-firstQuality)*2, 0, 20)
	score += finalQuality * 3
	score -= float64(final.CriticalIssueCount()) * 10
	score += math.Min(10, float64(totalFeedbackItems(res)))

	return int(clampFloat(math.Round(score), 0, 100))
}

// totalFeedbackItems counts actionable feedback across all rounds: every
// issue raised plus every required change.
func totalFeedbackItems(res *models.PairResult) int {
	n := 0
	for _, rec := range res.Iterations {
		n += len(rec.Outcome.Issues) + len(rec.Outcome.RequiredChanges)
	}
	return n
}

// ExhaustedFailureReason is recorded when an exhausted loop does not qualify
// for partial acceptance.
const ExhaustedFailureReason = "max iterations reached without approval"

// ApplyPartialAcceptance decides whether an exhausted loop still counts as a
// success: the caller must not demand explicit approval, the final quality
// must clear the floor, and the last round must not have been rejected.
func ApplyPartialAcceptance(res *models.PairResult, requireApproval bool, minQualityThreshold float64) {
	res.MaxIterationsReached = true

	accepted := !requireApproval &&
		res.FinalQuality >= minQualityThreshold &&
		res.FinalDecision() != models.DecisionRejected

	if accepted {
		res.Success = true
		if n := len(res.Iterations); n > 0 {
			res.FinalOutput = res.Iterations[n-1].Output
		}
		return
	}

	res.Success = false
	res.FailureReason = ExhaustedFailureReason
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
