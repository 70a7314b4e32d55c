package models

import "time"

// IterationRecord captures one completed produce/review round.
// Success reflects the producer call; a failed production is still reviewed,
// so every record carries an outcome.
type IterationRecord struct {
	Iteration int           `json:"iteration"`
	Output    string        `json:"output"`
	Outcome   ReviewOutcome `json:"outcome"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// PairResult is the complete record of one loop execution. It is created
// exactly once, at loop termination, and never modified afterwards.
// Iteration numbers are exactly 1..N with no gaps.
type PairResult struct {
	ID                   string            `json:"id,omitempty"`
	TaskID               string            `json:"task_id"`
	Success              bool              `json:"success"`
	Iterations           []IterationRecord `json:"iterations"`
	FinalOutput          string            `json:"final_output,omitempty"`
	TotalDuration        time.Duration     `json:"total_duration"`
	FailureReason        string            `json:"failure_reason,omitempty"`
	MaxIterationsReached bool              `json:"max_iterations_reached"`
	FinalQuality         float64           `json:"final_quality"`
	DisasterScore        int               `json:"disaster_score"`
	CreatedAt            time.Time         `json:"created_at,omitempty"`
}

// FinalDecision returns the decision of the last completed round, or empty
// when no round ran at all.
func (r *PairResult) FinalDecision() Decision {
	if len(r.Iterations) == 0 {
		return ""
	}
	return r.Iterations[len(r.Iterations)-1].Outcome.Decision
}

// FinalOutcome returns the last round's review outcome, or nil when no round
// ran.
func (r *PairResult) FinalOutcome() *ReviewOutcome {
	if len(r.Iterations) == 0 {
		return nil
	}
	return &r.Iterations[len(r.Iterations)-1].Outcome
}
