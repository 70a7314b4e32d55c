// Package controller drives a task through bounded produce/review/refine
// rounds until it is approved, rejected, or the iteration budget runs out.
// Each Runner is task-scoped and holds no state shared with concurrent runs.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/pairloop/pairloop/internal/aggregate"
	"github.com/pairloop/pairloop/internal/feedback"
	"github.com/pairloop/pairloop/internal/leniency"
	"github.com/pairloop/pairloop/internal/models"
	"github.com/pairloop/pairloop/internal/policy"
)

// Config controls one loop execution.
type Config struct {
	MaxIterations       int
	BaseStrictness      float64
	RequireApproval     bool
	MinQualityThreshold float64
	ProducerTimeout     time.Duration
	ReviewerTimeout     time.Duration
}

// DefaultConfig returns the stock loop configuration: three rounds, full
// initial strictness, partial acceptance at quality 6.0.
func DefaultConfig() Config {
	return Config{
		MaxIterations:       3,
		BaseStrictness:      1.0,
		MinQualityThreshold: 6.0,
		ProducerTimeout:     5 * time.Minute,
		ReviewerTimeout:     2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.BaseStrictness <= 0 {
		c.BaseStrictness = d.BaseStrictness
	}
	if c.MinQualityThreshold <= 0 {
		c.MinQualityThreshold = d.MinQualityThreshold
	}
	if c.ProducerTimeout <= 0 {
		c.ProducerTimeout = d.ProducerTimeout
	}
	if c.ReviewerTimeout <= 0 {
		c.ReviewerTimeout = d.ReviewerTimeout
	}
	return c
}

// Runner executes the iteration loop for a single task.
type Runner struct {
	capability Capability
	cfg        Config
}

// NewRunner creates a runner bound to one capability and configuration.
func NewRunner(capability Capability, cfg Config) *Runner {
	return &Runner{capability: capability, cfg: cfg.withDefaults()}
}

// Run drives the full loop and returns the complete PairResult. It returns
// an error only for hard failures (input validation, policy violations);
// producer and reviewer failures are absorbed into per-round records so the
// loop always completes.
//
// Cancellation is honored between rounds: an in-flight round finishes before
// the cancellation takes effect, so no round leaves partial side effects.
func (r *Runner) Run(ctx context.Context, spec models.TaskSpec, taskContext map[string]any) (*models.PairResult, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &models.PairResult{TaskID: spec.ID}
	current := spec

loop:
	for n := 1; n <= r.cfg.MaxIterations; n++ {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.FailureReason = fmt.Sprintf("cancelled before iteration %d: %v", n, err)
			break
		}

		rec, err := r.runIteration(ctx, current, taskContext, n)
		if err != nil {
			return nil, err
		}
		result.Iterations = append(result.Iterations, *rec)

		switch rec.Outcome.Decision {
		case models.DecisionApproved:
			result.Success = true
			result.FinalOutput = rec.Output
			break loop

		case models.DecisionRejected:
			result.Success = false
			result.FailureReason = rejectionReason(rec)
			break loop

		default: // needs_changes
			if n == r.cfg.MaxIterations {
				result.FinalQuality = rec.Outcome.OverallQuality()
				aggregate.ApplyPartialAcceptance(result, r.cfg.RequireApproval, r.cfg.MinQualityThreshold)
				break loop
			}
			current = feedback.Compile(current, rec.Outcome)
		}
	}

	if final := result.FinalOutcome(); final != nil {
		result.FinalQuality = final.OverallQuality()
	}
	result.DisasterScore = aggregate.DisasterScore(result)
	result.TotalDuration = time.Since(start)
	return result, nil
}

// runIteration executes one produce/review round. A producer failure is
// recorded and its failure artifact is still reviewed; a reviewer failure is
// replaced with a synthetic rejection so the loop terminates
// deterministically.
func (r *Runner) runIteration(ctx context.Context, spec models.TaskSpec, taskContext map[string]any, n int) (*models.IterationRecord, error) {
	iterStart := time.Now()
	rec := &models.IterationRecord{Iteration: n, Success: true}

	adjusted, threshold, err := leniency.Schedule(n, r.cfg.BaseStrictness)
	if err != nil {
		return nil, &ValidationError{Field: "base_strictness", Reason: err.Error()}
	}

	// Per-call contexts are detached from the caller's cancellation so an
	// in-flight round always completes; the caller's cancel is observed only
	// at the between-rounds check in Run. Timeouts still bound each call.
	base := context.WithoutCancel(ctx)

	pctx, cancelProduce := context.WithTimeout(base, r.cfg.ProducerTimeout)
	artifact, perr := r.capability.Produce(pctx, spec, taskContext)
	cancelProduce()

	if perr != nil {
		rec.Success = false
		rec.Error = perr.Error()
		rec.Output = fmt.Sprintf("PRODUCER FAILURE: %v", perr)
	} else {
		rec.Output = artifact.Output
	}

	rctx, cancelReview := context.WithTimeout(base, r.cfg.ReviewerTimeout)
	outcome, rerr := r.capability.Review(rctx, spec, rec.Output, taskContext, n)
	cancelReview()

	if rerr != nil {
		outcome = fallbackOutcome(n, adjusted, rerr)
	} else {
		outcome.Iteration = n
		outcome.AdjustedStrictness = adjusted

		scores := policy.Scores{
			Quality:      outcome.QualityScore,
			Completeness: outcome.CompletenessScore,
			Correctness:  outcome.CorrectnessScore,
		}
		decision, derr := policy.Decide(scores, outcome.Issues, threshold, adjusted)
		if derr != nil {
			return nil, derr
		}
		// A reviewer-forced rejection stands; the policy result is never
		// allowed to soften it.
		if outcome.Decision != models.DecisionRejected {
			outcome.Decision = decision
		}
	}

	rec.Outcome = *outcome
	rec.Duration = time.Since(iterStart)
	return rec, nil
}

// fallbackOutcome is the synthetic rejection recorded when the reviewer
// errors, times out, or returns an unparseable result.
func fallbackOutcome(iteration int, adjusted float64, cause error) *models.ReviewOutcome {
	return &models.ReviewOutcome{
		Decision: models.DecisionRejected,
		Issues: []models.ReviewIssue{{
			Severity:    models.SeverityCritical,
			Category:    "reviewer",
			Description: fmt.Sprintf("reviewer failed: %v", cause),
		}},
		Reasoning:          "review could not be completed; rejecting so the loop terminates",
		Iteration:          iteration,
		AdjustedStrictness: adjusted,
	}
}

func rejectionReason(rec *models.IterationRecord) string {
	if rec.Outcome.Reasoning != "" {
		return fmt.Sprintf("rejected at iteration %d: %s", rec.Iteration, rec.Outcome.Reasoning)
	}
	return fmt.Sprintf("rejected at iteration %d", rec.Iteration)
}

func validateSpec(spec models.TaskSpec) error {
	if spec.ID == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if spec.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	return nil
}
