// Package feedback derives the next round's TaskSpec from a review outcome.
// The compiler is pure: the same spec and outcome always produce the same
// next spec, and the prior description and criteria are strictly append-only.
package feedback

import (
	"fmt"
	"strings"

	"github.com/pairloop/pairloop/internal/models"
)

// Compile builds the TaskSpec for the following round. The prior description
// becomes a prefix of the new one, acceptance criteria keep their original
// order with new required changes appended, and compact metadata about this
// round is attached for the producer to see.
func Compile(spec models.TaskSpec, outcome models.ReviewOutcome) models.TaskSpec {
	next := spec.Clone()

	next.Description = spec.Description + "\n\n" + feedbackBlock(outcome)
	next.AcceptanceCriteria = unionOrdered(spec.AcceptanceCriteria, outcome.RequiredChanges)
	next.PreserveAspects = unionOrdered(spec.PreserveAspects, outcome.PositiveAspects)
	next.LastFeedback = &models.FeedbackMeta{
		Iteration:          outcome.Iteration,
		Decision:           outcome.Decision,
		QualityScore:       outcome.OverallQuality(),
		IssueCount:         len(outcome.Issues),
		CriticalIssueCount: outcome.CriticalIssueCount(),
		AdjustedStrictness: outcome.AdjustedStrictness,
	}

	return next
}

// feedbackBlock renders the structured review summary appended to the
// description. Critical and major issues always appear; minor issues and
// suggestions only on the exhaustive first round.
func feedbackBlock(outcome models.ReviewOutcome) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## Review feedback (iteration %d)\n\n", outcome.Iteration)
	fmt.Fprintf(&sb, "Decision: %s\n", outcome.Decision)
	if outcome.Reasoning != "" {
		fmt.Fprintf(&sb, "Assessment: %s\n", outcome.Reasoning)
	}
	fmt.Fprintf(&sb, "Quality score: %.1f/10\n", outcome.OverallQuality())

	issues := selectIssues(outcome)
	if len(issues) > 0 {
		sb.WriteString("\nIssues to address:\n")
		for _, issue := range issues {
			fmt.Fprintf(&sb, "- [%s] %s", issue.Severity, issue.Description)
			if issue.Location != "" {
				fmt.Fprintf(&sb, " (at %s)", issue.Location)
			}
			if issue.SuggestedFix != "" {
				fmt.Fprintf(&sb, "; fix: %s", issue.SuggestedFix)
			}
			sb.WriteString("\n")
		}
	}

	if len(outcome.RequiredChanges) > 0 {
		sb.WriteString("\nRequired changes:\n")
		for _, change := range outcome.RequiredChanges {
			fmt.Fprintf(&sb, "- %s\n", change)
		}
	}

	if len(outcome.PositiveAspects) > 0 {
		sb.WriteString("\nPreserve these aspects:\n")
		for _, aspect := range outcome.PositiveAspects {
			fmt.Fprintf(&sb, "- %s\n", aspect)
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

// selectIssues filters by severity: the first round is exhaustive, later
// rounds report only critical and major findings.
func selectIssues(outcome models.ReviewOutcome) []models.ReviewIssue {
	var out []models.ReviewIssue
	for _, issue := range outcome.Issues {
		switch issue.Severity {
		case models.SeverityCritical, models.SeverityMajor:
			out = append(out, issue)
		case models.SeverityMinor, models.SeveritySuggestion:
			if outcome.Iteration == 1 {
				out = append(out, issue)
			}
		}
	}
	return out
}

// unionOrdered keeps existing entries in their original order and appends
// new entries that are not already present by exact string match.
func unionOrdered(existing, additions []string) []string {
	out := append([]string(nil), existing...)
	seen := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		seen[s] = struct{}{}
	}
	for _, s := range additions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
