package llm

import (
	"fmt"
	"strings"

	"github.com/pairloop/pairloop/internal/models"
)

// ContextArtifactKey is the TaskSpec context key holding the artifact a task
// modifies. The scope guard compares candidates against it.
const ContextArtifactKey = "artifact"

// minRetainedFraction is the share of the original artifact's lines a
// candidate must keep for a removal-scoped task to pass the guard.
const minRetainedFraction = 0.2

var removalVerbs = []string{"remove", "delete", "drop", "strip"}

// applyScopeGuard forces a rejection when a task scoped to a narrow removal
// comes back with most of the containing artifact gone. The rejection is set
// at the capability level so the decision policy can never approve it,
// whatever the scores say.
func applyScopeGuard(spec models.TaskSpec, output string, outcome *models.ReviewOutcome) {
	if !hasRemovalCriterion(spec) {
		return
	}
	original, _ := spec.Context[ContextArtifactKey].(string)
	if strings.TrimSpace(original) == "" {
		return
	}

	retained := retainedFraction(original, output)
	if retained >= minRetainedFraction {
		return
	}

	outcome.Decision = models.DecisionRejected
	outcome.Issues = append(outcome.Issues, models.ReviewIssue{
		Severity: models.SeverityCritical,
		Category: "scope",
		Description: fmt.Sprintf(
			"over-deletion: the task scopes a narrow removal but the candidate keeps only %.0f%% of the original artifact",
			retained*100),
		SuggestedFix: "remove only what the acceptance criteria name and keep the rest of the artifact intact",
	})
}

// hasRemovalCriterion reports whether any acceptance criterion asks for a
// removal.
func hasRemovalCriterion(spec models.TaskSpec) bool {
	for _, c := range spec.AcceptanceCriteria {
		lc := strings.ToLower(c)
		for _, verb := range removalVerbs {
			if strings.Contains(lc, verb) {
				return true
			}
		}
	}
	return false
}

// retainedFraction measures how many of the original's non-blank lines
// survive, by exact trimmed match, in the candidate output.
func retainedFraction(original, output string) float64 {
	outputLines := make(map[string]struct{})
	for _, line := range strings.Split(output, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			outputLines[t] = struct{}{}
		}
	}

	total, kept := 0, 0
	for _, line := range strings.Split(original, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		total++
		if _, ok := outputLines[t]; ok {
			kept++
		}
	}
	if total == 0 {
		return 1
	}
	return float64(kept) / float64(total)
}
