package llm

import (
	"fmt"
	"strings"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
)

// specialtyLabel names what the capability produces, used in both prompts.
func specialtyLabel(s controller.Specialty) string {
	switch s {
	case controller.SpecialtyRequirements:
		return "a requirements document"
	case controller.SpecialtyTests:
		return "a test suite"
	default:
		return "a code change"
	}
}

// buildProducePrompt constructs the system and user prompts for one
// production round.
func buildProducePrompt(spec models.TaskSpec, specialty controller.Specialty) (system, user string) {
	system = fmt.Sprintf(`You produce %s for a work item. Return ONLY the artifact itself, no commentary before or after it.

Rules:
- Satisfy every acceptance criterion listed in the task
- Stay strictly within the task's scope; never remove or rewrite more than the task asks for
- If the task includes review feedback from an earlier attempt, address every required change
- If the task lists aspects to preserve, keep them intact`, specialtyLabel(specialty))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s:\n\n%s\n", spec.ID, spec.Description)
	if len(spec.AcceptanceCriteria) > 0 {
		sb.WriteString("\nAcceptance criteria:\n")
		for _, c := range spec.AcceptanceCriteria {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	if len(spec.PreserveAspects) > 0 {
		sb.WriteString("\nPreserve these aspects from earlier attempts:\n")
		for _, a := range spec.PreserveAspects {
			fmt.Fprintf(&sb, "- %s\n", a)
		}
	}
	user = sb.String()
	return
}

// buildReviewPrompt constructs the system and user prompts for one review
// round.
func buildReviewPrompt(spec models.TaskSpec, output string, specialty controller.Specialty, iteration int) (system, user string) {
	system = fmt.Sprintf(`You review %s against its task. Return ONLY a JSON object with these fields:
- "quality_score": integer 0-10 for overall craftsmanship
- "completeness_score": integer 0-10 for how fully the acceptance criteria are met
- "correctness_score": integer 0-10 for functional correctness
- "issues": array of objects with "severity" (one of "critical", "major", "minor", "suggestion"), "category", "location", "description", "suggested_fix"
- "required_changes": array of strings, each a concrete change the next attempt must make
- "suggestions": array of strings with optional improvements
- "positive_aspects": array of strings naming what the next attempt should keep
- "reasoning": one-paragraph overall assessment

Rules:
- Score each dimension independently; do not let one flaw dominate all three
- Flag any removal or rewrite that exceeds the task's stated scope as a "critical" issue in category "scope"
- Every "critical" or "major" issue must have a matching entry in "required_changes"
- Return valid JSON only, no markdown fencing or explanation`, specialtyLabel(specialty))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Review iteration %d for task %s.\n\nTask:\n%s\n", iteration, spec.ID, spec.Description)
	if len(spec.AcceptanceCriteria) > 0 {
		sb.WriteString("\nAcceptance criteria:\n")
		for _, c := range spec.AcceptanceCriteria {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	sb.WriteString("\nCandidate artifact:\n\n")
	sb.WriteString(output)
	user = sb.String()
	return
}
