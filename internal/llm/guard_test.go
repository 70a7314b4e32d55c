package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairloop/pairloop/internal/models"
)

const originalArtifact = `package ratelimit

func Allow() bool {
	return limiter.Allow()
}

func legacyAllow() bool {
	return true
}

func Burst() int {
	return limiter.Burst()
}`

func removalSpec() models.TaskSpec {
	return models.TaskSpec{
		ID:          "task-3",
		Description: "clean up the rate limiter",
		AcceptanceCriteria: []string{
			"remove the legacyAllow function",
			"Allow and Burst keep working",
		},
		Context: map[string]any{ContextArtifactKey: originalArtifact},
	}
}

// Deleting the whole file when the task asks for one function's removal is
// forced to rejected with a critical scope issue.
func TestScopeGuard_WholeArtifactDeletionRejected(t *testing.T) {
	outcome := &models.ReviewOutcome{
		QualityScore: 8, CompletenessScore: 8, CorrectnessScore: 8,
	}
	applyScopeGuard(removalSpec(), "", outcome)

	assert.Equal(t, models.DecisionRejected, outcome.Decision)
	require.NotEmpty(t, outcome.Issues)
	last := outcome.Issues[len(outcome.Issues)-1]
	assert.Equal(t, models.SeverityCritical, last.Severity)
	assert.Equal(t, "scope", last.Category)
	assert.Contains(t, last.Description, "over-deletion")
}

func TestScopeGuard_NarrowRemovalPasses(t *testing.T) {
	candidate := `package ratelimit

func Allow() bool {
	return limiter.Allow()
}

func Burst() int {
	return limiter.Burst()
}`
	outcome := &models.ReviewOutcome{QualityScore: 8, CompletenessScore: 8, CorrectnessScore: 8}
	applyScopeGuard(removalSpec(), candidate, outcome)

	assert.Empty(t, outcome.Decision)
	assert.Empty(t, outcome.Issues)
}

func TestScopeGuard_IgnoresTasksWithoutRemovalCriteria(t *testing.T) {
	spec := removalSpec()
	spec.AcceptanceCriteria = []string{"add a Burst accessor"}

	outcome := &models.ReviewOutcome{}
	applyScopeGuard(spec, "", outcome)
	assert.Empty(t, outcome.Decision)
}

func TestScopeGuard_IgnoresTasksWithoutArtifactContext(t *testing.T) {
	spec := removalSpec()
	spec.Context = nil

	outcome := &models.ReviewOutcome{}
	applyScopeGuard(spec, "", outcome)
	assert.Empty(t, outcome.Decision)
}

func TestRetainedFraction(t *testing.T) {
	assert.Equal(t, 1.0, retainedFraction("", "anything"))
	assert.Equal(t, 0.0, retainedFraction("a\nb\nc", ""))
	assert.InDelta(t, 2.0/3.0, retainedFraction("a\nb\nc", "a\nc"), 1e-9)
	// Blank lines are ignored on both sides.
	assert.InDelta(t, 1.0, retainedFraction("a\n\n\nb", "  a\nb\n\n"), 1e-9)
}
