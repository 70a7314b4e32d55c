package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
)

// cannedCompleter returns a fixed response and records the prompts it saw.
type cannedCompleter struct {
	response string
	err      error

	systems []string
	users   []string
}

func (c *cannedCompleter) complete(_ context.Context, system, user string, _ int64) (string, error) {
	c.systems = append(c.systems, system)
	c.users = append(c.users, user)
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

func reviewSpec() models.TaskSpec {
	return models.TaskSpec{
		ID:                 "task-9",
		Description:        "tighten the rate limiter",
		AcceptanceCriteria: []string{"burst size is configurable"},
	}
}

func TestCapability_ProduceUsesSpecialtyPrompt(t *testing.T) {
	canned := &cannedCompleter{response: "the artifact"}
	c := &Capability{client: canned, specialty: controller.SpecialtyTests}

	art, err := c.Produce(context.Background(), reviewSpec(), nil)
	require.NoError(t, err)
	assert.Equal(t, "the artifact", art.Output)
	assert.Equal(t, "tests", art.Metadata["specialty"])

	require.Len(t, canned.systems, 1)
	assert.Contains(t, canned.systems[0], "a test suite")
	assert.Contains(t, canned.users[0], "task-9")
	assert.Contains(t, canned.users[0], "burst size is configurable")
}

func TestCapability_ReviewParsesPayload(t *testing.T) {
	canned := &cannedCompleter{response: `{
		"quality_score": 7,
		"completeness_score": 6,
		"correctness_score": 8,
		"issues": [
			{"severity": "Major", "category": "completeness", "description": "burst not configurable"}
		],
		"required_changes": ["expose burst size"],
		"positive_aspects": ["good lock discipline"],
		"reasoning": "solid but incomplete"
	}`}
	c := &Capability{client: canned, specialty: controller.SpecialtyCode}

	outcome, err := c.Review(context.Background(), reviewSpec(), "candidate", nil, 2)
	require.NoError(t, err)

	assert.Equal(t, 7, outcome.QualityScore)
	assert.Equal(t, 6, outcome.CompletenessScore)
	assert.Equal(t, 8, outcome.CorrectnessScore)
	require.Len(t, outcome.Issues, 1)
	assert.Equal(t, models.SeverityMajor, outcome.Issues[0].Severity)
	assert.Equal(t, []string{"expose burst size"}, outcome.RequiredChanges)
	assert.Equal(t, "solid but incomplete", outcome.Reasoning)
	// The decision is left for the policy.
	assert.Empty(t, outcome.Decision)

	assert.Contains(t, canned.users[0], "Review iteration 2")
	assert.Contains(t, canned.users[0], "candidate")
}

func TestCapability_ReviewUnparseableIsFailure(t *testing.T) {
	canned := &cannedCompleter{response: "I think it looks fine overall!"}
	c := &Capability{client: canned, specialty: controller.SpecialtyCode}

	_, err := c.Review(context.Background(), reviewSpec(), "candidate", nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse review response")
}

func TestParseReview_MissingScoresDefaultToZero(t *testing.T) {
	outcome, err := parseReview(`{"reasoning": "no scores given"}`)
	require.NoError(t, err)
	assert.Zero(t, outcome.QualityScore)
	assert.Zero(t, outcome.CompletenessScore)
	assert.Zero(t, outcome.CorrectnessScore)
}

func TestNormalizeSeverity(t *testing.T) {
	assert.Equal(t, models.SeverityCritical, normalizeSeverity("CRITICAL"))
	assert.Equal(t, models.SeverityMajor, normalizeSeverity(" major "))
	assert.Equal(t, models.SeverityMinor, normalizeSeverity("minor"))
	assert.Equal(t, models.SeveritySuggestion, normalizeSeverity("suggestion"))
	assert.Equal(t, models.SeveritySuggestion, normalizeSeverity("nitpick"))
}

func TestStripFencing(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFencing("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFencing(`{"a":1}`))
	assert.Equal(t, "plain text", stripFencing("  plain text\n"))
}
