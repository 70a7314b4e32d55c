package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairloop/pairloop/internal/models"
)

func critical() []models.ReviewIssue {
	return []models.ReviewIssue{{
		Severity:    models.SeverityCritical,
		Category:    "correctness",
		Description: "breaks the build",
	}}
}

// First iteration at full strictness with perfect scores is approved at the
// 9.0 threshold.
func TestDecide_FirstRoundPerfectScores(t *testing.T) {
	d, err := Decide(Scores{9, 9, 9}, nil, 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, d)
}

// A critical issue with quality exactly at the 4.0 boundary asks for changes
// rather than rejecting.
func TestDecide_CriticalIssueDoesNotForceRejection(t *testing.T) {
	d, err := Decide(Scores{5, 5, 5}, critical(), 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)
}

func TestDecide_BelowRejectionFloor(t *testing.T) {
	d, err := Decide(Scores{3, 3, 3}, nil, 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, d)

	d, err = Decide(Scores{4, 4, 3}, nil, 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, d)
}

func TestDecide_NeedsChangesBand(t *testing.T) {
	d, err := Decide(Scores{4, 4, 4}, nil, 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)

	d, err = Decide(Scores{8, 8, 8}, nil, 9.0, 1.0)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)
}

// Lenient regime: critical issue with quality 4.0 still needs changes, but
// quality 6.0 sails through despite the critical issue.
func TestDecide_LenientRegime(t *testing.T) {
	d, err := Decide(Scores{4, 4, 4}, critical(), 6.0, 0.6)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)

	d, err = Decide(Scores{6, 6, 6}, critical(), 6.0, 0.6)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, d)
}

// Lenient regime without critical issues approves even very low quality.
func TestDecide_LenientRegimeNoCritical(t *testing.T) {
	d, err := Decide(Scores{1, 1, 1}, nil, 6.0, 0.6)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, d)
}

// The lenient rule is keyed to strictness, not iteration: a caller-supplied
// low base strictness hits it on round one.
func TestDecide_LenientCutoffIsStrictnessKeyed(t *testing.T) {
	d, err := Decide(Scores{2, 2, 2}, critical(), 6.0, 0.5)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)
}

func TestDecide_ThresholdBoundary(t *testing.T) {
	// 7.5 threshold (second round at default base): 8,8,7 averages 7.67.
	d, err := Decide(Scores{8, 8, 7}, nil, 7.5, 0.8)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApproved, d)

	// 7,8,7 averages 7.33, just under.
	d, err = Decide(Scores{7, 8, 7}, nil, 7.5, 0.8)
	require.NoError(t, err)
	assert.Equal(t, models.DecisionNeedsChanges, d)
}

func TestDecide_OutOfRangeScores(t *testing.T) {
	_, err := Decide(Scores{11, 5, 5}, nil, 9.0, 1.0)
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "quality", v.Field)
	assert.Equal(t, 11, v.Value)

	_, err = Decide(Scores{5, -1, 5}, nil, 9.0, 1.0)
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "completeness", v.Field)
}

func TestScores_Overall(t *testing.T) {
	assert.InDelta(t, 5.0, Scores{5, 5, 5}.Overall(), 1e-9)
	assert.InDelta(t, 7.0+1.0/3.0, Scores{7, 8, 7}.Overall(), 1e-9)
	assert.Equal(t, 0.0, Scores{}.Overall())
}
