package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pairloop/pairloop/internal/models"
)

func TestUI_Writers(t *testing.T) {
	var out, errOut bytes.Buffer
	ui := &UI{Out: &out, ErrOut: &errOut}

	ui.Info("hello %s", "world")
	ui.Error("boom")

	assert.Contains(t, out.String(), "hello world")
	assert.Contains(t, errOut.String(), "boom")
}

func TestUI_VerboseSuppressed(t *testing.T) {
	var out bytes.Buffer
	ui := &UI{Out: &out}

	ui.VerboseLog("hidden")
	assert.Empty(t, out.String())

	ui.Verbose = true
	ui.VerboseLog("shown")
	assert.Contains(t, out.String(), "shown")
}

func TestDecisionColor(t *testing.T) {
	// Colors may be stripped in test environments; just verify the decision
	// text survives.
	assert.Contains(t, DecisionColor(models.DecisionApproved), "approved")
	assert.Contains(t, DecisionColor(models.DecisionNeedsChanges), "needs_changes")
	assert.Contains(t, DecisionColor(models.DecisionRejected), "rejected")
}

func TestScoreColor(t *testing.T) {
	assert.Contains(t, ScoreColor(85), "85")
	assert.Contains(t, ScoreColor(50), "50")
	assert.Contains(t, ScoreColor(10), "10")
}

func TestSuccessColor(t *testing.T) {
	assert.Contains(t, SuccessColor(true), "yes")
	assert.Contains(t, SuccessColor(false), "no")
}
