package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pairloop/pairloop/internal/controller"
	"github.com/pairloop/pairloop/internal/models"
)

// completer is the subset of Client used by the capability, separated so
// tests can substitute a canned implementation.
type completer interface {
	complete(ctx context.Context, system, user string, maxTokens int64) (string, error)
}

// Capability implements controller.Capability for one specialty. The
// specialty only shapes the prompts; the loop driving it is identical for
// every specialty.
type Capability struct {
	client    completer
	specialty controller.Specialty
}

// NewCapability binds a client to a specialty.
func NewCapability(client *Client, specialty controller.Specialty) *Capability {
	return &Capability{client: client, specialty: specialty}
}

// RegisterAll registers one capability per known specialty on the registry,
// all backed by the same client.
func RegisterAll(reg *controller.Registry, client *Client) {
	for _, s := range []controller.Specialty{
		controller.SpecialtyCode,
		controller.SpecialtyRequirements,
		controller.SpecialtyTests,
	} {
		reg.Register(s, NewCapability(client, s))
	}
}

// Produce generates a candidate artifact for the task.
func (c *Capability) Produce(ctx context.Context, spec models.TaskSpec, _ map[string]any) (*controller.ProducedArtifact, error) {
	system, user := buildProducePrompt(spec, c.specialty)
	text, err := c.client.complete(ctx, system, user, 8192)
	if err != nil {
		return nil, fmt.Errorf("produce artifact: %w", err)
	}
	return &controller.ProducedArtifact{
		Output: text,
		Metadata: map[string]any{
			"specialty": string(c.specialty),
		},
	}, nil
}

// reviewPayload is the JSON wire shape expected from the reviewer model.
// Missing score fields unmarshal to 0, matching the defensive default.
type reviewPayload struct {
	QualityScore      int            `json:"quality_score"`
	CompletenessScore int            `json:"completeness_score"`
	CorrectnessScore  int            `json:"correctness_score"`
	Issues            []issuePayload `json:"issues"`
	RequiredChanges   []string       `json:"required_changes"`
	Suggestions       []string       `json:"suggestions"`
	PositiveAspects   []string       `json:"positive_aspects"`
	Reasoning         string         `json:"reasoning"`
}

type issuePayload struct {
	Severity     string `json:"severity"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Description  string `json:"description"`
	SuggestedFix string `json:"suggested_fix"`
}

// Review critiques a candidate artifact. The returned outcome carries scores
// and issues only; the decision is computed by the caller's policy, except
// when the scope guard forces a rejection.
func (c *Capability) Review(ctx context.Context, spec models.TaskSpec, output string, _ map[string]any, iteration int) (*models.ReviewOutcome, error) {
	system, user := buildReviewPrompt(spec, output, c.specialty, iteration)
	text, err := c.client.complete(ctx, system, user, 4096)
	if err != nil {
		return nil, fmt.Errorf("review artifact: %w", err)
	}

	outcome, err := parseReview(text)
	if err != nil {
		return nil, fmt.Errorf("parse review response: %w", err)
	}

	applyScopeGuard(spec, output, outcome)
	return outcome, nil
}

// parseReview decodes the reviewer JSON into an outcome. An undecodable
// response is a reviewer failure for the caller to absorb.
func parseReview(text string) (*models.ReviewOutcome, error) {
	var payload reviewPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("parse JSON: %w (content: %s)", err, text[:min(200, len(text))])
	}

	issues := make([]models.ReviewIssue, 0, len(payload.Issues))
	for _, p := range payload.Issues {
		issues = append(issues, models.ReviewIssue{
			Severity:     normalizeSeverity(p.Severity),
			Category:     p.Category,
			Location:     p.Location,
			Description:  p.Description,
			SuggestedFix: p.SuggestedFix,
		})
	}

	return &models.ReviewOutcome{
		QualityScore:      payload.QualityScore,
		CompletenessScore: payload.CompletenessScore,
		CorrectnessScore:  payload.CorrectnessScore,
		Issues:            issues,
		RequiredChanges:   payload.RequiredChanges,
		Suggestions:       payload.Suggestions,
		PositiveAspects:   payload.PositiveAspects,
		Reasoning:         payload.Reasoning,
	}, nil
}

// normalizeSeverity maps free-form severity strings onto the known set.
// Unknown values land on suggestion, the weakest level.
func normalizeSeverity(s string) models.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return models.SeverityCritical
	case "major":
		return models.SeverityMajor
	case "minor":
		return models.SeverityMinor
	default:
		return models.SeveritySuggestion
	}
}
