package models

// Severity classifies how serious a review issue is.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityMajor      Severity = "major"
	SeverityMinor      Severity = "minor"
	SeveritySuggestion Severity = "suggestion"
)

// Decision is the outcome of reviewing one produced artifact.
type Decision string

const (
	DecisionApproved     Decision = "approved"
	DecisionNeedsChanges Decision = "needs_changes"
	DecisionRejected     Decision = "rejected"
)

// ReviewIssue is a single finding raised by the reviewer. Immutable once
// created.
type ReviewIssue struct {
	Severity     Severity `json:"severity"`
	Category     string   `json:"category"`
	Location     string   `json:"location,omitempty"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// ReviewOutcome records everything the reviewer said about one round.
// Component scores are integers in [0,10]. Immutable once recorded.
type ReviewOutcome struct {
	Decision           Decision      `json:"decision"`
	QualityScore       int           `json:"quality_score"`
	CompletenessScore  int           `json:"completeness_score"`
	CorrectnessScore   int           `json:"correctness_score"`
	Issues             []ReviewIssue `json:"issues,omitempty"`
	RequiredChanges    []string      `json:"required_changes,omitempty"`
	Suggestions        []string      `json:"suggestions,omitempty"`
	PositiveAspects    []string      `json:"positive_aspects,omitempty"`
	Reasoning          string        `json:"reasoning,omitempty"`
	Iteration          int           `json:"iteration"`
	AdjustedStrictness float64       `json:"adjusted_strictness"`
}

// OverallQuality averages the three component scores without rounding.
func (o ReviewOutcome) OverallQuality() float64 {
	return float64(o.QualityScore+o.CompletenessScore+o.CorrectnessScore) / 3.0
}

// CriticalIssueCount counts issues with critical severity.
func (o ReviewOutcome) CriticalIssueCount() int {
	n := 0
	for _, issue := range o.Issues {
		if issue.Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// HasCriticalIssue reports whether at least one critical issue was raised.
func (o ReviewOutcome) HasCriticalIssue() bool {
	return o.CriticalIssueCount() > 0
}
