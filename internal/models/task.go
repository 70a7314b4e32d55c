package models

// TaskSpec describes one unit of work fed to a producer capability.
// Each loop round derives a fresh TaskSpec value from the previous one;
// a spec is never mutated in place, so rounds never share state.
type TaskSpec struct {
	ID                 string         `json:"id"`
	Description        string         `json:"description"`
	AcceptanceCriteria []string       `json:"acceptance_criteria,omitempty"`
	Context            map[string]any `json:"context,omitempty"`
	PreserveAspects    []string       `json:"preserve_aspects,omitempty"`
	LastFeedback       *FeedbackMeta  `json:"last_feedback,omitempty"`
}

// FeedbackMeta is the compact summary of the most recent review, attached to
// the TaskSpec derived for the following round.
type FeedbackMeta struct {
	Iteration          int      `json:"iteration"`
	Decision           Decision `json:"decision"`
	QualityScore       float64  `json:"quality_score"`
	IssueCount         int      `json:"issue_count"`
	CriticalIssueCount int      `json:"critical_issue_count"`
	AdjustedStrictness float64  `json:"adjusted_strictness"`
}

// Clone returns a deep copy of the spec so a derived round can grow its own
// criteria and context without touching the original.
func (t TaskSpec) Clone() TaskSpec {
	out := t
	if t.AcceptanceCriteria != nil {
		out.AcceptanceCriteria = append([]string(nil), t.AcceptanceCriteria...)
	}
	if t.PreserveAspects != nil {
		out.PreserveAspects = append([]string(nil), t.PreserveAspects...)
	}
	if t.Context != nil {
		out.Context = make(map[string]any, len(t.Context))
		for k, v := range t.Context {
			out.Context[k] = v
		}
	}
	if t.LastFeedback != nil {
		meta := *t.LastFeedback
		out.LastFeedback = &meta
	}
	return out
}
