package controller

import (
	"context"
	"sync"

	"github.com/pairloop/pairloop/internal/models"
)

// ProducedArtifact is a producer's output for one round.
type ProducedArtifact struct {
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Producer generates a candidate artifact for a task round. Failures must be
// returned as errors, never by aborting the caller.
type Producer interface {
	Produce(ctx context.Context, spec models.TaskSpec, taskContext map[string]any) (*ProducedArtifact, error)
}

// Reviewer scores and critiques a candidate artifact. Implementations fill
// in scores, issues, and free text; the decision field is normally left
// empty and computed by the decision policy. A reviewer may pre-set a
// rejection (for example the over-deletion guard), which the controller
// honors and never overrides upward.
type Reviewer interface {
	Review(ctx context.Context, spec models.TaskSpec, output string, taskContext map[string]any, iteration int) (*models.ReviewOutcome, error)
}

// Capability bundles the producer and reviewer for one specialty.
type Capability interface {
	Producer
	Reviewer
}

// Specialty selects which capability implementation handles a task. It only
// ever affects producer/reviewer behavior; the controller never branches on
// it.
type Specialty string

const (
	SpecialtyCode         Specialty = "code"
	SpecialtyRequirements Specialty = "requirements"
	SpecialtyTests        Specialty = "tests"
)

// Registry maps specialties to capability implementations.
type Registry struct {
	mu   sync.RWMutex
	caps map[Specialty]Capability
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{caps: make(map[Specialty]Capability)}
}

// Register binds a capability to a specialty, replacing any previous binding.
func (r *Registry) Register(s Specialty, c Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[s] = c
}

// Get returns the capability registered for a specialty.
func (r *Registry) Get(s Specialty) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.caps[s]
	return c, ok
}

// Specialties lists the registered specialties.
func (r *Registry) Specialties() []Specialty {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Specialty, 0, len(r.caps))
	for s := range r.caps {
		out = append(out, s)
	}
	return out
}
