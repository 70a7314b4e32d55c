package store

import (
	"context"

	"github.com/pairloop/pairloop/internal/models"
)

// ResultListFilter specifies filters for listing stored results.
type ResultListFilter struct {
	TaskID      string
	OnlySuccess bool
	Limit       int
}

// Store defines the persistence interface for pairloop. The loop core holds
// no state of its own; the store exists for interop with whatever triggers
// and observes runs.
type Store interface {
	SavePairResult(ctx context.Context, res *models.PairResult) error
	GetPairResult(ctx context.Context, id string) (*models.PairResult, error)
	ListPairResults(ctx context.Context, filter ResultListFilter) ([]*models.PairResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
