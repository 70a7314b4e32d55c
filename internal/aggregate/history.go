package aggregate

import (
	"sync"

	"github.com/pairloop/pairloop/internal/models"
)

// History is a bounded buffer of recent results for dashboards and the API.
// Push-and-trim is atomic, and the buffer is always explicitly owned by the
// caller that wraps the aggregator.
type History struct {
	mu      sync.Mutex
	size    int
	entries []*models.PairResult
}

// NewHistory creates a history holding at most size results. A non-positive
// size falls back to 50.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 50
	}
	return &History{size: size}
}

// Push appends a result and trims the oldest entries beyond the bound.
func (h *History) Push(res *models.PairResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, res)
	if len(h.entries) > h.size {
		h.entries = h.entries[len(h.entries)-h.size:]
	}
}

// Recent returns a copy of the buffered results, newest first.
func (h *History) Recent() []*models.PairResult {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*models.PairResult, len(h.entries))
	for i, res := range h.entries {
		out[len(h.entries)-1-i] = res
	}
	return out
}

// Len reports how many results are currently buffered.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
