package review

import (
	"context"
	"sync"

	"github.com/cnukaus/Polymarket-arbitrage/internal/matcher"
)

// Queue holds matches that need a human decision before unattended
// execution. Producers are the matcher workers; a single consumer pops
// from the front.
type Queue interface {
	Enqueue(ctx context.Context, match matcher.MatchResult) error
	// Dequeue returns the oldest pending match, or ok=false when empty.
	Dequeue(ctx context.Context) (*matcher.MatchResult, bool, error)
}

// MemoryQueue is a thread-safe in-process queue, used for tests and
// single-binary deployments.
type MemoryQueue struct {
	mu      sync.Mutex
	pending []matcher.MatchResult
}

// NewMemoryQueue returns an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Enqueue(_ context.Context, match matcher.MatchResult) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, match)
	return nil
}

func (q *MemoryQueue) Dequeue(_ context.Context) (*matcher.MatchResult, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, false, nil
	}
	match := q.pending[0]
	q.pending = q.pending[1:]
	return &match, true, nil
}

// Len returns the number of pending reviews.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
