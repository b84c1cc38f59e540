package smartrouter

import (
	"context"
	"sync"
	"time"
)

// DecisionStore persists routing decisions for analytics. Implementations
// must be safe for concurrent use.
type DecisionStore interface {
	// Append records a single decision.
	Append(ctx context.Context, d RoutingDecision) error

	// List returns decisions recorded at or after the given time, oldest
	// first.
	List(ctx context.Context, since time.Time) ([]RoutingDecision, error)

	// Close releases resources.
	Close() error
}

// MemoryStore is an in-memory DecisionStore bounded to a maximum number of
// decisions; the oldest are dropped first.
type MemoryStore struct {
	mu        sync.RWMutex
	decisions []RoutingDecision
	max       int
}

var _ DecisionStore = (*MemoryStore)(nil)

// DefaultMemoryStoreLimit bounds the default in-memory decision history.
const DefaultMemoryStoreLimit = 100000

// NewMemoryStore creates an in-memory decision store holding up to max
// decisions. A max of 0 uses DefaultMemoryStoreLimit.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = DefaultMemoryStoreLimit
	}
	return &MemoryStore{max: max}
}

// Append records a decision, evicting the oldest beyond the limit.
func (s *MemoryStore) Append(_ context.Context, d RoutingDecision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions = append(s.decisions, d)
	if len(s.decisions) > s.max {
		drop := len(s.decisions) - s.max
		s.decisions = append(s.decisions[:0:0], s.decisions[drop:]...)
	}
	return nil
}

// List returns decisions recorded at or after since, oldest first.
func (s *MemoryStore) List(_ context.Context, since time.Time) ([]RoutingDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []RoutingDecision
	for _, d := range s.decisions {
		if !d.Time.Before(since) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
