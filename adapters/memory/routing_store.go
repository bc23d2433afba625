package memory

import (
	"context"
	"sync"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

// RoutingStore is an in-memory mongomq.RoutingStore. Bindings are keyed by
// their full 4-tuple, so repeated binds of the same tuple collapse to one.
type RoutingStore struct {
	mu       sync.Mutex
	bindings map[model.Binding]struct{}
}

// NewRoutingStore creates an empty in-memory routing store.
func NewRoutingStore() *RoutingStore {
	return &RoutingStore{bindings: make(map[model.Binding]struct{})}
}

// Bind stores a binding; duplicates are a no-op.
func (s *RoutingStore) Bind(_ context.Context, binding model.Binding) error {
	if err := binding.Validate(); err != nil {
		return mongomq.NewErrorWithCause(mongomq.ErrCodeValidation, "invalid binding", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[binding] = struct{}{}
	return nil
}

// DeleteByQueue removes all bindings routed to the queue.
func (s *RoutingStore) DeleteByQueue(_ context.Context, queue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for b := range s.bindings {
		if b.Queue == queue {
			delete(s.bindings, b)
		}
	}
	return nil
}

// FindByExchange returns all bindings for the exchange.
func (s *RoutingStore) FindByExchange(_ context.Context, exchange string) ([]model.Binding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.Binding{}
	for b := range s.bindings {
		if b.Exchange == exchange {
			out = append(out, b)
		}
	}
	return out, nil
}
