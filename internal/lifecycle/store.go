package lifecycle

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/heatwatch-service/internal/domain"
)

// Store is the in-memory view of all subscriber requests, newest first,
// backed by a DurableStore. Every mutation is persisted before it becomes
// visible; a failed save leaves the in-memory collection unchanged.
type Store struct {
	durable domain.DurableStore

	mu       sync.RWMutex
	requests []domain.SubscriberRequest
}

// NewStore loads the persisted snapshot from durable.
func NewStore(ctx context.Context, durable domain.DurableStore) (*Store, error) {
	requests, err := durable.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	return &Store{durable: durable, requests: requests}, nil
}

// List returns a copy of all requests, newest first.
func (s *Store) List() []domain.SubscriberRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.SubscriberRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Get returns the request with the given id.
func (s *Store) Get(id string) (domain.SubscriberRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.requests[i], nil
	}
	return domain.SubscriberRequest{}, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
}

// Insert prepends req and persists the collection.
func (s *Store) Insert(ctx context.Context, req domain.SubscriberRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.SubscriberRequest, 0, len(s.requests)+1)
	next = append(next, req)
	next = append(next, s.requests...)

	if err := s.durable.Save(ctx, next); err != nil {
		return fmt.Errorf("persist request %s: %w", req.ID, err)
	}
	s.requests = next
	return nil
}

// Update applies fn to a copy of the request with the given id and persists
// the result. If fn or the save fails, nothing changes.
func (s *Store) Update(ctx context.Context, id string, fn func(*domain.SubscriberRequest) error) (domain.SubscriberRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.SubscriberRequest{}, fmt.Errorf("request %s: %w", id, domain.ErrNotFound)
	}

	updated := s.requests[i]
	if err := fn(&updated); err != nil {
		return domain.SubscriberRequest{}, err
	}

	next := make([]domain.SubscriberRequest, len(s.requests))
	copy(next, s.requests)
	next[i] = updated

	if err := s.durable.Save(ctx, next); err != nil {
		return domain.SubscriberRequest{}, fmt.Errorf("persist request %s: %w", id, err)
	}
	s.requests = next
	return updated, nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.requests {
		if s.requests[i].ID == id {
			return i
		}
	}
	return -1
}
