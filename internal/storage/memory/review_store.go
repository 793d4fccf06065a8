// Package memory provides in-memory store implementations.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/restaurant-reviews/internal/review"
)

// ReviewStore is an append-only, process-lifetime review collection.
type ReviewStore struct {
	mu      sync.RWMutex
	reviews []review.Review
}

// NewReviewStore constructs an empty ReviewStore.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{}
}

// Append adds reviews in order. A multi-review call is applied as one unit, so
// concurrent readers never observe half of it.
func (s *ReviewStore) Append(_ context.Context, reviews ...review.Review) error {
	if len(reviews) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews = append(s.reviews, reviews...)
	return nil
}

// List returns a copy of every stored review in insertion order.
func (s *ReviewStore) List(_ context.Context) ([]review.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]review.Review, len(s.reviews))
	copy(out, s.reviews)
	return out, nil
}

// Len reports how many reviews are stored.
func (s *ReviewStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}
