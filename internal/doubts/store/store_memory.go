package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"docverify/internal/doubts/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore is append-only; Create rejects an ID it has seen before.
type InMemoryStore struct {
	mu     sync.RWMutex
	doubts map[id.DoubtID]*models.Doubt
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{doubts: make(map[id.DoubtID]*models.Doubt)}
}

func (s *InMemoryStore) Create(_ context.Context, doubt *models.Doubt) error {
	if doubt == nil {
		return fmt.Errorf("doubt is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doubts[doubt.ID]; exists {
		return fmt.Errorf("doubt %s: %w", doubt.ID, sentinel.ErrConflict)
	}
	s.doubts[doubt.ID] = clone(doubt)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Doubt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Doubt, 0, len(s.doubts))
	for _, d := range s.doubts {
		if filter.Matches(d) {
			out = append(out, clone(d))
		}
	}
	slices.SortFunc(out, func(a, b *models.Doubt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func clone(d *models.Doubt) *models.Doubt {
	c := *d
	if d.Answer != nil {
		answer := *d.Answer
		c.Answer = &answer
	}
	return &c
}
