package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"docverify/internal/schemes/models"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore serves a fixed catalog. It is never written after
// construction, so reads need no lock; callers receive copies.
type InMemoryStore struct {
	schemes []*models.Scheme
	byID    map[string]*models.Scheme
}

// NewInMemory copies schemes and orders them by state, then name.
func NewInMemory(schemes []*models.Scheme) *InMemoryStore {
	s := &InMemoryStore{
		schemes: make([]*models.Scheme, 0, len(schemes)),
		byID:    make(map[string]*models.Scheme, len(schemes)),
	}
	for _, scheme := range schemes {
		c := clone(scheme)
		s.schemes = append(s.schemes, c)
		s.byID[c.ID] = c
	}
	slices.SortFunc(s.schemes, func(a, b *models.Scheme) int {
		if c := cmp.Compare(a.State, b.State); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return s
}

func (s *InMemoryStore) List(_ context.Context, filter models.Filter) ([]*models.Scheme, error) {
	out := make([]*models.Scheme, 0, len(s.schemes))
	for _, scheme := range s.schemes {
		if filter.Matches(scheme) {
			out = append(out, clone(scheme))
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, schemeID string) (*models.Scheme, error) {
	scheme, ok := s.byID[schemeID]
	if !ok {
		return nil, fmt.Errorf("scheme %s: %w", schemeID, sentinel.ErrNotFound)
	}
	return clone(scheme), nil
}

func clone(s *models.Scheme) *models.Scheme {
	c := *s
	c.Districts = slices.Clone(s.Districts)
	c.Categories = slices.Clone(s.Categories)
	c.Crops = slices.Clone(s.Crops)
	c.Eligibility = slices.Clone(s.Eligibility)
	c.Benefits = slices.Clone(s.Benefits)
	c.Documents = slices.Clone(s.Documents)
	c.Steps = slices.Clone(s.Steps)
	if s.Tags != nil {
		c.Tags = make(map[string][]string, len(s.Tags))
		for tag, answers := range s.Tags {
			c.Tags[tag] = slices.Clone(answers)
		}
	}
	return &c
}
