package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"docverify/internal/idcard/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// InMemoryStore holds one mutex across uniqueness check and write.
type InMemoryStore struct {
	mu      sync.RWMutex
	cards   map[id.CardID]*models.IDCard
	indexes map[models.IdentifierKind]map[string]models.CardLocator
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		cards: make(map[id.CardID]*models.IDCard),
		indexes: map[models.IdentifierKind]map[string]models.CardLocator{
			models.KindIDNumber:      {},
			models.KindAadhaarNumber: {},
		},
	}
}

func (s *InMemoryStore) Create(_ context.Context, card *models.IDCard) error {
	if card == nil {
		return fmt.Errorf("id card is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.indexes[models.KindIDNumber][card.IDNumber]; taken {
		return ErrIDNumberTaken
	}
	if card.AadhaarNumber != "" {
		if _, taken := s.indexes[models.KindAadhaarNumber][card.AadhaarNumber]; taken {
			return ErrAadhaarTaken
		}
	}

	loc := models.CardLocator{CardID: card.ID, OwnerID: card.OwnerID}
	s.indexes[models.KindIDNumber][card.IDNumber] = loc
	if card.AadhaarNumber != "" {
		s.indexes[models.KindAadhaarNumber][card.AadhaarNumber] = loc
	}
	stored := *card
	s.cards[card.ID] = &stored
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, cardID id.CardID) (*models.IDCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *card
	return &c, nil
}

// ListByOwner returns the owner's cards, newest first.
func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID id.UserID) ([]*models.IDCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.IDCard
	for _, card := range s.cards {
		if card.OwnerID == ownerID {
			c := *card
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *models.IDCard) int {
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return out, nil
}

// Delete removes the card's index entries and then the card.
func (s *InMemoryStore) Delete(_ context.Context, card *models.IDCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return sentinel.ErrNotFound
	}
	for kind, index := range s.indexes {
		if key := card.IndexKey(kind); key != "" {
			if loc, ok := index[key]; ok && loc.CardID == card.ID {
				delete(index, key)
			}
		}
	}
	delete(s.cards, card.ID)
	return nil
}

func (s *InMemoryStore) FindIndex(_ context.Context, kind models.IdentifierKind, key string) (models.CardLocator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	index, ok := s.indexes[kind]
	if !ok {
		return models.CardLocator{}, fmt.Errorf("unknown identifier kind %q", kind)
	}
	loc, ok := index[key]
	if !ok {
		return models.CardLocator{}, sentinel.ErrNotFound
	}
	return loc, nil
}

func (s *InMemoryStore) LoadCard(_ context.Context, loc models.CardLocator) (*models.IDCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[loc.CardID]
	if !ok || card.OwnerID != loc.OwnerID {
		return nil, sentinel.ErrNotFound
	}
	c := *card
	return &c, nil
}
