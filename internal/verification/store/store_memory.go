// Package store persists verification records. Records are append-only: Create
// is idempotent by ID and Complete is the one permitted transition.
package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	"docverify/pkg/platform/sentinel"
)

// ErrIDReused is returned when Create sees an existing ID whose stored state
// differs from the record being created.
var ErrIDReused = fmt.Errorf("verification id already used: %w", sentinel.ErrConflict)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.VerificationID]*models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.VerificationID]*models.Record)}
}

func (s *InMemoryStore) Create(_ context.Context, record *models.Record) error {
	if record == nil {
		return fmt.Errorf("verification record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[record.ID]; ok {
		if existing.UserID == record.UserID && existing.Status == record.Status {
			return nil
		}
		return ErrIDReused
	}
	s.records[record.ID] = clone(record)
	return nil
}

// Complete stores the terminal state of a record that is still pending.
func (s *InMemoryStore) Complete(_ context.Context, record *models.Record) error {
	if record == nil || !record.Status.IsTerminal() {
		return fmt.Errorf("completed verification record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[record.ID]
	if !ok || existing.UserID != record.UserID {
		return sentinel.ErrNotFound
	}
	if existing.Status != models.StatusPending {
		return models.ErrAlreadyCompleted
	}
	s.records[record.ID] = clone(record)
	return nil
}

// ListByUser returns the user's records, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b *models.Record) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[verificationID]
	if !ok || r.UserID != userID {
		return nil, sentinel.ErrNotFound
	}
	return clone(r), nil
}

// clone deep-copies every pointer and slice so stored records never alias
// the caller's.
func clone(r *models.Record) *models.Record {
	c := *r
	c.Findings = slices.Clone(r.Findings)
	c.ExtractedFields = cloneFields(r.ExtractedFields)
	c.IndicatorMessage = cloneString(r.IndicatorMessage)
	if r.ReferenceMatch != nil {
		match := *r.ReferenceMatch
		match.Mismatches = slices.Clone(r.ReferenceMatch.Mismatches)
		c.ReferenceMatch = &match
	}
	if r.FaceMatch != nil {
		face := *r.FaceMatch
		c.FaceMatch = &face
	}
	if r.CompletedAt != nil {
		at := *r.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func cloneFields(f models.ExtractedFields) models.ExtractedFields {
	return models.ExtractedFields{
		Sources:       slices.Clone(f.Sources),
		IDNumber:      cloneString(f.IDNumber),
		AadhaarNumber: cloneString(f.AadhaarNumber),
		Name:          cloneString(f.Name),
		DateOfBirth:   cloneString(f.DateOfBirth),
		Gender:        cloneString(f.Gender),
		Address:       cloneString(f.Address),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
