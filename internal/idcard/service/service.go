package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/skip2/go-qrcode"

	"docverify/internal/idcard/metrics"
	"docverify/internal/idcard/models"
	"docverify/internal/idcard/store"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
	"docverify/pkg/platform/sentinel"
)

// Store is the persistence port for reference records.
// Create returns store.ErrIDNumberTaken or store.ErrAadhaarTaken on collision;
// FindByID and Delete return sentinel.ErrNotFound for a missing card.
type Store interface {
	Create(ctx context.Context, card *models.IDCard) error
	FindByID(ctx context.Context, cardID id.CardID) (*models.IDCard, error)
	ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.IDCard, error)
	Delete(ctx context.Context, card *models.IDCard) error
}

const (
	maxIDNumberAttempts = 5
	qrCodeSize          = 256
)

type Option func(*Service)

type Service struct {
	store       Store
	auditor     *audit.Logger
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
	newIDNumber func() (string, error)
}

func New(store Store, opts ...Option) *Service {
	if store == nil {
		panic("id card store is required")
	}
	svc := &Service{
		store:       store,
		logger:      slog.Default(),
		now:         time.Now,
		newIDNumber: models.NewIDNumber,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditor(a *audit.Logger) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDNumberGenerator replaces the random ID number source; tests use it to
// force collisions.
func WithIDNumberGenerator(gen func() (string, error)) Option {
	return func(s *Service) {
		s.newIDNumber = gen
	}
}

// Create issues a reference record for owner. A generated ID number that is
// already taken is regenerated up to maxIDNumberAttempts times; an Aadhaar
// number that is already registered is a conflict.
func (s *Service) Create(ctx context.Context, owner id.UserID, req *models.CreateCardRequest) (*models.IDCard, error) {
	if owner.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	photo := req.PhotoImage()
	if photo.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "photo is required")
	}

	card := &models.IDCard{
		ID:             id.NewCardID(),
		OwnerID:        owner,
		AadhaarNumber:  req.AadhaarNumber,
		Name:           req.Name,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		Address:        req.Address,
		PhotoReference: photo.DataURI(),
		CreatedAt:      s.now().UTC(),
	}

	for attempt := 1; ; attempt++ {
		idNumber, err := s.newIDNumber()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate ID number")
		}
		card.IDNumber = idNumber
		card.QRCodeReference, err = qrCodeDataURI(card)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate QR code")
		}

		err = s.store.Create(ctx, card)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, store.ErrAadhaarTaken):
			return nil, dErrors.New(dErrors.CodeConflict, "Aadhaar number already registered")
		case errors.Is(err, store.ErrIDNumberTaken):
			s.metrics.IncrementIDNumberCollisions()
			s.logger.WarnContext(ctx, "generated id number collided", "attempt", attempt)
			if attempt >= maxIDNumberAttempts {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not allocate a unique ID number")
			}
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save ID card")
		}
	}

	s.metrics.IncrementCardsCreated()
	s.auditor.Log(ctx, audit.Event{
		UserID:  owner,
		Subject: card.ID.String(),
		Action:  string(audit.EventCardCreated),
	})
	return card, nil
}

func (s *Service) List(ctx context.Context, owner id.UserID) ([]*models.IDCard, error) {
	cards, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ID cards")
	}
	if cards == nil {
		cards = []*models.IDCard{}
	}
	return cards, nil
}

// Get returns the card only to its owner; anyone else sees not_found.
func (s *Service) Get(ctx context.Context, owner id.UserID, cardID id.CardID) (*models.IDCard, error) {
	card, err := s.find(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeNotFound, "ID card not found")
	}
	return card, nil
}

// Delete removes the card and both of its index entries. Only the owner may
// delete.
func (s *Service) Delete(ctx context.Context, owner id.UserID, cardID id.CardID) error {
	card, err := s.find(ctx, cardID)
	if err != nil {
		return err
	}
	if card.OwnerID != owner {
		return dErrors.New(dErrors.CodeForbidden, "only the owner can delete this ID card")
	}
	if err := s.store.Delete(ctx, card); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "ID card not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete ID card")
	}

	s.metrics.IncrementCardsDeleted()
	s.auditor.Log(ctx, audit.Event{
		UserID:  owner,
		Subject: card.ID.String(),
		Action:  string(audit.EventCardDeleted),
	})
	return nil
}

func (s *Service) find(ctx context.Context, cardID id.CardID) (*models.IDCard, error) {
	card, err := s.store.FindByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ID card not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ID card")
	}
	return card, nil
}

type qrPayload struct {
	Name string `json:"name"`
	DOB  string `json:"dob"`
	ID   string `json:"id"`
}

func qrCodeDataURI(card *models.IDCard) (string, error) {
	content, err := json.Marshal(qrPayload{Name: card.Name, DOB: card.DateOfBirth, ID: card.IDNumber})
	if err != nil {
		return "", fmt.Errorf("marshal qr payload: %w", err)
	}
	png, err := qrcode.Encode(string(content), qrcode.Medium, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("encode qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
