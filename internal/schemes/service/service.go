package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"docverify/internal/schemes/metrics"
	"docverify/internal/schemes/models"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/sentinel"
)

// Store is the read side of the scheme catalog. FindByID returns
// sentinel.ErrNotFound for an unknown ID.
type Store interface {
	List(ctx context.Context, filter models.Filter) ([]*models.Scheme, error)
	FindByID(ctx context.Context, schemeID string) (*models.Scheme, error)
}

type Option func(*Service)

type Service struct {
	store   Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(store Store, opts ...Option) *Service {
	if store == nil {
		panic("scheme store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
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

// List returns the schemes matching filter ordered by state, then name.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Scheme, error) {
	filter.Level = strings.ToLower(strings.TrimSpace(filter.Level))
	if filter.Level != "" && filter.Level != models.LevelCentral && filter.Level != models.LevelState {
		return nil, dErrors.New(dErrors.CodeValidation, "level must be central or state")
	}
	for tag := range filter.Answers {
		if !slices.Contains(models.FinderTags, tag) {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown finder tag "+tag)
		}
	}

	schemes, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list schemes")
	}
	if schemes == nil {
		schemes = []*models.Scheme{}
	}
	s.metrics.IncrementSearches(len(schemes) > 0)
	s.logger.DebugContext(ctx, "schemes listed", "matches", len(schemes))
	return schemes, nil
}

func (s *Service) Get(ctx context.Context, schemeID string) (*models.Scheme, error) {
	schemeID = strings.TrimSpace(schemeID)
	if schemeID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "scheme id is required")
	}
	scheme, err := s.store.FindByID(ctx, schemeID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "scheme not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load scheme")
	}
	return scheme, nil
}
