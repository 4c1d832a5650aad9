package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"docverify/internal/aiflow"
	"docverify/internal/doubts/metrics"
	"docverify/internal/doubts/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/platform/audit"
)

type Store interface {
	Create(ctx context.Context, doubt *models.Doubt) error
	List(ctx context.Context, filter models.Filter) ([]*models.Doubt, error)
}

type Answerer interface {
	AnswerDoubt(ctx context.Context, doubt aiflow.Doubt) (*aiflow.Answer, error)
}

const defaultAnswerTimeout = 30 * time.Second

type Option func(*Service)

type Service struct {
	store         Store
	answerer      Answerer
	auditor       *audit.Logger
	metrics       *metrics.Metrics
	logger        *slog.Logger
	now           func() time.Time
	answerTimeout time.Duration
}

func New(store Store, answerer Answerer, opts ...Option) *Service {
	if store == nil {
		panic("doubt store is required")
	}
	if answerer == nil {
		panic("doubt answerer is required")
	}
	svc := &Service{
		store:         store,
		answerer:      answerer,
		logger:        slog.Default(),
		now:           time.Now,
		answerTimeout: defaultAnswerTimeout,
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

func WithAnswerTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.answerTimeout = d
		}
	}
}

// Post stores the question together with an assistant answer. If the
// assistant fails the question is still stored, marked unavailable.
func (s *Service) Post(ctx context.Context, userID id.UserID, req *models.PostRequest) (*models.Doubt, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "question is required")
	}

	doubt := &models.Doubt{
		ID:           id.NewDoubtID(),
		UserID:       userID,
		Title:        req.Title,
		Body:         req.Body,
		District:     req.District,
		Category:     req.Category,
		AnswerStatus: models.AnswerUnavailable,
		CreatedAt:    s.now().UTC(),
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.answerTimeout)
	answer, err := s.answerer.AnswerDoubt(aiCtx, aiflow.Doubt{
		Title:    req.Title,
		Body:     req.Body,
		District: req.District,
		Category: req.Category,
	})
	cancel()
	if err != nil {
		s.logger.WarnContext(ctx, "doubt answer unavailable",
			"error", err,
			"category", string(aiflow.CategoryOf(err)),
			"doubt_id", doubt.ID.String(),
		)
	} else {
		text := strings.TrimSpace(answer.Answer)
		doubt.Answer = &text
		doubt.AnswerStatus = models.AnswerAnswered
	}

	if err := s.store.Create(ctx, doubt); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save question")
	}

	s.metrics.IncrementPosted(string(doubt.AnswerStatus))
	s.logger.InfoContext(ctx, "doubt posted",
		"doubt_id", doubt.ID.String(),
		"user_id", userID.String(),
		"answer_status", string(doubt.AnswerStatus),
	)
	s.auditor.Log(ctx, audit.Event{
		UserID:   userID,
		Subject:  doubt.ID.String(),
		Action:   string(audit.EventDoubtPosted),
		Decision: string(doubt.AnswerStatus),
	})
	return doubt, nil
}

// List returns every community question matching filter, newest first.
func (s *Service) List(ctx context.Context, filter models.Filter) ([]*models.Doubt, error) {
	doubts, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list questions")
	}
	if doubts == nil {
		doubts = []*models.Doubt{}
	}
	return doubts, nil
}
