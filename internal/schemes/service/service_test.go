package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"docverify/internal/schemes/catalog"
	"docverify/internal/schemes/metrics"
	"docverify/internal/schemes/models"
	"docverify/internal/schemes/store"
	dErrors "docverify/pkg/domain-errors"
)

type failingStore struct{}

func (failingStore) List(context.Context, models.Filter) ([]*models.Scheme, error) {
	return nil, errors.New("catalog unavailable")
}

func (failingStore) FindByID(context.Context, string) (*models.Scheme, error) {
	return nil, errors.New("catalog unavailable")
}

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	schemes, err := catalog.Load()
	s.Require().NoError(err)
	s.service = s.newService(store.NewInMemory(schemes))
}

func (s *ServiceSuite) newService(st Store) *Service {
	return New(st,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
}

func (s *ServiceSuite) TestListFinderAnswers() {
	withKYC, err := s.service.List(s.ctx, models.Filter{
		Level:   "CENTRAL",
		Crop:    "Cotton",
		Answers: map[string]string{models.TagKYC: "Yes"},
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(withKYC)
	ids := make([]string, 0, len(withKYC))
	for _, scheme := range withKYC {
		s.Equal(models.LevelCentral, scheme.Level)
		ids = append(ids, scheme.ID)
	}
	s.Contains(ids, "pm-kisan")
	s.Contains(ids, "pmfby")

	withoutKYC, err := s.service.List(s.ctx, models.Filter{Answers: map[string]string{models.TagKYC: "No"}})
	s.Require().NoError(err)
	for _, scheme := range withoutKYC {
		s.NotEqual("pm-kisan", scheme.ID)
	}
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Searches.WithLabelValues("matched")))
}

func (s *ServiceSuite) TestListEmptyResult() {
	schemes, err := s.service.List(s.ctx, models.Filter{State: "Atlantis"})

	s.Require().NoError(err)
	s.NotNil(schemes)
	s.Empty(schemes)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Searches.WithLabelValues("empty")))
}

func (s *ServiceSuite) TestListRejectsUnknownLevelAndTag() {
	_, err := s.service.List(s.ctx, models.Filter{Level: "district"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.List(s.ctx, models.Filter{Answers: map[string]string{"caste": "A"}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestGet() {
	scheme, err := s.service.Get(s.ctx, "pmfby")
	s.Require().NoError(err)
	s.Equal("pmfby", scheme.ID)

	_, err = s.service.Get(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(s.ctx, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func (s *ServiceSuite) TestStoreFailureIsInternal() {
	svc := s.newService(failingStore{})

	_, err := svc.List(s.ctx, models.Filter{})
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = svc.Get(s.ctx, "pmfby")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}
