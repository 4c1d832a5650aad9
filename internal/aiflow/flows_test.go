package aiflow_test

//go:generate mockgen -source=generator.go -destination=mocks/mock_generator.go -package=mocks Generator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"docverify/internal/aiflow"
	"docverify/internal/aiflow/cache"
	"docverify/internal/aiflow/metrics"
	"docverify/internal/aiflow/mocks"
	id "docverify/pkg/domain"
)

type FlowsSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	gen     *mocks.MockGenerator
	metrics *metrics.Metrics
	flows   *aiflow.Flows
	image   id.Image
}

func TestFlowsSuite(t *testing.T) {
	suite.Run(t, new(FlowsSuite))
}

func (s *FlowsSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gen = mocks.NewMockGenerator(s.ctrl)
	s.metrics = metrics.NewWithRegistry(prometheus.NewRegistry())
	s.flows = aiflow.New(s.gen, "gemini-test",
		aiflow.WithCache(cache.NewMemory(), time.Hour),
		aiflow.WithMetrics(s.metrics),
		aiflow.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.image = id.Image{MIMEType: "image/jpeg", Data: []byte("card-bytes")}
}

func (s *FlowsSuite) TestExtractIDDetails() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req aiflow.Request) ([]byte, error) {
			s.Equal(aiflow.FlowExtractIDDetails, req.Flow)
			s.Require().Len(req.Images, 1)
			s.Contains(req.Prompt, "IDC-")
			return []byte(`{"idNumber":"IDC-000000000042","name":"Ramesh Kumar","dateOfBirth":"15/08/1990"}`), nil
		})

	details, err := s.flows.ExtractIDDetails(context.Background(), s.image)

	s.Require().NoError(err)
	s.Equal("IDC-000000000042", *details.IDNumber)
	s.Equal("Ramesh Kumar", *details.Name)
	s.Equal("15/08/1990", *details.DateOfBirth)
}

func (s *FlowsSuite) TestExtractIDDetailsNullAndFencedOutput() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return([]byte("```json\n{\"idNumber\":null,\"name\":\"  \",\"dateOfBirth\":\"null\"}\n```"), nil)

	details, err := s.flows.ExtractIDDetails(context.Background(), s.image)

	s.Require().NoError(err)
	s.Nil(details.IDNumber)
	s.Nil(details.Name)
	s.Nil(details.DateOfBirth)
}

func (s *FlowsSuite) TestSchemaViolationIsBadData() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return([]byte(`{"isMatch":"yes","confidence":3,"reasoning":"x"}`), nil)

	_, err := s.flows.MatchFaces(context.Background(), s.image, s.image)

	s.Require().Error(err)
	s.Equal(aiflow.CategoryBadData, aiflow.CategoryOf(err))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Calls.WithLabelValues(aiflow.FlowMatchFaces, "bad_data")))
}

func (s *FlowsSuite) TestGeneratorErrorsKeepCategory() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
		Return(nil, aiflow.NewError(aiflow.CategoryTimeout, aiflow.FlowExtractFraudIndicators, "request timeout", context.DeadlineExceeded))

	_, err := s.flows.ExtractFraudIndicators(context.Background(), s.image)

	s.Equal(aiflow.CategoryTimeout, aiflow.CategoryOf(err))
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *FlowsSuite) TestForeignGeneratorErrorIsInternal() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := s.flows.AnswerDoubt(context.Background(), aiflow.Doubt{Title: "t", Body: "b"})

	s.Equal(aiflow.CategoryInternal, aiflow.CategoryOf(err))
}

func (s *FlowsSuite) TestResultsAreCachedPerImage() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).Times(2).
		Return([]byte(`{"fraudIndicators":"No fraud indicators found.","aadhaarNumber":"1234 5678 9012"}`), nil)

	first, err := s.flows.ExtractFraudIndicators(context.Background(), s.image)
	s.Require().NoError(err)
	second, err := s.flows.ExtractFraudIndicators(context.Background(), s.image)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.CacheHits.WithLabelValues(aiflow.FlowExtractFraudIndicators)))

	other := id.Image{MIMEType: "image/jpeg", Data: []byte("other-card")}
	_, err = s.flows.ExtractFraudIndicators(context.Background(), other)
	s.Require().NoError(err)
}

func (s *FlowsSuite) TestErrorsAreNotCached() {
	gomock.InOrder(
		s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
			Return(nil, aiflow.NewError(aiflow.CategoryProviderOutage, aiflow.FlowMatchFaces, "down", nil)),
		s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).
			Return([]byte(`{"isMatch":true,"confidence":0.93,"reasoning":"same person"}`), nil),
	)

	_, err := s.flows.MatchFaces(context.Background(), s.image, s.image)
	s.Require().Error(err)

	match, err := s.flows.MatchFaces(context.Background(), s.image, s.image)
	s.Require().NoError(err)
	s.True(match.IsMatch)
	s.InDelta(0.93, match.Confidence, 1e-9)
}

func (s *FlowsSuite) TestAnswerDoubtIncludesQuestion() {
	s.gen.EXPECT().Generate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req aiflow.Request) ([]byte, error) {
			s.Empty(req.Images)
			s.Contains(req.Prompt, "Nashik")
			s.Contains(req.Prompt, "crop insurance")
			return []byte(`{"answer":"Apply for PMFBY at your bank."}`), nil
		})

	answer, err := s.flows.AnswerDoubt(context.Background(), aiflow.Doubt{
		Title:    "Insurance claim",
		Body:     "How do I claim crop insurance after hail damage?",
		District: "Nashik",
		Category: "agriculture",
	})

	s.Require().NoError(err)
	s.Equal("Apply for PMFBY at your bank.", answer.Answer)
}

func TestIsClean(t *testing.T) {
	for _, text := range []string{
		"No fraud indicators found.",
		"no fraud indicators found.",
		"  NO FRAUD INDICATORS FOUND.  ",
		"No  fraud\nindicators found.",
	} {
		if !aiflow.IsClean(text) {
			t.Errorf("expected %q to be clean", text)
		}
	}
	for _, text := range []string{"", "No fraud indicators found", "Font mismatch around the name"} {
		if aiflow.IsClean(text) {
			t.Errorf("expected %q to be flagged", text)
		}
	}
}
