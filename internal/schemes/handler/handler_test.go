package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"docverify/internal/schemes/models"
	dErrors "docverify/pkg/domain-errors"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) List(ctx context.Context, filter models.Filter) ([]*models.Scheme, error) {
	args := m.Called(ctx, filter)
	if schemes := args.Get(0); schemes != nil {
		return schemes.([]*models.Scheme), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Get(ctx context.Context, schemeID string) (*models.Scheme, error) {
	args := m.Called(ctx, schemeID)
	if scheme := args.Get(0); scheme != nil {
		return scheme.(*models.Scheme), args.Error(1)
	}
	return nil, args.Error(1)
}

type HandlerSuite struct {
	suite.Suite
	service *mockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = new(mockService)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *HandlerSuite) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (s *HandlerSuite) TestListWithoutFilters() {
	s.service.On("List", mock.Anything, models.Filter{}).
		Return([]*models.Scheme{{ID: "kcc", Name: "Kisan Credit Card", Level: models.LevelCentral}}, nil)

	rec := s.get("/schemes")

	s.Equal(http.StatusOK, rec.Code)
	var body struct {
		Schemes []map[string]any `json:"schemes"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Require().Len(body.Schemes, 1)
	s.Equal("kcc", body.Schemes[0]["id"])
}

func (s *HandlerSuite) TestListPassesFiltersAndFinderAnswers() {
	s.service.On("List", mock.Anything, models.Filter{
		Category:    "insurance",
		State:       "Maharashtra",
		Crop:        "Cotton",
		Eligibility: "landholding",
		Query:       "bima",
		Answers:     map[string]string{models.TagLand: "<2", models.TagKYC: "Yes"},
	}).Return([]*models.Scheme{}, nil)

	rec := s.get("/schemes?category=insurance&state=Maharashtra&crop=%20Cotton&eligibility=landholding&q=bima&land=%3C2&kyc=Yes&irrig=")

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"schemes":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestListRejectedFilter() {
	s.service.On("List", mock.Anything, models.Filter{Level: "district"}).
		Return(nil, dErrors.New(dErrors.CodeValidation, "level must be central or state"))

	rec := s.get("/schemes?level=district")

	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestGet() {
	s.service.On("Get", mock.Anything, "pmfby").
		Return(&models.Scheme{ID: "pmfby", Name: "PM Fasal Bima Yojana"}, nil)
	s.service.On("Get", mock.Anything, "missing").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "scheme not found"))

	found := s.get("/schemes/pmfby")
	s.Equal(http.StatusOK, found.Code)
	s.Contains(found.Body.String(), `"name":"PM Fasal Bima Yojana"`)

	s.Equal(http.StatusNotFound, s.get("/schemes/missing").Code)
}
