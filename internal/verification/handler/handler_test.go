package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"docverify/internal/verification/models"
	id "docverify/pkg/domain"
	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/requestcontext"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Submit(ctx context.Context, userID id.UserID, req *models.SubmitRequest) (*models.Record, error) {
	args := m.Called(ctx, userID, req)
	if record := args.Get(0); record != nil {
		return record.(*models.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) List(ctx context.Context, userID id.UserID) ([]*models.Record, error) {
	args := m.Called(ctx, userID)
	if records := args.Get(0); records != nil {
		return records.([]*models.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) Get(ctx context.Context, userID id.UserID, verificationID id.VerificationID) (*models.Record, error) {
	args := m.Called(ctx, userID, verificationID)
	if record := args.Get(0); record != nil {
		return record.(*models.Record), args.Error(1)
	}
	return nil, args.Error(1)
}

type HandlerSuite struct {
	suite.Suite
	service *mockService
	router  chi.Router
	userID  id.UserID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = new(mockService)
	s.userID = id.NewUserID()
	s.router = chi.NewRouter()
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.Register(s.router)
	s.router.Post("/verifications", h.HandleSubmit)
}

func (s *HandlerSuite) TearDownTest() {
	s.service.AssertExpectations(s.T())
}

func (s *HandlerSuite) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if authenticated {
		req = req.WithContext(requestcontext.WithUserID(req.Context(), s.userID))
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func image(content string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func (s *HandlerSuite) TestSubmit() {
	msg := "Potential fraud"
	record := models.NewRecord(s.userID, models.KindIDCard, image("doc"), time.Now())
	s.Require().NoError(record.Complete(models.Completion{
		Status:           models.StatusFailed,
		IndicatorMessage: &msg,
		ReferenceMatch:   &models.ReferenceMatch{Status: models.MatchNotFound},
		Findings:         []string{"lookup_not_found"},
	}, time.Now()))

	s.service.On("Submit", mock.Anything, s.userID, mock.MatchedBy(func(r *models.SubmitRequest) bool {
		return r.Kind == models.KindIDCard && string(r.DocumentImage().Data) == "doc" && r.LiveImage().IsZero()
	})).Return(record, nil)

	rec := s.do(http.MethodPost, "/verifications", map[string]string{"kind": "ID_CARD", "image": image("doc")}, true)

	s.Equal(http.StatusCreated, rec.Code)
	var got map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &got))
	s.Equal(record.ID.String(), got["id"])
	s.Equal("failed", got["status"])
	s.Equal(msg, got["indicatorMessage"])
}

func (s *HandlerSuite) TestSubmitValidation() {
	cases := map[string]map[string]string{
		"unknown kind":          {"kind": "passport", "image": image("doc")},
		"missing image":         {"kind": "aadhaar"},
		"not a data uri":        {"kind": "aadhaar", "image": "https://example.com/a.jpg"},
		"live photo on aadhaar": {"kind": "aadhaar", "image": image("doc"), "livePhoto": image("face")},
	}
	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, "/verifications", body, true)
			s.Equal(http.StatusBadRequest, rec.Code)
		})
	}
}

func (s *HandlerSuite) TestSubmitRequiresAuth() {
	rec := s.do(http.MethodPost, "/verifications", map[string]string{"kind": "aadhaar", "image": image("doc")}, false)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerSuite) TestList() {
	s.service.On("List", mock.Anything, s.userID).Return([]*models.Record{}, nil)

	rec := s.do(http.MethodGet, "/verifications", nil, true)

	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"verifications":[]}`, rec.Body.String())
}

func (s *HandlerSuite) TestGet() {
	verificationID := id.NewVerificationID()

	s.Run("not found", func() {
		s.service.On("Get", mock.Anything, s.userID, verificationID).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification not found")).Once()
		rec := s.do(http.MethodGet, "/verifications/"+verificationID.String(), nil, true)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("bad id", func() {
		rec := s.do(http.MethodGet, "/verifications/abc", nil, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
