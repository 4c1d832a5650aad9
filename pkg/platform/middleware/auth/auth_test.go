package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"docverify/pkg/requestcontext"
)

const (
	testUserID    = "550e8400-e29b-41d4-a716-446655440001"
	testSessionID = "550e8400-e29b-41d4-a716-446655440002"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*JWTClaims), args.Error(1)
	}
	return nil, args.Error(1)
}

type AuthMiddlewareSuite struct {
	suite.Suite
	validator *MockJWTValidator
	called    bool
	captured  context.Context
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareSuite))
}

func (s *AuthMiddlewareSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.called = false
	s.captured = nil
}

func (s *AuthMiddlewareSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
}

func (s *AuthMiddlewareSuite) serve(authHeader string) *httptest.ResponseRecorder {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RequireAuth(s.validator, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.captured = r.Context()
	}))
	req := httptest.NewRequest(http.MethodGet, "/verifications", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func (s *AuthMiddlewareSuite) TestValidToken() {
	s.validator.On("ValidateToken", "good").Return(&JWTClaims{UserID: testUserID, SessionID: testSessionID}, nil)

	w := s.serve("Bearer good")

	s.Equal(http.StatusOK, w.Code)
	s.Require().True(s.called)
	s.Equal(testUserID, requestcontext.UserID(s.captured).String())
	s.Equal(testSessionID, requestcontext.SessionID(s.captured).String())
}

func (s *AuthMiddlewareSuite) TestMissingOrMalformedHeader() {
	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer    "} {
		s.Run(header, func() {
			s.called = false
			w := s.serve(header)
			s.Equal(http.StatusUnauthorized, w.Code)
			s.False(s.called)
		})
	}
}

func (s *AuthMiddlewareSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "expired").Return(nil, errors.New("token is expired"))

	w := s.serve("Bearer expired")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":"unauthorized","error_description":"Invalid or expired token"}`, w.Body.String())
}

func (s *AuthMiddlewareSuite) TestMalformedUserClaim() {
	s.validator.On("ValidateToken", "odd").Return(&JWTClaims{UserID: "not-a-uuid"}, nil)

	w := s.serve("Bearer odd")

	s.Equal(http.StatusUnauthorized, w.Code)
	s.False(s.called)
}
