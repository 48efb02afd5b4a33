package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"greenlight/pkg/requestcontext"
)

type MockJWTValidator struct {
	mock.Mock
}

func (m *MockJWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	args := m.Called(tokenString)
	if claims := args.Get(0); claims != nil {
		return claims.(*Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTokenRevocationChecker struct {
	mock.Mock
}

func (m *MockTokenRevocationChecker) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

// mockHandler captures whether it was called and with which context
type mockHandler struct {
	called  bool
	context context.Context
}

func (m *mockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.called = true
	m.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	validator   *MockJWTValidator
	revoker     *MockTokenRevocationChecker
	logger      *slog.Logger
	nextHandler *mockHandler
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.validator = new(MockJWTValidator)
	s.revoker = new(MockTokenRevocationChecker)
	s.logger = slog.New(slog.DiscardHandler)
	s.nextHandler = &mockHandler{}
}

func (s *AuthMiddlewareTestSuite) TearDownTest() {
	s.validator.AssertExpectations(s.T())
	s.revoker.AssertExpectations(s.T())
}

func (s *AuthMiddlewareTestSuite) serve(checker TokenRevocationChecker, authHeader string) *httptest.ResponseRecorder {
	handler := RequireAuth(s.validator, checker, s.logger)(s.nextHandler)
	req := httptest.NewRequest(http.MethodPost, "/greenlight/validate", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func validClaims() *Claims {
	return &Claims{
		Subject:    "holder-1",
		GivenName:  "Erika",
		FamilyName: "Mustermann",
		Birthdate:  "1964-08-12",
		Country:    "at",
		Region:     "W",
		JTI:        "jti-123",
	}
}

func (s *AuthMiddlewareTestSuite) TestValidTokenSetsPrincipal() {
	s.validator.On("ValidateToken", "valid-token").Return(validClaims(), nil)

	w := s.serve(nil, "Bearer valid-token")

	require.True(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	p, ok := requestcontext.PrincipalFrom(s.nextHandler.context)
	require.True(s.T(), ok)
	assert.Equal(s.T(), requestcontext.Principal{
		Subject:     "holder-1",
		FirstName:   "Erika",
		LastName:    "Mustermann",
		DateOfBirth: "1964-08-12",
		Country:     "AT",
		Region:      "W",
	}, p)
}

func (s *AuthMiddlewareTestSuite) TestRevokedToken() {
	s.validator.On("ValidateToken", "valid-token").Return(validClaims(), nil)
	s.revoker.On("IsTokenRevoked", mock.Anything, "jti-123").Return(true, nil)

	w := s.serve(s.revoker, "Bearer valid-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(), `{"error":"unauthorized","error_description":"Token has been revoked"}`, w.Body.String())
}

func (s *AuthMiddlewareTestSuite) TestNotRevokedToken() {
	s.validator.On("ValidateToken", "valid-token").Return(validClaims(), nil)
	s.revoker.On("IsTokenRevoked", mock.Anything, "jti-123").Return(false, nil)

	w := s.serve(s.revoker, "Bearer valid-token")

	assert.True(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestRevocationCheckMissingJTI() {
	claims := validClaims()
	claims.JTI = ""
	s.validator.On("ValidateToken", "valid-token").Return(claims, nil)

	w := s.serve(s.revoker, "Bearer valid-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestRevocationCheckError() {
	s.validator.On("ValidateToken", "valid-token").Return(validClaims(), nil)
	s.revoker.On("IsTokenRevoked", mock.Anything, "jti-123").Return(false, errors.New("redis down"))

	w := s.serve(s.revoker, "Bearer valid-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	assert.JSONEq(s.T(), `{"error":"internal_error","error_description":"Failed to validate token"}`, w.Body.String())
}

func (s *AuthMiddlewareTestSuite) TestTokenWithoutSubject() {
	claims := validClaims()
	claims.Subject = ""
	s.validator.On("ValidateToken", "valid-token").Return(claims, nil)

	w := s.serve(nil, "Bearer valid-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *AuthMiddlewareTestSuite) TestInvalidToken() {
	s.validator.On("ValidateToken", "invalid-token").Return(nil, errors.New("token expired"))

	w := s.serve(nil, "Bearer invalid-token")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(s.T(), `{"error":"unauthorized","error_description":"Invalid or expired token"}`, w.Body.String())
}

func (s *AuthMiddlewareTestSuite) TestMissingAuthorizationHeader() {
	w := s.serve(nil, "")

	assert.False(s.T(), s.nextHandler.called)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.JSONEq(s.T(), `{"error":"unauthorized","error_description":"Missing or invalid Authorization header"}`, w.Body.String())
}

func (s *AuthMiddlewareTestSuite) TestInvalidAuthorizationFormats() {
	for _, header := range []string{"token-without-bearer", "Basic dXNlcjpwYXNz", "bearer token", "Bearertoken", "Bearer "} {
		s.Run(header, func() {
			s.nextHandler = &mockHandler{}
			w := s.serve(nil, header)
			assert.False(s.T(), s.nextHandler.called)
			assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}
