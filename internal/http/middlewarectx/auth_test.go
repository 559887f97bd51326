package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/http/middlewarectx"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	authservice "github.com/magabrotheeeer/qcm-api/internal/services/auth"
)

type AuthenticatorMock struct {
	mock.Mock
}

func (m *AuthenticatorMock) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		mockUser       *models.User
		mockErr        error
		callsService   bool
		wantStatusCode int
		wantCalled     bool
		wantChallenge  bool
	}{
		{
			name:           "missing Authorization header",
			wantStatusCode: http.StatusUnauthorized,
			wantChallenge:  true,
		},
		{
			name:           "basic scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			wantStatusCode: http.StatusUnauthorized,
			wantChallenge:  true,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer bad",
			mockErr:        authservice.ErrInvalidCredentials,
			callsService:   true,
			wantStatusCode: http.StatusUnauthorized,
			wantChallenge:  true,
		},
		{
			name:           "inactive user",
			authHeader:     "Bearer tok",
			mockErr:        authservice.ErrInactiveUser,
			callsService:   true,
			wantStatusCode: http.StatusForbidden,
		},
		{
			name:           "storage failure",
			authHeader:     "Bearer tok",
			mockErr:        errors.New("db down"),
			callsService:   true,
			wantStatusCode: http.StatusInternalServerError,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer tok",
			mockUser:       &models.User{Username: "alice", Role: models.RoleUser},
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
		{
			name:           "lowercase scheme",
			authHeader:     "bearer tok",
			mockUser:       &models.User{Username: "alice", Role: models.RoleUser},
			callsService:   true,
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthenticatorMock)
			if tt.callsService {
				authMock.On("Authenticate", mock.Anything, "tok").Return(tt.mockUser, tt.mockErr).Maybe()
				authMock.On("Authenticate", mock.Anything, "bad").Return(tt.mockUser, tt.mockErr).Maybe()
			}

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				user, ok := middlewarectx.UserFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, "alice", user.Username)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/users/me/", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			middlewarectx.BearerAuth(authMock, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.Equal(t, tt.wantCalled, handlerCalled)
			if tt.wantChallenge {
				assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			}
			if !tt.callsService {
				authMock.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestBasicAuth(t *testing.T) {
	authenticator := authservice.NewBasicAuthenticator([]config.BasicUser{
		{Username: "alice", Password: "wonderland", Role: "user"},
	})

	tests := []struct {
		name       string
		setAuth    bool
		user, pass string
		wantStatus int
	}{
		{"no header", false, "", "", http.StatusUnauthorized},
		{"wrong password", true, "alice", "nope", http.StatusUnauthorized},
		{"valid", true, "alice", "wonderland", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := middlewarectx.UserFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, models.RoleUser, user.Role)
			})
			req := httptest.NewRequest(http.MethodGet, "/questions", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()

			middlewarectx.BasicAuth(authenticator, newNoopLogger())(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"regular user", &models.User{Username: "bob", Role: models.RoleUser}, http.StatusForbidden},
		{"admin", &models.User{Username: "root", Role: models.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
			req := httptest.NewRequest(http.MethodPost, "/users/", nil)
			if tt.user != nil {
				req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()

			middlewarectx.RequireAdmin(newNoopLogger())(next).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
