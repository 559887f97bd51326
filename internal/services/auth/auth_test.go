package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	customjwt "github.com/magabrotheeeer/qcm-api/internal/lib/jwt"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/lib/password"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	services "github.com/magabrotheeeer/qcm-api/internal/services/auth"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// Мок для UserRepository
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func mustHash(t *testing.T, raw string) string {
	t.Helper()
	h, err := password.GetHash(raw)
	require.NoError(t, err)
	return h
}

func TestAuthService_Login(t *testing.T) {
	hash := mustHash(t, "secret")
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)

	tests := []struct {
		name    string
		user    *models.User
		repoErr error
		pass    string
		wantErr error
	}{
		{
			name: "success",
			user: &models.User{Username: "alice", PasswordHash: hash, Role: models.RoleAdmin},
			pass: "secret",
		},
		{
			name:    "unknown user",
			repoErr: storage.ErrUserNotFound,
			pass:    "secret",
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:    "wrong password",
			user:    &models.User{Username: "alice", PasswordHash: hash},
			pass:    "nope",
			wantErr: services.ErrInvalidCredentials,
		},
		{
			name:    "disabled user",
			user:    &models.User{Username: "alice", PasswordHash: hash, Disabled: true},
			pass:    "secret",
			wantErr: services.ErrInactiveUser,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(UserRepoMock)
			repo.On("GetUserByUsername", mock.Anything, "alice").Return(tt.user, tt.repoErr).Once()
			svc := services.NewAuthService(repo, maker, metrics.New(), newNoopLogger())

			token, err := svc.Login(context.Background(), "alice", tt.pass)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "bearer", token.TokenType)

			claims, err := maker.ParseToken(token.AccessToken)
			require.NoError(t, err)
			assert.Equal(t, "alice", claims.Username())
			assert.Equal(t, "admin", claims.Role)
			repo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login_RepoFailure(t *testing.T) {
	repo := new(UserRepoMock)
	repo.On("GetUserByUsername", mock.Anything, "alice").Return(nil, errors.New("db down"))
	svc := services.NewAuthService(repo, customjwt.NewJWTMaker("k", time.Hour), metrics.New(), newNoopLogger())

	_, err := svc.Login(context.Background(), "alice", "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
}

func TestAuthService_Authenticate(t *testing.T) {
	maker := customjwt.NewJWTMaker("test-secret", time.Hour)
	token, err := maker.GenerateToken("alice", "user")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "alice").
			Return(&models.User{Username: "alice", Role: models.RoleAdmin}, nil)
		svc := services.NewAuthService(repo, maker, metrics.New(), newNoopLogger())

		user, err := svc.Authenticate(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.True(t, user.IsAdmin())
	})

	t.Run("garbage token", func(t *testing.T) {
		svc := services.NewAuthService(new(UserRepoMock), maker, metrics.New(), newNoopLogger())
		_, err := svc.Authenticate(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("deleted user", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "alice").Return(nil, storage.ErrUserNotFound)
		svc := services.NewAuthService(repo, maker, metrics.New(), newNoopLogger())
		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("disabled user", func(t *testing.T) {
		repo := new(UserRepoMock)
		repo.On("GetUserByUsername", mock.Anything, "alice").
			Return(&models.User{Username: "alice", Disabled: true}, nil)
		svc := services.NewAuthService(repo, maker, metrics.New(), newNoopLogger())
		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, services.ErrInactiveUser)
	})
}

func TestBasicAuthenticator(t *testing.T) {
	a := services.NewBasicAuthenticator([]config.BasicUser{
		{Username: "alice", Password: "wonderland", Role: "user"},
		{Username: "admin", Password: "4dm1N", Role: "admin"},
		{Username: "odd", Password: "x", Role: "root"},
	})

	tests := []struct {
		name     string
		username string
		password string
		wantRole models.Role
		wantErr  bool
	}{
		{"user", "alice", "wonderland", models.RoleUser, false},
		{"admin", "admin", "4dm1N", models.RoleAdmin, false},
		{"unknown role falls back to user", "odd", "x", models.RoleUser, false},
		{"wrong password", "alice", "wonder", "", true},
		{"unknown user", "bob", "", "", true},
		{"empty password", "alice", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := a.Authenticate(tt.username, tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, services.ErrInvalidCredentials)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.username, user.Username)
			assert.Equal(t, tt.wantRole, user.Role)
		})
	}
}
