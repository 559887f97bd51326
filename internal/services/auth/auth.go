// Package services содержит логику аутентификации: выдачу и проверку JWT
// и проверку учётных данных HTTP Basic.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/qcm-api/internal/lib/jwt"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/lib/password"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

var (
	// ErrInvalidCredentials — неверное имя пользователя, пароль или токен.
	ErrInvalidCredentials = errors.New("could not validate credentials")
	// ErrInactiveUser — учётная запись пользователя отключена.
	ErrInactiveUser = errors.New("inactive user")
)

// UserRepository описывает контракт для чтения пользователей.
type UserRepository interface {
	// GetUserByUsername возвращает пользователя по имени или storage.ErrUserNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService выдаёт токены доступа и восстанавливает пользователя по токену.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	metrics  *metrics.Metrics
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, m *metrics.Metrics, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		metrics:  m,
		log:      log,
	}
}

// Login проверяет пароль пользователя и выпускает bearer-токен.
// Отключённые пользователи получают ErrInactiveUser.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (*models.Token, error) {
	const op = "services.auth.Login"

	token, err := s.login(ctx, username, rawPassword)
	if err != nil {
		s.metrics.TokensIssued.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.TokensIssued.WithLabelValues("issued").Inc()
	return token, nil
}

func (s *AuthService) login(ctx context.Context, username, rawPassword string) (*models.Token, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Disabled {
		return nil, ErrInactiveUser
	}

	accessToken, err := s.jwtMaker.GenerateToken(user.Username, string(user.Role))
	if err != nil {
		return nil, err
	}
	s.log.Info("token issued", slog.String("username", user.Username))
	return &models.Token{AccessToken: accessToken, TokenType: "bearer"}, nil
}

// Authenticate проверяет токен и возвращает актуального пользователя из хранилища.
// Роль берётся из хранилища, а не из токена.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Debug("token rejected", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Username())
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Disabled {
		return nil, fmt.Errorf("%s: %w", op, ErrInactiveUser)
	}
	return user, nil
}
