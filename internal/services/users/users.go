// Package services содержит бизнес-логику управления учётными записями.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/lib/metrics"
	"github.com/magabrotheeeer/qcm-api/internal/lib/otpsecret"
	"github.com/magabrotheeeer/qcm-api/internal/lib/password"
	"github.com/magabrotheeeer/qcm-api/internal/lib/sl"
	"github.com/magabrotheeeer/qcm-api/internal/models"
	"github.com/magabrotheeeer/qcm-api/internal/storage"
)

// ErrReservedUser сообщает о попытке изменить зарезервированную учётную запись
// или занять её имя.
var ErrReservedUser = errors.New("reserved user cannot be modified")

// UserRepository определяет методы для работы с пользователями в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUser(ctx context.Context, target string, user models.User) (*models.User, error)
	SetUserDisabled(ctx context.Context, username string, disabled bool) (*models.User, error)
	DeleteUser(ctx context.Context, username string) error
}

// Publisher публикует события аудита.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// UserService реализует операции администратора над пользователями.
type UserService struct {
	repo      UserRepository
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	reserved  string
}

// NewUserService создает новый экземпляр UserService.
// Учётную запись с именем reserved нельзя изменить или удалить.
func NewUserService(repo UserRepository, publisher Publisher, m *metrics.Metrics, log *slog.Logger, reserved string) *UserService {
	return &UserService{
		repo:      repo,
		publisher: publisher,
		metrics:   m,
		log:       log,
		reserved:  reserved,
	}
}

// Create хэширует пароль, генерирует OTP-секрет и сохраняет пользователя.
func (s *UserService) Create(ctx context.Context, actor string, req models.UserCreate) (*models.User, error) {
	const op = "services.users.Create"

	if s.isReserved(req.Username) {
		return nil, fmt.Errorf("%s: %w", op, ErrReservedUser)
	}
	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	user, err := s.newUser(req.Username, req.Email, req.FullName, req.Password, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.repo.CreateUser(ctx, *user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", slog.String("username", created.Username), slog.String("actor", actor))
	s.emit(ctx, models.EventUserCreated, actor, created.Username)
	return created, nil
}

// Update заменяет email, имя, полное имя и пароль пользователя target.
func (s *UserService) Update(ctx context.Context, actor, target string, req models.UserUpdate) (*models.User, error) {
	const op = "services.users.Update"

	if s.isReserved(target) || s.isReserved(req.Username) {
		return nil, fmt.Errorf("%s: %w", op, ErrReservedUser)
	}
	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.repo.UpdateUser(ctx, target, models.User{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user updated", slog.String("target", target), slog.String("actor", actor))
	s.emit(ctx, models.EventUserUpdated, actor, updated.Username)
	return updated, nil
}

// Deactivate устанавливает флаг блокировки пользователя target.
func (s *UserService) Deactivate(ctx context.Context, actor, target string, disabled bool) (*models.User, error) {
	const op = "services.users.Deactivate"

	if s.isReserved(target) {
		return nil, fmt.Errorf("%s: %w", op, ErrReservedUser)
	}
	user, err := s.repo.SetUserDisabled(ctx, target, disabled)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user disabled flag changed",
		slog.String("target", target),
		slog.Bool("disabled", disabled),
		slog.String("actor", actor))
	s.emit(ctx, models.EventUserDeactivated, actor, target)
	return user, nil
}

// Delete удаляет пользователя target.
func (s *UserService) Delete(ctx context.Context, actor, target string) error {
	const op = "services.users.Delete"

	if s.isReserved(target) {
		return fmt.Errorf("%s: %w", op, ErrReservedUser)
	}
	if err := s.repo.DeleteUser(ctx, target); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user deleted", slog.String("target", target), slog.String("actor", actor))
	s.emit(ctx, models.EventUserDeleted, actor, target)
	return nil
}

// List возвращает пользователей с пропуском skip и не более limit записей.
func (s *UserService) List(ctx context.Context, skip, limit int) ([]*models.User, error) {
	const op = "services.users.List"

	users, err := s.repo.ListUsers(ctx, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// EnsureSuperAdmin создаёт зарезервированного администратора, если его ещё нет.
// Возвращает true, если учётная запись была создана.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, cfg config.SuperAdmin) (bool, error) {
	const op = "services.users.EnsureSuperAdmin"

	_, err := s.repo.GetUserByUsername(ctx, cfg.Username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.Password == "" {
		s.log.Warn("superadmin password is empty, account not seeded", slog.String("username", cfg.Username))
		return false, nil
	}

	user, err := s.newUser(cfg.Username, cfg.Email, "", cfg.Password, models.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := s.repo.CreateUser(ctx, *user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("superadmin seeded", slog.String("username", cfg.Username))
	return true, nil
}

func (s *UserService) newUser(username, email, fullName, rawPassword string, role models.Role) (*models.User, error) {
	hash, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, err
	}
	secret, err := otpsecret.Generate(username)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: hash,
		OTPSecret:    secret,
		Role:         role,
	}, nil
}

func (s *UserService) isReserved(username string) bool {
	return s.reserved != "" && username == s.reserved
}

func (s *UserService) emit(ctx context.Context, eventType, actor, subject string) {
	s.metrics.AdminActions.WithLabelValues(eventType).Inc()
	if err := s.publisher.Publish(ctx, eventType, models.NewEvent(eventType, actor, subject)); err != nil {
		s.log.Warn("failed to publish event", slog.String("type", eventType), sl.Err(err))
	}
}
