package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/qcm-api/internal/models"
)

const userColumns = `id, email, username, full_name, hashed_password, otp_secret, disabled, role`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u     models.User
		email sql.NullString
		role  string
	)
	if err := row.Scan(&u.ID, &email, &u.Username, &u.FullName, &u.PasswordHash,
		&u.OTPSecret, &u.Disabled, &role); err != nil {
		return nil, err
	}
	u.Email = email.String
	u.Role = models.Role(role)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его с присвоенным ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.CreateUser"

	query := `INSERT INTO users (email, username, full_name, hashed_password, otp_secret, disabled, role)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		nullString(user.Email), user.Username, user.FullName, user.PasswordHash,
		user.OTPSecret, user.Disabled, string(user.Role))
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByUsername возвращает пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"

	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает пользователей, упорядоченных по ID, с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser заменяет email, имя, полное имя и хэш пароля пользователя target.
func (s *Storage) UpdateUser(ctx context.Context, target string, user models.User) (*models.User, error) {
	const op = "storage.UpdateUser"

	query := `UPDATE users
			  SET email = $1, username = $2, full_name = $3, hashed_password = $4
			  WHERE username = $5
			  RETURNING ` + userColumns
	row := s.DB.QueryRowContext(ctx, query,
		nullString(user.Email), user.Username, user.FullName, user.PasswordHash, target)
	updated, err := scanUser(row)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case isUniqueViolation(err):
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}
}

// SetUserDisabled меняет флаг блокировки пользователя.
func (s *Storage) SetUserDisabled(ctx context.Context, username string, disabled bool) (*models.User, error) {
	const op = "storage.SetUserDisabled"

	query := `UPDATE users SET disabled = $1 WHERE username = $2 RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, disabled, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя по имени.
func (s *Storage) DeleteUser(ctx context.Context, username string) error {
	const op = "storage.DeleteUser"

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
