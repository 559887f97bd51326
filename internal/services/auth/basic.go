package services

import (
	"crypto/subtle"
	"fmt"

	"github.com/magabrotheeeer/qcm-api/internal/config"
	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// BasicAuthenticator проверяет учётные данные HTTP Basic по словарю из конфига.
type BasicAuthenticator struct {
	users map[string]config.BasicUser
}

// NewBasicAuthenticator создаёт проверяющего для списка пользователей.
// При повторе имени действует последняя запись.
func NewBasicAuthenticator(users []config.BasicUser) *BasicAuthenticator {
	byName := make(map[string]config.BasicUser, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &BasicAuthenticator{users: byName}
}

// Authenticate возвращает пользователя, если пароль совпадает.
// Сравнение выполняется за постоянное время и для неизвестных имён.
func (a *BasicAuthenticator) Authenticate(username, rawPassword string) (*models.User, error) {
	const op = "services.auth.BasicAuthenticate"

	u, known := a.users[username]
	expected := u.Password
	if !known {
		expected = rawPassword + "\x00"
	}
	match := subtle.ConstantTimeCompare([]byte(expected), []byte(rawPassword)) == 1
	if !known || !match {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	role := models.Role(u.Role)
	if !role.Valid() {
		role = models.RoleUser
	}
	return &models.User{Username: u.Username, Role: role}, nil
}
