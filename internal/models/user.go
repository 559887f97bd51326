// Package models содержит доменные модели сервиса QCM: пользователей,
// вопросы и события аудита. Структуры используются в бизнес‑логике,
// при работе с хранилищем и в HTTP-ответах.
package models

// Role — роль пользователя.
type Role string

const (
	// RoleAdmin — администратор: управление пользователями и вопросами.
	RoleAdmin Role = "admin"
	// RoleUser — обычный пользователь: доступ к QCM.
	RoleUser Role = "user"
)

// Valid сообщает, является ли роль одной из известных.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	PasswordHash string `json:"-"` // bcrypt-хэш пароля
	OTPSecret    string `json:"-"` // base32-секрет TOTP, для входа не используется
	Disabled     bool   `json:"disabled"`
	Role         Role   `json:"role"`
}

// IsAdmin сообщает, обладает ли пользователь правами администратора.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserCreate — данные для создания пользователя администратором.
type UserCreate struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name,omitempty" validate:"max=100"`
	Password string `json:"password" validate:"required,min=4,password_bytes"`
	Role     Role   `json:"role,omitempty" validate:"omitempty,role"`
}

// UserUpdate — новые значения учётных данных пользователя.
type UserUpdate struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	FullName string `json:"full_name,omitempty" validate:"max=100"`
	Password string `json:"password" validate:"required,min=4,password_bytes"`
}

// UserDeactivate — тело запроса блокировки пользователя.
// Отсутствующее поле Disabled трактуется как true.
type UserDeactivate struct {
	Disabled *bool `json:"disabled,omitempty"`
}

// Value возвращает итоговое значение флага блокировки.
func (d UserDeactivate) Value() bool {
	if d.Disabled == nil {
		return true
	}
	return *d.Disabled
}

// Token — ответ эндпоинта выдачи токена в формате OAuth2.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
