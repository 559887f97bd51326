// Package validation создаёт валидатор структур с правилами предметной области:
// роль пользователя, тематика и тип теста вопроса, ключ ответа, длина пароля.
package validation

import (
	"fmt"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/qcm-api/internal/models"
)

// New возвращает валидатор с зарегистрированными правилами
// role, subject, use, answer_key и password_bytes.
func New() *validator.Validate {
	v := validator.New()
	mustRegister(v, "role", validateRole)
	mustRegister(v, "subject", validateSubject)
	mustRegister(v, "use", validateUse)
	mustRegister(v, "answer_key", validateAnswerKey)
	mustRegister(v, "password_bytes", validatePasswordBytes)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation tag %q: %v", tag, err))
	}
}

func validateRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.Role(value).Valid()
}

func validateSubject(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.Subject(value).Valid()
}

func validateUse(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.Use(value).Valid()
}

func validateAnswerKey(fl validator.FieldLevel) bool {
	return ValidAnswerKey(fl.Field().String())
}

// MaxPasswordBytes задаёт предел bcrypt на длину пароля в байтах.
const MaxPasswordBytes = 72

// validatePasswordBytes ограничивает длину пароля в байтах, а не в символах.
func validatePasswordBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxPasswordBytes
}

// ValidAnswerKey проверяет ключ ответа: от одной до четырёх различных
// букв A-D без пробелов, например "A" или "BD".
func ValidAnswerKey(key string) bool {
	if key == "" || len(key) > 4 {
		return false
	}
	seen := make(map[rune]bool, 4)
	for _, r := range key {
		if r < 'A' || r > 'D' || seen[r] {
			return false
		}
		seen[r] = true
	}
	return true
}
