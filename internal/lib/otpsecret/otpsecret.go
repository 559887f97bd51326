// Package otpsecret генерирует секреты TOTP, которые сохраняются вместе
// с учётной записью при её создании.
package otpsecret

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

// Issuer — имя издателя в URI ключа.
const Issuer = "qcm-api"

// Generate возвращает новый base32-секрет для пользователя accountName.
func Generate(accountName string) (string, error) {
	const op = "otpsecret.Generate"
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return key.Secret(), nil
}
