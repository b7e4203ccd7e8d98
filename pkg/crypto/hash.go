package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Ошибки хеширования
var (
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrPasswordMismatch = errors.New("password does not match hash")
	ErrInvalidHash      = errors.New("invalid password hash format")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length of 72 bytes")
)

// DefaultCost стоимость bcrypt по умолчанию. Токен API проверяется
// один раз на запрос, так что запас по времени хеширования есть.
const DefaultCost = 12

// MaxPasswordLength ограничение bcrypt на длину входа (72 байта)
const MaxPasswordLength = 72

// HashPassword хеширует токен доступа к API с использованием bcrypt.
// Salt генерируется автоматически: в конфигурации хранится только хеш,
// сам токен выдаётся оператору один раз.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if len(password) > MaxPasswordLength {
		return "", ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// VerifyPassword проверяет соответствие токена хешу.
// Сравнение constant-time, защита от timing-атак на слой Auth.
func VerifyPassword(password, hash string) error {
	if password == "" {
		return ErrEmptyPassword
	}

	if hash == "" {
		return ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return ErrInvalidHash
	}

	return nil
}

// CheckPasswordMatch bool-обёртка над VerifyPassword для условий
func CheckPasswordMatch(password, hash string) bool {
	return VerifyPassword(password, hash) == nil
}
