package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword создает bcrypt хеш пароля
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash проверяет пароль против хеша
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash сравнивается, когда пользователь не найден,
// чтобы время ответа не выдавало существование email
var dummyHash, _ = HashPassword("not-a-real-password")

// CompareWithDummy тратит то же время, что и настоящая проверка
func CompareWithDummy(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}

// ValidatePassword проверяет сложность пароля
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		return errors.New("password must be at most 72 bytes long")
	}
	return nil
}
