package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// RefreshTokenBytes - энтропия refresh токена
const RefreshTokenBytes = 32

// GenerateOpaqueToken возвращает n случайных байт в base64url
func GenerateOpaqueToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRefreshToken - сырой токен отдается клиенту один раз
func GenerateRefreshToken() (string, error) {
	return GenerateOpaqueToken(RefreshTokenBytes)
}

// HashRefreshToken - в базе хранится только sha256 hex
func HashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
