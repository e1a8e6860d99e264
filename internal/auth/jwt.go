package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrEmptySecret        = errors.New("jwt secret must not be empty")
)

// Claims - содержимое access токена. Subject = user ID.
// Поля тенанта/партнера заполняются только при резолве членства.
type Claims struct {
	Email        string   `json:"email"`
	Name         string   `json:"name,omitempty"`
	IsSuperAdmin bool     `json:"is_super_admin,omitempty"`
	TenantID     string   `json:"tenant_id,omitempty"`
	TenantSlug   string   `json:"tenant_slug,omitempty"`
	TenantRole   string   `json:"tenant_role,omitempty"`
	PartnerID    string   `json:"partner_id,omitempty"`
	PartnerSlug  string   `json:"partner_slug,omitempty"`
	PartnerRole  string   `json:"partner_role,omitempty"`
	PlanID       string   `json:"plan_id,omitempty"`
	PlanCode     string   `json:"plan_code,omitempty"`
	Features     []string `json:"features,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() string {
	return c.Subject
}

// TokenCodec подписывает и проверяет access токены (HS256)
type TokenCodec struct {
	secret    []byte
	issuer    string
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenCodec(secret, issuer string, accessTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenCodec{
		secret:    []byte(secret),
		issuer:    issuer,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// WithClock подменяет источник времени
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	cp := *c
	cp.now = now
	return &cp
}

func (c *TokenCodec) AccessTTL() time.Duration {
	return c.accessTTL
}

// Issue подписывает claims, проставляя iss/iat/exp/jti
func (c *TokenCodec) Issue(claims Claims) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.accessTTL)

	claims.Issuer = c.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.NotBefore = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if claims.ID == "" {
		id, err := GenerateOpaqueToken(16)
		if err != nil {
			return "", time.Time{}, err
		}
		claims.ID = id
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись, алгоритм, issuer и срок действия
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}
