package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestCodec(t *testing.T, now time.Time) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret, "test-issuer", 15*time.Minute)
	require.NoError(t, err)
	return codec.WithClock(func() time.Time { return now })
}

func TestTokenCodec_IssueAndVerify(t *testing.T) {
	now := time.Now()
	codec := newTestCodec(t, now)

	claims := Claims{
		Email:      "owner@acme.test",
		TenantID:   "tenant-1",
		TenantRole: "admin",
		Features:   []string{"reports"},
	}
	claims.Subject = "user-1"

	token, expiresAt, err := codec.Issue(claims)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(15*time.Minute), expiresAt, time.Second)

	parsed, err := codec.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.UserID())
	assert.Equal(t, "tenant-1", parsed.TenantID)
	assert.Equal(t, []string{"reports"}, parsed.Features)
	assert.NotEmpty(t, parsed.ID)
}

func TestTokenCodec_RejectsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-time.Hour)
	token, _, err := newTestCodec(t, issuedAt).Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)

	_, err = newTestCodec(t, time.Now()).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestTokenCodec_RejectsForeignSecretAndIssuer(t *testing.T) {
	now := time.Now()
	token, _, err := newTestCodec(t, now).Issue(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	require.NoError(t, err)

	other, err := NewTokenCodec("another-secret-another-secret-xx", "test-issuer", time.Minute)
	require.NoError(t, err)
	_, err = other.WithClock(func() time.Time { return now }).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	otherIssuer, err := NewTokenCodec(testSecret, "someone-else", time.Minute)
	require.NoError(t, err)
	_, err = otherIssuer.WithClock(func() time.Time { return now }).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestTokenCodec_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "test-issuer",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestCodec(t, time.Now()).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestTokenCodec_RejectsMissingSubject(t *testing.T) {
	codec := newTestCodec(t, time.Now())
	token, _, err := codec.Issue(Claims{Email: "x@y.z"})
	require.NoError(t, err)

	_, err = codec.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	_, err := NewTokenCodec("", "iss", time.Minute)
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestRefreshTokenHashing(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, HashRefreshToken(a), 64)
	assert.Equal(t, HashRefreshToken(a), HashRefreshToken(a))
	assert.NotEqual(t, a, HashRefreshToken(a))
}
