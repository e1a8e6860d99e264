package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas_backend/internal/auth"
	"saas_backend/pkg/apperrors"
)

func TestRefreshToken_RoundTrip(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")
	meta := ClientMeta{DeviceInfo: "test", IPAddress: "127.0.0.1"}

	issued, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, meta)
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.Equal(t, auth.HashRefreshToken(issued.Token), issued.Record.TokenHash)
	assert.NotContains(t, issued.Record.TokenHash, issued.Token)
	assert.Equal(t, f.clock().Add(DefaultRefreshTTL), issued.Record.ExpiresAt)

	rotated, err := f.svc.Tokens.RotateRefreshToken(f.ctx, issued.Token, meta)
	require.NoError(t, err)
	assert.NotEqual(t, issued.Token, rotated.Token)
	assert.Equal(t, user.ID, rotated.Record.UserID)

	old, err := f.store.RefreshTokens.FindByHash(f.ctx, issued.Record.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, old.ReplacedByID)
	assert.Equal(t, rotated.Record.ID, *old.ReplacedByID)

	// новый токен тоже работает ровно один раз
	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, rotated.Token, meta)
	require.NoError(t, err)
}

func TestRefreshToken_ReuseRevokesFamily(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")

	issued, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, ClientMeta{})
	require.NoError(t, err)
	rotated, err := f.svc.Tokens.RotateRefreshToken(f.ctx, issued.Token, ClientMeta{})
	require.NoError(t, err)

	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, issued.Token, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))

	// отзыв закоммичен: легитимный токен тоже больше не работает
	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, rotated.Token, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))

	live, err := f.store.RefreshTokens.FindByHash(f.ctx, rotated.Record.TokenHash)
	require.NoError(t, err)
	assert.True(t, live.IsRevoked())
}

func TestRefreshToken_Rejections(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")

	_, err := f.svc.Tokens.RotateRefreshToken(f.ctx, "", ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))

	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, "never-issued", ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))

	expiring, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, ClientMeta{})
	require.NoError(t, err)
	f.advance(DefaultRefreshTTL + time.Second)
	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, expiring.Token, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))

	revoked, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Tokens.Revoke(f.ctx, revoked.Token))
	require.NoError(t, f.svc.Tokens.Revoke(f.ctx, revoked.Token), "revoke is idempotent")
	_, err = f.svc.Tokens.RotateRefreshToken(f.ctx, revoked.Token, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))
}

func TestRefreshToken_ScopeSurvivesRotation(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")
	tenant := f.tenant("acme")

	issued, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{TenantID: tenant.ID}, ClientMeta{})
	require.NoError(t, err)

	rotated, err := f.svc.Tokens.RotateRefreshToken(f.ctx, issued.Token, ClientMeta{})
	require.NoError(t, err)
	require.NotNil(t, rotated.Record.TenantID)
	assert.Equal(t, tenant.ID, *rotated.Record.TenantID)
	assert.Nil(t, rotated.Record.PartnerID)
}

func TestRefreshToken_SweepStale(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")

	old, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, ClientMeta{})
	require.NoError(t, err)
	require.NoError(t, f.svc.Tokens.Revoke(f.ctx, old.Token))

	f.advance(DefaultRefreshRetention + 24*time.Hour)
	fresh, err := f.svc.Tokens.IssueRefreshToken(f.ctx, user.ID, TokenScope{}, ClientMeta{})
	require.NoError(t, err)

	n, err := f.svc.Tokens.SweepStale(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, f.db.TokenCount())

	_, err = f.store.RefreshTokens.FindByHash(f.ctx, fresh.Record.TokenHash)
	assert.NoError(t, err)
}

func TestAccessToken_VerifyFailuresAreUnauthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Tokens.VerifyAccessToken("not-a-jwt")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))

	token, _, err := f.svc.Tokens.IssueAccessToken(auth.Claims{Email: "a@example.com"})
	require.NoError(t, err)
	_, err = f.svc.Tokens.VerifyAccessToken(token)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated), "subject is required")
}
