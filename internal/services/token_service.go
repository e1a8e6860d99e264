package services

import (
	"context"
	"errors"
	"time"

	"saas_backend/internal/auth"
	"saas_backend/internal/logger"
	"saas_backend/internal/metrics"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
	"saas_backend/pkg/apperrors"
)

const (
	DefaultRefreshTTL       = 7 * 24 * time.Hour
	DefaultRefreshRetention = 30 * 24 * time.Hour
)

// ClientMeta - откуда пришел запрос на выдачу токена
type ClientMeta struct {
	DeviceInfo string
	IPAddress  string
}

// TokenScope - тенант/партнер, под которые выпущен refresh токен
type TokenScope struct {
	TenantID  string
	PartnerID string
}

// IssuedRefreshToken - сырой токен отдается клиенту один раз
type IssuedRefreshToken struct {
	Token  string
	Record *models.RefreshToken
}

type TokenService interface {
	IssueAccessToken(claims auth.Claims) (string, time.Time, error)
	VerifyAccessToken(token string) (*auth.Claims, error)

	IssueRefreshToken(ctx context.Context, userID string, scope TokenScope, meta ClientMeta) (*IssuedRefreshToken, error)
	// RotateRefreshToken погашает предъявленный токен и выдает новый в одной
	// транзакции. Повторное предъявление погашенного токена отзывает все
	// токены пользователя.
	RotateRefreshToken(ctx context.Context, presented string, meta ClientMeta) (*IssuedRefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAll(ctx context.Context, userID string) (int64, error)
	// SweepStale удаляет истекшие/отозванные токены старше окна хранения
	SweepStale(ctx context.Context) (int64, error)
}

type tokenService struct {
	store      *repositories.Store
	codec      *auth.TokenCodec
	refreshTTL time.Duration
	retention  time.Duration
	clock      Clock
}

func NewTokenService(store *repositories.Store, codec *auth.TokenCodec, refreshTTL, retention time.Duration, clock Clock) TokenService {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	if retention <= 0 {
		retention = DefaultRefreshRetention
	}
	return &tokenService{
		store:      store,
		codec:      codec,
		refreshTTL: refreshTTL,
		retention:  retention,
		clock:      clock,
	}
}

func (s *tokenService) IssueAccessToken(claims auth.Claims) (string, time.Time, error) {
	token, exp, err := s.codec.Issue(claims)
	if err != nil {
		return "", time.Time{}, apperrors.InternalError(err)
	}
	return token, exp, nil
}

func (s *tokenService) VerifyAccessToken(token string) (*auth.Claims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated.WithError(err)
	}
	return claims, nil
}

func (s *tokenService) newRecord(userID string, scope TokenScope, meta ClientMeta, now time.Time) (*IssuedRefreshToken, error) {
	raw, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	rec := &models.RefreshToken{
		UserID:     userID,
		TokenHash:  auth.HashRefreshToken(raw),
		ExpiresAt:  now.Add(s.refreshTTL),
		TenantID:   optionalString(scope.TenantID),
		PartnerID:  optionalString(scope.PartnerID),
		DeviceInfo: meta.DeviceInfo,
		IPAddress:  meta.IPAddress,
	}
	return &IssuedRefreshToken{Token: raw, Record: rec}, nil
}

func (s *tokenService) IssueRefreshToken(ctx context.Context, userID string, scope TokenScope, meta ClientMeta) (*IssuedRefreshToken, error) {
	issued, err := s.newRecord(userID, scope, meta, s.clock.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.RefreshTokens.Create(ctx, issued.Record); err != nil {
		return nil, handleRepoError(err)
	}
	return issued, nil
}

func (s *tokenService) RotateRefreshToken(ctx context.Context, presented string, meta ClientMeta) (*IssuedRefreshToken, error) {
	if presented == "" {
		return nil, apperrors.ErrInvalidCredential
	}
	hash := auth.HashRefreshToken(presented)

	var (
		issued    *IssuedRefreshToken
		reusedBy  string
		revokedN  int64
		rejection = "invalid"
	)
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.store.RefreshTokens.FindByHashForUpdate(ctx, hash)
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return apperrors.ErrInvalidCredential
		}
		if err != nil {
			return handleRepoError(err)
		}

		now := s.clock.now()
		if current.IsRotated() {
			// коммитим отзыв семейства, ошибку отдаем после транзакции
			n, err := s.store.RefreshTokens.RevokeAllForUser(ctx, current.UserID, now)
			if err != nil {
				return handleRepoError(err)
			}
			reusedBy, revokedN = current.UserID, n
			return nil
		}
		if !current.IsValid(now) {
			if current.IsExpired(now) {
				rejection = "expired"
			}
			return apperrors.ErrInvalidCredential
		}

		next, err := s.newRecord(current.UserID, scopeOf(current), meta, now)
		if err != nil {
			return err
		}
		if err := s.store.RefreshTokens.Create(ctx, next.Record); err != nil {
			return handleRepoError(err)
		}
		nextID := next.Record.ID
		if err := s.store.RefreshTokens.Revoke(ctx, current.ID, now, &nextID); err != nil {
			return handleRepoError(err)
		}
		issued = next
		return nil
	})

	switch {
	case err != nil:
		if apperrors.Is(err, apperrors.ErrInvalidCredential) {
			metrics.RecordRefreshRotation(rejection)
		} else {
			metrics.RecordRefreshRotation("error")
		}
		return nil, err
	case reusedBy != "":
		metrics.RecordRefreshRotation("reuse")
		logger.CtxWarn(ctx, "Rotated refresh token presented again, revoking all user tokens",
			"user_id", reusedBy, "revoked", revokedN, "ip", meta.IPAddress)
		return nil, apperrors.ErrInvalidCredential
	}

	metrics.RecordRefreshRotation("ok")
	return issued, nil
}

func (s *tokenService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	rec, err := s.store.RefreshTokens.FindByHash(ctx, auth.HashRefreshToken(token))
	if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
		return nil
	}
	if err != nil {
		return handleRepoError(err)
	}
	if rec.IsRevoked() {
		return nil
	}
	err = s.store.RefreshTokens.Revoke(ctx, rec.ID, s.clock.now(), nil)
	if err != nil && !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
		return handleRepoError(err)
	}
	return nil
}

func (s *tokenService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.RefreshTokens.RevokeAllForUser(ctx, userID, s.clock.now())
	if err != nil {
		return 0, handleRepoError(err)
	}
	return n, nil
}

func (s *tokenService) SweepStale(ctx context.Context) (int64, error) {
	cutoff := s.clock.now().Add(-s.retention)
	n, err := s.store.RefreshTokens.DeleteStale(ctx, cutoff)
	if err != nil {
		return 0, handleRepoError(err)
	}
	metrics.RecordTokensSwept(n)
	return n, nil
}

func scopeOf(t *models.RefreshToken) TokenScope {
	var scope TokenScope
	if t.TenantID != nil {
		scope.TenantID = *t.TenantID
	}
	if t.PartnerID != nil {
		scope.PartnerID = *t.PartnerID
	}
	return scope
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
