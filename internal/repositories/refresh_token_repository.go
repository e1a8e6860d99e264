package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

// RefreshTokenRepository - токены адресуются только по sha256 хэшу
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error)
	FindByHashForUpdate(ctx context.Context, hash string) (*models.RefreshToken, error)
	// Revoke помечает токен отозванным; replacedByID != nil - ротация
	Revoke(ctx context.Context, id string, at time.Time, replacedByID *string) error
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)
	// DeleteStale удаляет токены, истекшие или отозванные до cutoff
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type RefreshTokenRepositoryImpl struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &RefreshTokenRepositoryImpl{db: db}
}

func (r *RefreshTokenRepositoryImpl) Create(ctx context.Context, token *models.RefreshToken) error {
	return mapError(conn(ctx, r.db).Create(token).Error, ErrRefreshTokenNotFound)
}

func (r *RefreshTokenRepositoryImpl) FindByHash(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := conn(ctx, r.db).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, mapError(err, ErrRefreshTokenNotFound)
	}
	return &token, nil
}

func (r *RefreshTokenRepositoryImpl) FindByHashForUpdate(ctx context.Context, hash string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := forUpdate(conn(ctx, r.db)).Where("token_hash = ?", hash).First(&token).Error; err != nil {
		return nil, mapError(err, ErrRefreshTokenNotFound)
	}
	return &token, nil
}

func (r *RefreshTokenRepositoryImpl) Revoke(ctx context.Context, id string, at time.Time, replacedByID *string) error {
	updates := map[string]interface{}{"revoked_at": at}
	if replacedByID != nil {
		updates["replaced_by_id"] = *replacedByID
	}
	result := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *RefreshTokenRepositoryImpl) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error) {
	result := conn(ctx, r.db).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", at)
	return result.RowsAffected, result.Error
}

func (r *RefreshTokenRepositoryImpl) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := conn(ctx, r.db).
		Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
