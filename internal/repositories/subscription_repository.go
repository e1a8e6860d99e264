package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

var liveStatuses = []models.SubscriptionStatus{
	models.SubscriptionStatusTrial,
	models.SubscriptionStatusActive,
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	FindByID(ctx context.Context, id string) (*models.Subscription, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Subscription, error)
	// FindLiveByTenant - самая свежая trial/active подписка тенанта
	FindLiveByTenant(ctx context.Context, tenantID string) (*models.Subscription, error)
	ListByTenant(ctx context.Context, tenantID string) ([]models.Subscription, error)
	CountLiveByTenant(ctx context.Context, tenantID, excludeID string) (int64, error)
	// Update сохраняет все поля, включая нулевые
	Update(ctx context.Context, sub *models.Subscription) error
	// ListDueIDs - live подписки с current_period_end <= now
	ListDueIDs(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type SubscriptionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &SubscriptionRepositoryImpl{db: db}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *models.Subscription) error {
	return mapError(conn(ctx, r.db).Create(sub).Error, ErrSubscriptionNotFound)
}

func (r *SubscriptionRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := conn(ctx, r.db).First(&sub, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindByIDForUpdate(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := forUpdate(conn(ctx, r.db)).First(&sub, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) FindLiveByTenant(ctx context.Context, tenantID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND status IN ?", tenantID, liveStatuses).
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, mapError(err, ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepositoryImpl) ListByTenant(ctx context.Context, tenantID string) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := conn(ctx, r.db).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepositoryImpl) CountLiveByTenant(ctx context.Context, tenantID, excludeID string) (int64, error) {
	q := conn(ctx, r.db).Model(&models.Subscription{}).
		Where("tenant_id = ? AND status IN ?", tenantID, liveStatuses)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *models.Subscription) error {
	result := conn(ctx, r.db).Model(sub).Select("*").Omit("id", "created_at").Updates(sub)
	if result.Error != nil {
		return mapError(result.Error, ErrSubscriptionNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubscriptionRepositoryImpl) ListDueIDs(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	q := conn(ctx, r.db).Model(&models.Subscription{}).
		Where("status IN ? AND current_period_end <= ?", liveStatuses, now).
		Order("current_period_end ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Pluck("id", &ids).Error
	return ids, err
}
