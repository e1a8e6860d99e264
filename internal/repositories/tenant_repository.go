package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

// TenantRepository - все выборки исключают удаленные тенанты
type TenantRepository interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, id string) (*models.Tenant, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Tenant, error)
	ListByPartner(ctx context.Context, partnerID string) ([]models.Tenant, error)
	UpdateStatus(ctx context.Context, id string, status models.OrgStatus) error
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

type TenantRepositoryImpl struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &TenantRepositoryImpl{db: db}
}

func (r *TenantRepositoryImpl) Create(ctx context.Context, tenant *models.Tenant) error {
	return mapError(conn(ctx, r.db).Create(tenant).Error, ErrTenantNotFound)
}

func (r *TenantRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := alive(conn(ctx, r.db)).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrTenantNotFound)
	}
	return &tenant, nil
}

func (r *TenantRepositoryImpl) FindByIDForUpdate(ctx context.Context, id string) (*models.Tenant, error) {
	var tenant models.Tenant
	if err := forUpdate(alive(conn(ctx, r.db))).First(&tenant, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrTenantNotFound)
	}
	return &tenant, nil
}

func (r *TenantRepositoryImpl) ListByPartner(ctx context.Context, partnerID string) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := alive(conn(ctx, r.db)).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepositoryImpl) UpdateStatus(ctx context.Context, id string, status models.OrgStatus) error {
	result := alive(conn(ctx, r.db)).Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (r *TenantRepositoryImpl) SoftDelete(ctx context.Context, id string, at time.Time) error {
	result := alive(conn(ctx, r.db)).Model(&models.Tenant{}).
		Where("id = ?", id).
		Update("deleted_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTenantNotFound
	}
	return nil
}
