package repositories

import (
	"context"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

type MembershipRepository interface {
	CreateRole(ctx context.Context, role *models.Role) error
	CreateTenantMembership(ctx context.Context, m *models.TenantUser) error
	CreatePartnerMembership(ctx context.Context, m *models.PartnerUser) error

	// FindTenantMembership подгружает Tenant и CustomRole
	FindTenantMembership(ctx context.Context, userID, tenantID string) (*models.TenantUser, error)
	// FindPartnerMembership подгружает Partner
	FindPartnerMembership(ctx context.Context, userID, partnerID string) (*models.PartnerUser, error)

	FindTenantOwner(ctx context.Context, tenantID string) (*models.TenantUser, error)
	SetOwner(ctx context.Context, membershipID string, isOwner bool) error
}

type MembershipRepositoryImpl struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) MembershipRepository {
	return &MembershipRepositoryImpl{db: db}
}

func (r *MembershipRepositoryImpl) CreateRole(ctx context.Context, role *models.Role) error {
	return mapError(conn(ctx, r.db).Create(role).Error, ErrMembershipNotFound)
}

func (r *MembershipRepositoryImpl) CreateTenantMembership(ctx context.Context, m *models.TenantUser) error {
	return mapError(conn(ctx, r.db).Omit("Tenant", "CustomRole").Create(m).Error, ErrMembershipNotFound)
}

func (r *MembershipRepositoryImpl) CreatePartnerMembership(ctx context.Context, m *models.PartnerUser) error {
	return mapError(conn(ctx, r.db).Omit("Partner").Create(m).Error, ErrMembershipNotFound)
}

func (r *MembershipRepositoryImpl) FindTenantMembership(ctx context.Context, userID, tenantID string) (*models.TenantUser, error) {
	var m models.TenantUser
	err := conn(ctx, r.db).
		Preload("Tenant", "deleted_at IS NULL").
		Preload("CustomRole").
		Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		First(&m).Error
	if err != nil {
		return nil, mapError(err, ErrMembershipNotFound)
	}
	return &m, nil
}

func (r *MembershipRepositoryImpl) FindPartnerMembership(ctx context.Context, userID, partnerID string) (*models.PartnerUser, error) {
	var m models.PartnerUser
	err := conn(ctx, r.db).
		Preload("Partner", "deleted_at IS NULL").
		Where("user_id = ? AND partner_id = ?", userID, partnerID).
		First(&m).Error
	if err != nil {
		return nil, mapError(err, ErrMembershipNotFound)
	}
	return &m, nil
}

func (r *MembershipRepositoryImpl) FindTenantOwner(ctx context.Context, tenantID string) (*models.TenantUser, error) {
	var m models.TenantUser
	err := conn(ctx, r.db).
		Where("tenant_id = ? AND is_owner = ?", tenantID, true).
		First(&m).Error
	if err != nil {
		return nil, mapError(err, ErrMembershipNotFound)
	}
	return &m, nil
}

func (r *MembershipRepositoryImpl) SetOwner(ctx context.Context, membershipID string, isOwner bool) error {
	result := conn(ctx, r.db).Model(&models.TenantUser{}).
		Where("id = ?", membershipID).
		Update("is_owner", isOwner)
	if result.Error != nil {
		return mapError(result.Error, ErrMembershipNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrMembershipNotFound
	}
	return nil
}
