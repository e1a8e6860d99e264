package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saas_backend/internal/models"
)

type PartnerRepository interface {
	Create(ctx context.Context, partner *models.Partner) error
	FindByID(ctx context.Context, id string) (*models.Partner, error)
	AllowPlan(ctx context.Context, partnerID, planID string) error
	IsPlanAllowed(ctx context.Context, partnerID, planID string) (bool, error)
}

type PartnerRepositoryImpl struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &PartnerRepositoryImpl{db: db}
}

func (r *PartnerRepositoryImpl) Create(ctx context.Context, partner *models.Partner) error {
	return mapError(conn(ctx, r.db).Create(partner).Error, ErrPartnerNotFound)
}

func (r *PartnerRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Partner, error) {
	var partner models.Partner
	if err := alive(conn(ctx, r.db)).First(&partner, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrPartnerNotFound)
	}
	return &partner, nil
}

// AllowPlan идемпотентно добавляет план в allow-list
func (r *PartnerRepositoryImpl) AllowPlan(ctx context.Context, partnerID, planID string) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PartnerPlan{PartnerID: partnerID, PlanID: planID}).Error
}

func (r *PartnerRepositoryImpl) IsPlanAllowed(ctx context.Context, partnerID, planID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.PartnerPlan{}).
		Where("partner_id = ? AND plan_id = ?", partnerID, planID).
		Count(&count).Error
	return count > 0, err
}
