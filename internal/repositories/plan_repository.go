package repositories

import (
	"context"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

// PlanRepository - каталог планов и фич
type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	FindByID(ctx context.Context, id string) (*models.Plan, error)
	FindByCode(ctx context.Context, code string) (*models.Plan, error)
	ListActive(ctx context.Context) ([]models.Plan, error)

	CreateFeature(ctx context.Context, feature *models.Feature) error
	FindFeatureByCode(ctx context.Context, code string) (*models.Feature, error)
	SetFeatureEnabled(ctx context.Context, featureID string, enabled bool) error

	AttachFeature(ctx context.Context, pf *models.PlanFeature) error
	// FindPlanFeatures возвращает строки плана с подгруженной Feature
	FindPlanFeatures(ctx context.Context, planID string) ([]models.PlanFeature, error)
}

type PlanRepositoryImpl struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &PlanRepositoryImpl{db: db}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *models.Plan) error {
	return mapError(conn(ctx, r.db).Create(plan).Error, ErrPlanNotFound)
}

func (r *PlanRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	if err := conn(ctx, r.db).First(&plan, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrPlanNotFound)
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) FindByCode(ctx context.Context, code string) (*models.Plan, error) {
	var plan models.Plan
	if err := conn(ctx, r.db).Where("code = ?", code).First(&plan).Error; err != nil {
		return nil, mapError(err, ErrPlanNotFound)
	}
	return &plan, nil
}

func (r *PlanRepositoryImpl) ListActive(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := conn(ctx, r.db).Where("is_active = ?", true).Order("monthly_price ASC").Find(&plans).Error
	return plans, err
}

func (r *PlanRepositoryImpl) CreateFeature(ctx context.Context, feature *models.Feature) error {
	return mapError(conn(ctx, r.db).Create(feature).Error, ErrFeatureNotFound)
}

func (r *PlanRepositoryImpl) FindFeatureByCode(ctx context.Context, code string) (*models.Feature, error) {
	var feature models.Feature
	if err := conn(ctx, r.db).Where("code = ?", code).First(&feature).Error; err != nil {
		return nil, mapError(err, ErrFeatureNotFound)
	}
	return &feature, nil
}

func (r *PlanRepositoryImpl) SetFeatureEnabled(ctx context.Context, featureID string, enabled bool) error {
	result := conn(ctx, r.db).Model(&models.Feature{}).
		Where("id = ?", featureID).
		Update("is_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrFeatureNotFound
	}
	return nil
}

func (r *PlanRepositoryImpl) AttachFeature(ctx context.Context, pf *models.PlanFeature) error {
	return mapError(conn(ctx, r.db).Omit("Feature").Create(pf).Error, ErrFeatureNotFound)
}

func (r *PlanRepositoryImpl) FindPlanFeatures(ctx context.Context, planID string) ([]models.PlanFeature, error) {
	var rows []models.PlanFeature
	err := conn(ctx, r.db).
		Preload("Feature").
		Where("plan_id = ?", planID).
		Find(&rows).Error
	return rows, err
}
