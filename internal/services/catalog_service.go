package services

import (
	"context"

	"saas_backend/internal/logger"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

// CatalogService - планы и глобальные флаги фич
type CatalogService interface {
	ListPlans(ctx context.Context) ([]models.Plan, error)
	// SetFeatureEnabled - глобальный kill switch, действует на все планы
	SetFeatureEnabled(ctx context.Context, code string, enabled bool) (*models.Feature, error)
	AllowPartnerPlan(ctx context.Context, partnerID, planID string) error
}

type catalogService struct {
	store        *repositories.Store
	entitlements EntitlementResolver
}

func NewCatalogService(store *repositories.Store, ents EntitlementResolver) CatalogService {
	return &catalogService{store: store, entitlements: ents}
}

func (s *catalogService) ListPlans(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.store.Plans.ListActive(ctx)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return plans, nil
}

func (s *catalogService) SetFeatureEnabled(ctx context.Context, code string, enabled bool) (*models.Feature, error) {
	feature, err := s.store.Plans.FindFeatureByCode(ctx, code)
	if err != nil {
		return nil, handleRepoError(err)
	}
	if feature.IsEnabled != enabled {
		if err := s.store.Plans.SetFeatureEnabled(ctx, feature.ID, enabled); err != nil {
			return nil, handleRepoError(err)
		}
		feature.IsEnabled = enabled
	}

	s.entitlements.InvalidateAll(ctx)
	logger.CtxInfo(ctx, "Feature flag changed", "feature", code, "enabled", enabled, "actor", actorFromContext(ctx))
	return feature, nil
}

func (s *catalogService) AllowPartnerPlan(ctx context.Context, partnerID, planID string) error {
	if _, err := s.store.Partners.FindByID(ctx, partnerID); err != nil {
		return handleRepoError(err)
	}
	if _, err := s.store.Plans.FindByID(ctx, planID); err != nil {
		return handleRepoError(err)
	}
	if err := s.store.Partners.AllowPlan(ctx, partnerID, planID); err != nil {
		return handleRepoError(err)
	}
	s.entitlements.InvalidateAll(ctx)
	return nil
}
