package services

import (
	"context"
	"errors"

	"saas_backend/internal/cache"
	"saas_backend/internal/entitlements"
	"saas_backend/internal/logger"
	"saas_backend/internal/metrics"
	"saas_backend/internal/repositories"
)

// EntitlementResolver собирает снапшот фич тенанта из его live-подписки.
// Фича включена, только если включена и в плане, и глобально.
type EntitlementResolver interface {
	Resolve(ctx context.Context, tenantID string) (*entitlements.Snapshot, error)
	Invalidate(ctx context.Context, tenantID string)
	InvalidateAll(ctx context.Context)
}

type entitlementResolver struct {
	store *repositories.Store
	cache cache.EntitlementCache
	clock Clock
}

// NewEntitlementResolver - c может быть nil, тогда каждый запрос идет в базу
func NewEntitlementResolver(store *repositories.Store, c cache.EntitlementCache, clock Clock) EntitlementResolver {
	return &entitlementResolver{store: store, cache: c, clock: clock}
}

func (r *entitlementResolver) Resolve(ctx context.Context, tenantID string) (*entitlements.Snapshot, error) {
	// поколение берется до чтения базы: инвалидация во время load
	// не даст записать устаревший снапшот
	var gen cache.Generation
	if r.cache != nil {
		snap, g, hit, err := r.cache.Get(ctx, tenantID)
		switch {
		case err != nil:
			metrics.RecordEntitlementCache("error")
			logger.CtxWithError(ctx, "Entitlement cache read failed", err, "tenant_id", tenantID)
		case hit:
			metrics.RecordEntitlementCache("hit")
			return snap, nil
		default:
			metrics.RecordEntitlementCache("miss")
			gen = g
		}
	}

	snap, err := r.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if gen != "" {
		if err := r.cache.Set(ctx, gen, snap); err != nil {
			logger.CtxWithError(ctx, "Entitlement cache write failed", err, "tenant_id", tenantID)
		}
	}
	return snap, nil
}

func (r *entitlementResolver) load(ctx context.Context, tenantID string) (*entitlements.Snapshot, error) {
	now := r.clock.now()

	sub, err := r.store.Subscriptions.FindLiveByTenant(ctx, tenantID)
	if errors.Is(err, repositories.ErrSubscriptionNotFound) {
		return entitlements.Empty(tenantID, now), nil
	}
	if err != nil {
		return nil, handleRepoError(err)
	}

	plan, err := r.store.Plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, handleRepoError(err)
	}

	rows, err := r.store.Plans.FindPlanFeatures(ctx, plan.ID)
	if err != nil {
		return nil, handleRepoError(err)
	}

	features := make(map[string]entitlements.Limits, len(rows))
	for _, pf := range rows {
		if pf.Feature == nil || !pf.IsEnabled || !pf.Feature.IsEnabled {
			continue
		}
		limits, dropped, err := entitlements.ParseLimits(pf.Limits)
		if err != nil {
			logger.CtxWarn(ctx, "Malformed feature limits, treating as unlimited",
				"plan", plan.Code, "feature", pf.Feature.Code, "error", err)
			limits = entitlements.Limits{}
		}
		if len(dropped) > 0 {
			logger.CtxWarn(ctx, "Non-integer feature limits dropped",
				"plan", plan.Code, "feature", pf.Feature.Code, "keys", dropped)
		}
		features[pf.Feature.Code] = limits
	}

	return entitlements.NewSnapshot(entitlements.Source{
		TenantID:       tenantID,
		SubscriptionID: sub.ID,
		PlanID:         plan.ID,
		PlanCode:       plan.Code,
		Status:         sub.Status,
		ResolvedAt:     now,
	}, features), nil
}

func (r *entitlementResolver) Invalidate(ctx context.Context, tenantID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, tenantID); err != nil {
		logger.CtxWithError(ctx, "Entitlement cache invalidation failed", err, "tenant_id", tenantID)
	}
}

func (r *entitlementResolver) InvalidateAll(ctx context.Context) {
	if r.cache == nil {
		return
	}
	if err := r.cache.InvalidateAll(ctx); err != nil {
		logger.CtxWithError(ctx, "Entitlement cache flush failed", err)
	}
}
