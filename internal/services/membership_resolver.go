package services

import (
	"context"
	"errors"

	"saas_backend/internal/auth"
	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/internal/repositories"
	"saas_backend/pkg/apperrors"
)

// MembershipResolver строит authctx.Context из субъекта токена.
// Отсутствие членства или неактивная организация - не ошибка: соответствующая
// часть контекста просто не заполняется.
type MembershipResolver interface {
	Resolve(ctx context.Context, userID, tenantID, partnerID string) (*authctx.Context, error)
	// TransferOwnership оставляет у тенанта ровно одного владельца
	TransferOwnership(ctx context.Context, tenantID, newOwnerUserID string) error
}

type membershipResolver struct {
	store *repositories.Store
}

func NewMembershipResolver(store *repositories.Store) MembershipResolver {
	return &membershipResolver{store: store}
}

func (r *membershipResolver) Resolve(ctx context.Context, userID, tenantID, partnerID string) (*authctx.Context, error) {
	user, err := r.store.Users.FindByID(ctx, userID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return nil, apperrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, handleRepoError(err)
	}
	if !user.IsActive() {
		return nil, apperrors.ErrUnauthenticated
	}

	ac := &authctx.Context{User: user}

	if tenantID != "" {
		m, err := r.store.Memberships.FindTenantMembership(ctx, user.ID, tenantID)
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
			logger.CtxDebug(ctx, "No tenant membership, tenant context omitted", "tenant_id", tenantID)
		case err != nil:
			return nil, handleRepoError(err)
		case m.Tenant.IsActive():
			ac.Tenant = m.Tenant
			ac.TenantMembership = m
			ac.TenantRole = m.Role
			ac.Permissions = auth.ResolveTenantPermissions(m)
		default:
			logger.CtxDebug(ctx, "Tenant is not active, tenant context omitted", "tenant_id", tenantID)
		}
	}

	if partnerID != "" {
		m, err := r.store.Memberships.FindPartnerMembership(ctx, user.ID, partnerID)
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
			logger.CtxDebug(ctx, "No partner membership, partner context omitted", "partner_id", partnerID)
		case err != nil:
			return nil, handleRepoError(err)
		case m.Partner.IsActive():
			ac.Partner = m.Partner
			ac.PartnerRole = m.Role
			ac.PartnerPermissions = auth.ResolvePartnerPermissions(m.Role)
		default:
			logger.CtxDebug(ctx, "Partner is not active, partner context omitted", "partner_id", partnerID)
		}
	}

	return ac, nil
}

func (r *membershipResolver) TransferOwnership(ctx context.Context, tenantID, newOwnerUserID string) error {
	err := r.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// блокировка тенанта сериализует конкурентные передачи
		if _, err := r.store.Tenants.FindByIDForUpdate(ctx, tenantID); err != nil {
			return err
		}

		next, err := r.store.Memberships.FindTenantMembership(ctx, newOwnerUserID, tenantID)
		if err != nil {
			return err
		}
		if next.IsOwner {
			return nil
		}

		current, err := r.store.Memberships.FindTenantOwner(ctx, tenantID)
		switch {
		case errors.Is(err, repositories.ErrMembershipNotFound):
		case err != nil:
			return err
		default:
			if err := r.store.Memberships.SetOwner(ctx, current.ID, false); err != nil {
				return err
			}
		}
		return r.store.Memberships.SetOwner(ctx, next.ID, true)
	})
	if err != nil {
		return handleRepoError(err)
	}
	logger.CtxInfo(ctx, "Tenant ownership transferred", "tenant_id", tenantID, "owner_user_id", newOwnerUserID)
	return nil
}
