package authctx

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"saas_backend/internal/auth"
	"saas_backend/internal/entitlements"
	"saas_backend/internal/models"
	"saas_backend/pkg/apperrors"
)

func tenantContext(role models.TenantRole, features ...string) *Context {
	m := &models.TenantUser{TenantID: "tenant-a", UserID: "user-1", Role: role}
	feats := map[string]entitlements.Limits{}
	for _, f := range features {
		feats[f] = entitlements.Limits{}
	}
	return &Context{
		User:             &models.User{BaseModel: models.BaseModel{ID: "user-1"}},
		Tenant:           &models.Tenant{BaseModel: models.BaseModel{ID: "tenant-a"}, Status: models.OrgStatusActive},
		TenantMembership: m,
		TenantRole:       role,
		Permissions:      auth.ResolveTenantPermissions(m),
		Entitlements:     entitlements.NewSnapshot(entitlements.Source{TenantID: "tenant-a", SubscriptionID: "s"}, feats),
	}
}

func TestEnforceTenantScope(t *testing.T) {
	ac := tenantContext(models.TenantRoleAdmin)

	assert.NoError(t, ac.EnforceTenantScope(""))
	assert.NoError(t, ac.EnforceTenantScope("tenant-a"))
	assert.ErrorIs(t, ac.EnforceTenantScope("tenant-b"), apperrors.ErrCrossTenantAccess)
}

func TestEnforceTenantScope_WithoutTenant(t *testing.T) {
	ac := &Context{User: &models.User{BaseModel: models.BaseModel{ID: "user-1"}}}
	assert.ErrorIs(t, ac.EnforceTenantScope("tenant-a"), apperrors.ErrTenantAccessRequired)
	assert.ErrorIs(t, ac.RequireTenant(), apperrors.ErrTenantAccessRequired)
}

func TestEnforceScope_SuperAdminPasses(t *testing.T) {
	ac := &Context{User: &models.User{BaseModel: models.BaseModel{ID: "root"}, IsSuperAdmin: true}}
	assert.NoError(t, ac.EnforceTenantScope("tenant-b"))
	assert.NoError(t, ac.EnforcePartnerScope("partner-2"))
	assert.ErrorIs(t, ac.RequireTenant(), apperrors.ErrTenantAccessRequired)
}

func TestRequireAuthenticated_Nil(t *testing.T) {
	var ac *Context
	assert.ErrorIs(t, ac.RequireAuthenticated(), apperrors.ErrUnauthenticated)
	assert.ErrorIs(t, ac.RequireFeature("x"), apperrors.ErrUnauthenticated)
}

func TestRequireFeature_IgnoresRole(t *testing.T) {
	admin := tenantContext(models.TenantRoleAdmin)
	err := admin.RequireFeature("reports")
	assert.ErrorIs(t, err, apperrors.ErrFeatureNotEnabled)

	appErr, ok := apperrors.AsAppError(err)
	if assert.True(t, ok) {
		assert.Equal(t, 403, appErr.HTTPCode)
		assert.Equal(t, apperrors.CodeFeatureNotEnabled, appErr.Code)
	}

	user := tenantContext(models.TenantRoleUser, "reports")
	assert.NoError(t, user.RequireFeature("reports"))
}

func TestRequireTenantRole(t *testing.T) {
	assert.NoError(t, tenantContext(models.TenantRoleAdmin).RequireTenantRole(models.TenantRoleAdmin))
	assert.NoError(t, tenantContext(models.TenantRoleAdmin).RequireTenantRole(models.TenantRoleManager), "admin permissions cover manager")
	assert.ErrorIs(t,
		tenantContext(models.TenantRoleUser).RequireTenantRole(models.TenantRoleAdmin, models.TenantRoleManager),
		apperrors.ErrInsufficientPermissions)
}

func TestRequireTenantRole_CustomRoleCoversBuiltin(t *testing.T) {
	ac := tenantContext(models.TenantRoleUser)
	ac.TenantMembership.CustomRole = &models.Role{Permissions: pq.StringArray(auth.TenantRolePermissions[models.TenantRoleManager])}
	ac.Permissions = auth.ResolveTenantPermissions(ac.TenantMembership)

	assert.NoError(t, ac.RequireTenantRole(models.TenantRoleManager))
	assert.NoError(t, ac.RequirePermission(auth.PermBillingRead))
	assert.ErrorIs(t, ac.RequirePermission(auth.PermBillingManage), apperrors.ErrInsufficientPermissions)
}

func TestPartnerGuards(t *testing.T) {
	ac := &Context{
		User:               &models.User{BaseModel: models.BaseModel{ID: "user-1"}},
		Partner:            &models.Partner{BaseModel: models.BaseModel{ID: "partner-1"}},
		PartnerRole:        models.PartnerRoleViewer,
		PartnerPermissions: auth.ResolvePartnerPermissions(models.PartnerRoleViewer),
	}

	assert.NoError(t, ac.RequirePartner())
	assert.NoError(t, ac.EnforcePartnerScope("partner-1"))
	assert.ErrorIs(t, ac.EnforcePartnerScope("partner-2"), apperrors.ErrCrossPartnerAccess)
	assert.ErrorIs(t, ac.RequirePartnerRole(models.PartnerRoleAdmin), apperrors.ErrInsufficientPermissions)
	assert.ErrorIs(t, ac.RequirePartnerPermission(auth.PermSubscriptionsManage), apperrors.ErrInsufficientPermissions)
	assert.ErrorIs(t, ac.RequireTenant(), apperrors.ErrTenantAccessRequired)
}

func TestContextRoundTrip(t *testing.T) {
	ac := tenantContext(models.TenantRoleUser)
	got, ok := FromContext(NewContext(context.Background(), ac))
	assert.True(t, ok)
	assert.Same(t, ac, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
