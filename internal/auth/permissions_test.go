package auth

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"saas_backend/internal/models"
)

func TestResolveTenantPermissions_BuiltinRole(t *testing.T) {
	perms := ResolveTenantPermissions(&models.TenantUser{Role: models.TenantRoleUser})
	assert.Equal(t, []string{PermContentRead, PermContentWrite}, perms)
}

func TestResolveTenantPermissions_CustomRoleAndOverrides(t *testing.T) {
	m := &models.TenantUser{
		Role:               models.TenantRoleUser,
		CustomRole:         &models.Role{Name: "billing", Permissions: pq.StringArray{PermBillingRead, PermBillingManage}},
		GrantedPermissions: pq.StringArray{PermMembersRead},
		RevokedPermissions: pq.StringArray{PermBillingManage},
	}

	perms := ResolveTenantPermissions(m)

	assert.Equal(t, []string{PermBillingRead, PermMembersRead}, perms)
	assert.False(t, HasPermission(perms, PermContentRead), "custom role replaces the built-in base")
}

func TestCoversTenantRole(t *testing.T) {
	admin := TenantRolePermissions[models.TenantRoleAdmin]
	assert.True(t, CoversTenantRole(admin, models.TenantRoleManager))
	assert.False(t, CoversTenantRole(TenantRolePermissions[models.TenantRoleUser], models.TenantRoleManager))
	assert.False(t, CoversTenantRole(admin, models.TenantRole("unknown")))
}

func TestResolvePartnerPermissions(t *testing.T) {
	perms := ResolvePartnerPermissions(models.PartnerRoleViewer)
	assert.True(t, HasPermission(perms, PermTenantsRead))
	assert.False(t, HasPermission(perms, PermSubscriptionsManage))
}
