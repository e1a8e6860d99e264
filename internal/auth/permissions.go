package auth

import (
	"sort"

	"saas_backend/internal/models"
)

// Права внутри тенанта
const (
	PermMembersRead    = "members:read"
	PermMembersManage  = "members:manage"
	PermBillingRead    = "billing:read"
	PermBillingManage  = "billing:manage"
	PermSettingsManage = "settings:manage"
	PermContentRead    = "content:read"
	PermContentWrite   = "content:write"
)

// Права в консоли партнера
const (
	PermTenantsRead         = "tenants:read"
	PermTenantsManage       = "tenants:manage"
	PermSubscriptionsRead   = "subscriptions:read"
	PermSubscriptionsManage = "subscriptions:manage"
)

// TenantRolePermissions - встроенные роли тенанта
var TenantRolePermissions = map[models.TenantRole][]string{
	models.TenantRoleAdmin: {
		PermMembersRead,
		PermMembersManage,
		PermBillingRead,
		PermBillingManage,
		PermSettingsManage,
		PermContentRead,
		PermContentWrite,
	},
	models.TenantRoleManager: {
		PermMembersRead,
		PermBillingRead,
		PermContentRead,
		PermContentWrite,
	},
	models.TenantRoleUser: {
		PermContentRead,
		PermContentWrite,
	},
}

// PartnerRolePermissions - встроенные роли партнера
var PartnerRolePermissions = map[models.PartnerRole][]string{
	models.PartnerRoleAdmin: {
		PermTenantsRead,
		PermTenantsManage,
		PermSubscriptionsRead,
		PermSubscriptionsManage,
	},
	models.PartnerRoleManager: {
		PermTenantsRead,
		PermSubscriptionsRead,
		PermSubscriptionsManage,
	},
	models.PartnerRoleViewer: {
		PermTenantsRead,
		PermSubscriptionsRead,
	},
}

// ResolveTenantPermissions собирает права членства: база из кастомной роли
// (если есть) или встроенной, затем granted/revoked переопределения тенанта.
func ResolveTenantPermissions(m *models.TenantUser) []string {
	if m == nil {
		return nil
	}

	var base []string
	if m.CustomRole != nil {
		base = m.CustomRole.Permissions
	} else {
		base = TenantRolePermissions[m.Role]
	}

	set := make(map[string]struct{}, len(base)+len(m.GrantedPermissions))
	for _, p := range base {
		set[p] = struct{}{}
	}
	for _, p := range m.GrantedPermissions {
		set[p] = struct{}{}
	}
	for _, p := range m.RevokedPermissions {
		delete(set, p)
	}
	return sortedKeys(set)
}

// ResolvePartnerPermissions - права встроенной роли партнера
func ResolvePartnerPermissions(role models.PartnerRole) []string {
	perms := append([]string(nil), PartnerRolePermissions[role]...)
	sort.Strings(perms)
	return perms
}

// HasPermission проверяет наличие права в списке
func HasPermission(perms []string, permission string) bool {
	for _, p := range perms {
		if p == permission {
			return true
		}
	}
	return false
}

// CoversTenantRole - список прав включает все права встроенной роли.
// Так кастомная роль удовлетворяет требованию встроенной.
func CoversTenantRole(perms []string, role models.TenantRole) bool {
	return coversAll(perms, TenantRolePermissions[role])
}

func CoversPartnerRole(perms []string, role models.PartnerRole) bool {
	return coversAll(perms, PartnerRolePermissions[role])
}

func coversAll(perms, required []string) bool {
	if len(required) == 0 {
		return false
	}
	for _, r := range required {
		if !HasPermission(perms, r) {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
