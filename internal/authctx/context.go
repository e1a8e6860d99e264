// Package authctx - результат резолва запроса: пользователь, активный
// тенант/партнер, роли, права и снапшот фич. Проверки доступа - чистые
// функции над Context.
package authctx

import (
	"context"

	"saas_backend/internal/auth"
	"saas_backend/internal/entitlements"
	"saas_backend/internal/models"
	"saas_backend/pkg/apperrors"
	"saas_backend/pkg/contextkeys"
)

// Context собирается один раз на запрос. Tenant и Partner заполнены только
// при активном членстве в активной организации.
type Context struct {
	User *models.User

	Tenant           *models.Tenant
	TenantMembership *models.TenantUser
	TenantRole       models.TenantRole
	Permissions      []string

	Partner            *models.Partner
	PartnerRole        models.PartnerRole
	PartnerPermissions []string

	Entitlements *entitlements.Snapshot
}

type ctxKey struct{}

// NewContext кладет Context в context.Context
func NewContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, ac)
}

// FromContext достает Context из context.Context
func FromContext(ctx context.Context) (*Context, bool) {
	if ctx == nil {
		return nil, false
	}
	ac, ok := ctx.Value(ctxKey{}).(*Context)
	return ac, ok && ac != nil
}

// GinKey - ключ в gin.Context
const GinKey = contextkeys.AuthContextKey

func (c *Context) UserID() string {
	if c == nil || c.User == nil {
		return ""
	}
	return c.User.ID
}

func (c *Context) TenantID() string {
	if c == nil || c.Tenant == nil {
		return ""
	}
	return c.Tenant.ID
}

func (c *Context) PartnerID() string {
	if c == nil || c.Partner == nil {
		return ""
	}
	return c.Partner.ID
}

func (c *Context) IsSuperAdmin() bool {
	return c != nil && c.User != nil && c.User.IsSuperAdmin
}

// HasTenant / HasPartner - есть ли активная организация в контексте
func (c *Context) HasTenant() bool {
	return c != nil && c.Tenant != nil
}

func (c *Context) HasPartner() bool {
	return c != nil && c.Partner != nil
}

// RequireAuthenticated - есть пользователь
func (c *Context) RequireAuthenticated() error {
	if c == nil || c.User == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// RequireTenant - в контексте есть активный тенант
func (c *Context) RequireTenant() error {
	if err := c.RequireAuthenticated(); err != nil {
		return err
	}
	if !c.HasTenant() {
		return apperrors.ErrTenantAccessRequired
	}
	return nil
}

// RequirePartner - в контексте есть активный партнер
func (c *Context) RequirePartner() error {
	if err := c.RequireAuthenticated(); err != nil {
		return err
	}
	if !c.HasPartner() {
		return apperrors.ErrPartnerAccessRequired
	}
	return nil
}

// RequireSuperAdmin - платформенный администратор
func (c *Context) RequireSuperAdmin() error {
	if err := c.RequireAuthenticated(); err != nil {
		return err
	}
	if !c.IsSuperAdmin() {
		return apperrors.ErrInsufficientPermissions
	}
	return nil
}

// EnforceTenantScope - адресуемый тенант совпадает с активным.
// Пустой id означает, что запрос тенант не адресует. Супер-админ проходит.
func (c *Context) EnforceTenantScope(tenantID string) error {
	if tenantID == "" || c.IsSuperAdmin() {
		return nil
	}
	if err := c.RequireTenant(); err != nil {
		return err
	}
	if c.Tenant.ID != tenantID {
		return apperrors.ErrCrossTenantAccess
	}
	return nil
}

// EnforcePartnerScope - адресуемый партнер совпадает с активным
func (c *Context) EnforcePartnerScope(partnerID string) error {
	if partnerID == "" || c.IsSuperAdmin() {
		return nil
	}
	if err := c.RequirePartner(); err != nil {
		return err
	}
	if c.Partner.ID != partnerID {
		return apperrors.ErrCrossPartnerAccess
	}
	return nil
}

// RequireFeature - фича есть в снапшоте тенанта. Роль не важна.
func (c *Context) RequireFeature(code string) error {
	if err := c.RequireTenant(); err != nil {
		return err
	}
	if !c.Entitlements.Has(code) {
		return apperrors.ErrFeatureNotEnabled.WithDetails(map[string]string{"feature": code})
	}
	return nil
}

// RequireTenantRole проходит, если роль совпадает с одной из roles или
// права членства (например, кастомной роли) покрывают ее.
func (c *Context) RequireTenantRole(roles ...models.TenantRole) error {
	if err := c.RequireTenant(); err != nil {
		return err
	}
	for _, role := range roles {
		if c.TenantRole == role || auth.CoversTenantRole(c.Permissions, role) {
			return nil
		}
	}
	return apperrors.ErrInsufficientPermissions
}

// RequirePartnerRole - аналогично для партнера
func (c *Context) RequirePartnerRole(roles ...models.PartnerRole) error {
	if err := c.RequirePartner(); err != nil {
		return err
	}
	for _, role := range roles {
		if c.PartnerRole == role || auth.CoversPartnerRole(c.PartnerPermissions, role) {
			return nil
		}
	}
	return apperrors.ErrInsufficientPermissions
}

// RequirePermission - право тенанта
func (c *Context) RequirePermission(permission string) error {
	if err := c.RequireTenant(); err != nil {
		return err
	}
	if !auth.HasPermission(c.Permissions, permission) {
		return apperrors.ErrInsufficientPermissions.WithDetails(map[string]string{"permission": permission})
	}
	return nil
}

// RequirePartnerPermission - право в консоли партнера
func (c *Context) RequirePartnerPermission(permission string) error {
	if err := c.RequirePartner(); err != nil {
		return err
	}
	if !auth.HasPermission(c.PartnerPermissions, permission) {
		return apperrors.ErrInsufficientPermissions.WithDetails(map[string]string{"permission": permission})
	}
	return nil
}
