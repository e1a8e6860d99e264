package dto

import (
	"time"

	"saas_backend/internal/authctx"
	"saas_backend/internal/models"
)

// LoginRequest - tenant_id/partner_id выбирают организацию, под которую
// выпускается токен
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	TenantID  string `json:"tenant_id,omitempty" validate:"omitempty,uuid"`
	PartnerID string `json:"partner_id,omitempty" validate:"omitempty,uuid"`
}

// RefreshTokenRequest - запрос обновления токена
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest - запрос выхода
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse - ответ с токенами
type AuthResponse struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	TokenType        string    `json:"token_type"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             UserDTO   `json:"user"`
	Tenant           *OrgDTO   `json:"tenant,omitempty"`
	Partner          *OrgDTO   `json:"partner,omitempty"`
}

// UserDTO - базовая информация о пользователе
type UserDTO struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	Name         string            `json:"name"`
	IsSuperAdmin bool              `json:"is_super_admin"`
	Status       models.UserStatus `json:"status"`
}

// OrgDTO - тенант или партнер в контексте запроса
type OrgDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// MeResponse - результат резолва текущего запроса
type MeResponse struct {
	User     UserDTO  `json:"user"`
	Tenant   *OrgDTO  `json:"tenant,omitempty"`
	Partner  *OrgDTO  `json:"partner,omitempty"`
	PlanCode string   `json:"plan_code,omitempty"`
	Features []string `json:"features,omitempty"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		IsSuperAdmin: u.IsSuperAdmin,
		Status:       u.Status,
	}
}

// TenantDTO/PartnerDTO возвращают nil, если организации нет в контексте
func TenantDTO(ac *authctx.Context) *OrgDTO {
	if ac == nil || ac.Tenant == nil {
		return nil
	}
	return &OrgDTO{
		ID:          ac.Tenant.ID,
		Name:        ac.Tenant.Name,
		Slug:        ac.Tenant.Slug,
		Role:        string(ac.TenantRole),
		Permissions: ac.Permissions,
	}
}

func PartnerDTO(ac *authctx.Context) *OrgDTO {
	if ac == nil || ac.Partner == nil {
		return nil
	}
	return &OrgDTO{
		ID:          ac.Partner.ID,
		Name:        ac.Partner.Name,
		Slug:        ac.Partner.Slug,
		Role:        string(ac.PartnerRole),
		Permissions: ac.PartnerPermissions,
	}
}

func NewMeResponse(ac *authctx.Context) MeResponse {
	return MeResponse{
		User:     NewUserDTO(ac.User),
		Tenant:   TenantDTO(ac),
		Partner:  PartnerDTO(ac),
		PlanCode: ac.Entitlements.PlanCode(),
		Features: ac.Entitlements.FeatureCodes(),
	}
}
