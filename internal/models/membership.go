package models

import "github.com/lib/pq"

// Role - кастомная роль тенанта со списком прав
type Role struct {
	BaseModel
	TenantID    *string        `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Name        string         `gorm:"not null" json:"name"`
	Permissions pq.StringArray `gorm:"type:text[]" json:"permissions"`
}

// TenantUser - членство пользователя в тенанте.
// На тенант не больше одного IsOwner (частичный уникальный индекс).
type TenantUser struct {
	BaseModel
	TenantID           string         `gorm:"type:uuid;not null;uniqueIndex:ux_tenant_users_tenant_user,priority:1" json:"tenant_id"`
	UserID             string         `gorm:"type:uuid;not null;uniqueIndex:ux_tenant_users_tenant_user,priority:2;index" json:"user_id"`
	Role               TenantRole     `gorm:"type:varchar(20);not null" json:"role"`
	RoleID             *string        `gorm:"type:uuid" json:"role_id,omitempty"`
	IsOwner            bool           `gorm:"not null" json:"is_owner"`
	GrantedPermissions pq.StringArray `gorm:"type:text[]" json:"granted_permissions,omitempty"`
	RevokedPermissions pq.StringArray `gorm:"type:text[]" json:"revoked_permissions,omitempty"`

	// Relations
	Tenant     *Tenant `gorm:"foreignKey:TenantID" json:"-"`
	CustomRole *Role   `gorm:"foreignKey:RoleID" json:"-"`
}

// PartnerUser - членство пользователя в партнере
type PartnerUser struct {
	BaseModel
	PartnerID string      `gorm:"type:uuid;not null;uniqueIndex:ux_partner_users_partner_user,priority:1" json:"partner_id"`
	UserID    string      `gorm:"type:uuid;not null;uniqueIndex:ux_partner_users_partner_user,priority:2;index" json:"user_id"`
	Role      PartnerRole `gorm:"type:varchar(20);not null" json:"role"`

	// Relations
	Partner *Partner `gorm:"foreignKey:PartnerID" json:"-"`
}
