package models

// Tenant - организация-клиент. Принадлежит партнеру или платформе (PartnerID == nil).
type Tenant struct {
	BaseModel
	Tombstone
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	Status    OrgStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	PartnerID *string   `gorm:"type:uuid;index" json:"partner_id,omitempty"`
}

// IsActive - тенант не удален и в статусе active
func (t *Tenant) IsActive() bool {
	return t != nil && !t.IsDeleted() && t.Status == OrgStatusActive
}

// Partner - реселлер, владеющий набором тенантов
type Partner struct {
	BaseModel
	Tombstone
	Name   string    `gorm:"not null" json:"name"`
	Slug   string    `gorm:"uniqueIndex;not null" json:"slug"`
	Status OrgStatus `gorm:"type:varchar(20);not null" json:"status"`
}

func (p *Partner) IsActive() bool {
	return p != nil && !p.IsDeleted() && p.Status == OrgStatusActive
}

// PartnerPlan - allow-list планов, которые партнер может продавать
type PartnerPlan struct {
	PartnerID string `gorm:"type:uuid;primaryKey" json:"partner_id"`
	PlanID    string `gorm:"type:uuid;primaryKey" json:"plan_id"`
}
