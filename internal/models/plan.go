package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Plan struct {
	BaseModel
	Code         string          `gorm:"uniqueIndex;not null" json:"code"`
	Name         string          `gorm:"not null" json:"name"`
	MonthlyPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"monthly_price"`
	YearlyPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"yearly_price"`
	Currency     string          `gorm:"type:varchar(3);not null" json:"currency"`
	TrialDays    int             `gorm:"not null" json:"trial_days"`
	IsActive     bool            `gorm:"not null" json:"is_active"`
	IsPublic     bool            `gorm:"not null" json:"is_public"`
}

// PriceFor - цена за период для цикла оплаты
func (p *Plan) PriceFor(cycle BillingCycle) decimal.Decimal {
	if cycle == BillingCycleYearly {
		return p.YearlyPrice
	}
	return p.MonthlyPrice
}

// Feature - фича каталога. IsEnabled=false выключает ее для всех планов.
type Feature struct {
	BaseModel
	Code        string `gorm:"uniqueIndex;not null" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	IsEnabled   bool   `gorm:"not null" json:"is_enabled"`
	IsCore      bool   `gorm:"not null" json:"is_core"`
}

// PlanFeature - включение фичи в план с опциональными лимитами
type PlanFeature struct {
	BaseModel
	PlanID    string         `gorm:"type:uuid;not null;uniqueIndex:ux_plan_features_plan_feature,priority:1" json:"plan_id"`
	FeatureID string         `gorm:"type:uuid;not null;uniqueIndex:ux_plan_features_plan_feature,priority:2" json:"feature_id"`
	IsEnabled bool           `gorm:"not null" json:"is_enabled"`
	Limits    datatypes.JSON `json:"limits,omitempty"` // {"max_users": 10, "storage_mb": 5000}

	// Relations
	Feature *Feature `gorm:"foreignKey:FeatureID" json:"-"`
}
