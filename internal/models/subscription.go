package models

import (
	"time"

	"gorm.io/datatypes"
)

// Subscription - подписка тенанта на план.
// Live-подписка (trial/active) у тенанта не больше одной.
type Subscription struct {
	BaseModel
	TenantID            string              `gorm:"type:uuid;not null;index" json:"tenant_id"`
	PlanID              string              `gorm:"type:uuid;not null;index" json:"plan_id"`
	PartnerID           *string             `gorm:"type:uuid;index" json:"partner_id,omitempty"`
	Status              SubscriptionStatus  `gorm:"type:varchar(20);not null;index" json:"status"`
	BillingCycle        BillingCycle        `gorm:"type:varchar(20);not null" json:"billing_cycle"`
	CurrentPeriodStart  time.Time           `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd    time.Time           `gorm:"not null;index" json:"current_period_end"`
	TrialEndsAt         *time.Time          `json:"trial_ends_at,omitempty"`
	CancelledAt         *time.Time          `json:"cancelled_at,omitempty"`
	CancelReason        string              `json:"cancel_reason,omitempty"`
	SuspendedAt         *time.Time          `json:"suspended_at,omitempty"`
	SuspendReason       string              `json:"suspend_reason,omitempty"`
	PaymentMethodRef    *string             `json:"payment_method_ref,omitempty"`
	Pending             PendingChangeRecord `gorm:"embedded;embeddedPrefix:pending_" json:"pending_change,omitempty"`
	CancelAtPeriodEnd   bool                `gorm:"not null;default:false" json:"cancel_at_period_end"`
	PendingCancelReason string              `json:"pending_cancel_reason,omitempty"`
	Metadata            datatypes.JSONMap   `json:"metadata,omitempty"`
}

// IsLive - trial или active
func (s *Subscription) IsLive() bool {
	return s.Status.IsLive()
}

// IsTrial - подписка в пробном периоде
func (s *Subscription) IsTrial() bool {
	return s.Status == SubscriptionStatusTrial
}

// Clone - копия для аудита (before/after)
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	cp.TrialEndsAt = cloneTime(s.TrialEndsAt)
	cp.CancelledAt = cloneTime(s.CancelledAt)
	cp.SuspendedAt = cloneTime(s.SuspendedAt)
	cp.PaymentMethodRef = cloneString(s.PaymentMethodRef)
	cp.PartnerID = cloneString(s.PartnerID)
	cp.Pending.PlanID = cloneString(s.Pending.PlanID)
	cp.Pending.EffectiveAt = cloneTime(s.Pending.EffectiveAt)
	if s.Metadata != nil {
		cp.Metadata = make(datatypes.JSONMap, len(s.Metadata))
		for k, v := range s.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// AdvancePeriod сдвигает окно на один цикл оплаты
func AdvancePeriod(from time.Time, cycle BillingCycle) time.Time {
	if cycle == BillingCycleYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
