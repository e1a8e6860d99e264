package dto

import "saas_backend/internal/models"

// CreateSubscriptionRequest - partner_id задается только маршрутом партнера
type CreateSubscriptionRequest struct {
	TenantID         string              `json:"tenant_id" validate:"required,uuid"`
	PlanID           string              `json:"plan_id" validate:"required,uuid"`
	BillingCycle     models.BillingCycle `json:"billing_cycle" validate:"required,is-billing-cycle"`
	PaymentMethodRef string              `json:"payment_method_ref,omitempty" validate:"omitempty,max=255"`
}

type ChangePlanRequest struct {
	PlanID    string `json:"plan_id" validate:"required,uuid"`
	Immediate bool   `json:"immediate"`
}

type CancelSubscriptionRequest struct {
	Reason    string `json:"reason" validate:"max=500"`
	Immediate bool   `json:"immediate"`
}

type SuspendSubscriptionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ConfirmPaymentRequest struct {
	PaymentMethodRef string `json:"payment_method_ref" validate:"required,max=255"`
}

type SetFeatureEnabledRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type TransferOwnershipRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

type AllowPlanRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid"`
}
