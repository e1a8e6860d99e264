package models

type UserStatus string
type OrgStatus string
type TenantRole string
type PartnerRole string
type SubscriptionStatus string
type BillingCycle string
type InvoiceStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	// Статусы тенанта и партнера
	OrgStatusPending   OrgStatus = "pending"
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"

	TenantRoleAdmin   TenantRole = "admin"
	TenantRoleManager TenantRole = "manager"
	TenantRoleUser    TenantRole = "user"

	PartnerRoleAdmin   PartnerRole = "admin"
	PartnerRoleManager PartnerRole = "manager"
	PartnerRoleViewer  PartnerRole = "viewer"

	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"

	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"

	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

func (r TenantRole) IsValid() bool {
	switch r {
	case TenantRoleAdmin, TenantRoleManager, TenantRoleUser:
		return true
	}
	return false
}

func (r PartnerRole) IsValid() bool {
	switch r {
	case PartnerRoleAdmin, PartnerRoleManager, PartnerRoleViewer:
		return true
	}
	return false
}

func (c BillingCycle) IsValid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}
