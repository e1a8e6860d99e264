package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"

	"saas_backend/internal/logger"
	"saas_backend/internal/metrics"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
	"saas_backend/pkg/apperrors"
)

// CreateSubscriptionInput - PartnerID пустой для подписок платформы
type CreateSubscriptionInput struct {
	TenantID         string
	PlanID           string
	PartnerID        string
	BillingCycle     models.BillingCycle
	PaymentMethodRef string
}

// PlanChangeResult - итог апгрейда/даунгрейда
type PlanChangeResult struct {
	Subscription *models.Subscription `json:"subscription"`
	Staged       bool                 `json:"staged"`
	Proration    *Proration           `json:"proration,omitempty"`
	Invoice      *models.Invoice      `json:"invoice,omitempty"`
}

// SubscriptionLifecycle - единственная точка записи подписок.
// Каждая мутация выполняется в одной транзакции с блокировкой строки.
type SubscriptionLifecycle interface {
	CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*models.Subscription, error)
	UpgradePlan(ctx context.Context, subscriptionID, newPlanID string, immediate bool) (*PlanChangeResult, error)
	DowngradePlan(ctx context.Context, subscriptionID, newPlanID string) (*PlanChangeResult, error)
	CancelSubscription(ctx context.Context, subscriptionID, reason string, immediate bool) (*models.Subscription, error)
	ReactivateSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	SuspendSubscription(ctx context.Context, subscriptionID, reason string) (*models.Subscription, error)
	ConfirmPayment(ctx context.Context, invoiceID, paymentMethodRef string) (*models.Invoice, error)

	GetSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error)
	GetCurrentForTenant(ctx context.Context, tenantID string) (*models.Subscription, error)
	ListInvoices(ctx context.Context, subscriptionID string) ([]models.Invoice, error)
	ListEvents(ctx context.Context, subscriptionID string) ([]models.SubscriptionEvent, error)

	ProcessScheduledChanges(ctx context.Context) (*RolloverReport, error)
}

type subscriptionLifecycle struct {
	store        *repositories.Store
	entitlements EntitlementResolver
	audit        AuditLogger
	clock        Clock
	batchSize    int
}

func NewSubscriptionLifecycle(store *repositories.Store, ents EntitlementResolver, audit AuditLogger, clock Clock) SubscriptionLifecycle {
	if audit == nil {
		audit = NewSlogAuditLogger()
	}
	return &subscriptionLifecycle{
		store:        store,
		entitlements: ents,
		audit:        audit,
		clock:        clock,
		batchSize:    defaultRolloverBatch,
	}
}

// --- Create ---

func (s *subscriptionLifecycle) CreateSubscription(ctx context.Context, in CreateSubscriptionInput) (*models.Subscription, error) {
	if !in.BillingCycle.IsValid() {
		return nil, apperrors.ValidationError(map[string]string{"billing_cycle": "Must be one of: monthly, yearly"})
	}

	var created *models.Subscription
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		tenant, err := s.store.Tenants.FindByIDForUpdate(ctx, in.TenantID)
		if err != nil {
			return err
		}
		if !tenant.IsActive() {
			return apperrors.NewInvalidStateError("tenant", "Tenant is not active")
		}

		plan, err := s.store.Plans.FindByID(ctx, in.PlanID)
		if err != nil {
			return err
		}
		if !plan.IsActive {
			return apperrors.NewInvalidStateError("plan", "Plan is not active")
		}

		partnerID, err := s.resolvePartner(ctx, tenant, in.PartnerID, plan.ID)
		if err != nil {
			return err
		}

		live, err := s.store.Subscriptions.CountLiveByTenant(ctx, tenant.ID, "")
		if err != nil {
			return err
		}
		if live > 0 {
			return apperrors.ErrLiveSubscriptionExists
		}

		now := s.clock.now()
		sub := &models.Subscription{
			TenantID:           tenant.ID,
			PlanID:             plan.ID,
			PartnerID:          partnerID,
			BillingCycle:       in.BillingCycle,
			CurrentPeriodStart: now,
			PaymentMethodRef:   optionalString(in.PaymentMethodRef),
		}
		if plan.TrialDays > 0 {
			trialEnd := now.AddDate(0, 0, plan.TrialDays)
			sub.Status = models.SubscriptionStatusTrial
			sub.TrialEndsAt = &trialEnd
			sub.CurrentPeriodEnd = trialEnd
		} else {
			sub.Status = models.SubscriptionStatusActive
			sub.CurrentPeriodEnd = models.AdvancePeriod(now, in.BillingCycle)
		}

		if err := s.store.Subscriptions.Create(ctx, sub); err != nil {
			return err
		}
		created = sub
		return nil
	})

	s.finish(ctx, "create", nil, created, nil, err)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return created, nil
}

// resolvePartner - подписка партнерского тенанта всегда привязана к его
// партнеру, а план должен быть в allow-list партнера
func (s *subscriptionLifecycle) resolvePartner(ctx context.Context, tenant *models.Tenant, requested, planID string) (*string, error) {
	partnerID := requested
	switch {
	case tenant.PartnerID != nil:
		if requested != "" && requested != *tenant.PartnerID {
			return nil, apperrors.ErrCrossPartnerAccess
		}
		partnerID = *tenant.PartnerID
	case requested != "":
		return nil, apperrors.ErrCrossPartnerAccess
	}
	if partnerID == "" {
		return nil, nil
	}

	partner, err := s.store.Partners.FindByID(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !partner.IsActive() {
		return nil, apperrors.NewForbiddenError("Partner is not active")
	}
	if err := s.checkPartnerPlan(ctx, partnerID, planID); err != nil {
		return nil, err
	}
	return &partnerID, nil
}

func (s *subscriptionLifecycle) checkPartnerPlan(ctx context.Context, partnerID, planID string) error {
	allowed, err := s.store.Partners.IsPlanAllowed(ctx, partnerID, planID)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.ErrPlanNotAllowedForPartner
	}
	return nil
}

// --- Plan changes ---

func (s *subscriptionLifecycle) UpgradePlan(ctx context.Context, subscriptionID, newPlanID string, immediate bool) (*PlanChangeResult, error) {
	res := &PlanChangeResult{}
	sub, err := s.mutate(ctx, "upgrade", subscriptionID, func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error) {
		oldPlan, newPlan, err := s.loadPlanChange(ctx, sub, newPlanID)
		if err != nil {
			return nil, err
		}
		details := map[string]interface{}{"from_plan": oldPlan.Code, "to_plan": newPlan.Code}

		// триал не тарифицируется
		if sub.IsTrial() {
			swapPlan(sub, newPlan.ID)
			details["trial"] = true
			return details, nil
		}

		if !immediate {
			sub.SetPendingChange(models.PendingUpgrade{PlanID: newPlan.ID, EffectiveAt: sub.CurrentPeriodEnd})
			res.Staged = true
			details["effective_at"] = sub.CurrentPeriodEnd
			return details, nil
		}

		p := ComputeProration(oldPlan.MonthlyPrice, newPlan.MonthlyPrice, sub.CurrentPeriodEnd, now)
		swapPlan(sub, newPlan.ID)
		record := p.Metadata()
		record["from_plan"] = oldPlan.Code
		record["to_plan"] = newPlan.Code

		if p.Chargeable() {
			inv := &models.Invoice{
				Number:         newInvoiceNumber(now),
				SubscriptionID: sub.ID,
				TenantID:       sub.TenantID,
				Amount:         p.Amount,
				Currency:       newPlan.Currency,
				Status:         models.InvoiceStatusPending,
				Description:    fmt.Sprintf("Proration %s -> %s, %d days", oldPlan.Code, newPlan.Code, p.RemainingDays),
				Metadata:       datatypes.JSONMap(p.Metadata()),
			}
			if err := s.store.Invoices.Create(ctx, inv); err != nil {
				return nil, err
			}
			record["invoice_id"] = inv.ID
			res.Invoice = inv
		}
		setMetadata(sub, "last_proration", record)

		res.Proration = &p
		details["proration"] = record
		return details, nil
	})
	if err != nil {
		return nil, err
	}
	res.Subscription = sub
	return res, nil
}

func (s *subscriptionLifecycle) DowngradePlan(ctx context.Context, subscriptionID, newPlanID string) (*PlanChangeResult, error) {
	res := &PlanChangeResult{}
	sub, err := s.mutate(ctx, "downgrade", subscriptionID, func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error) {
		oldPlan, newPlan, err := s.loadPlanChange(ctx, sub, newPlanID)
		if err != nil {
			return nil, err
		}
		details := map[string]interface{}{"from_plan": oldPlan.Code, "to_plan": newPlan.Code}

		if sub.IsTrial() {
			swapPlan(sub, newPlan.ID)
			details["trial"] = true
			return details, nil
		}

		sub.SetPendingChange(models.PendingDowngrade{PlanID: newPlan.ID, EffectiveAt: sub.CurrentPeriodEnd})
		res.Staged = true
		details["effective_at"] = sub.CurrentPeriodEnd
		return details, nil
	})
	if err != nil {
		return nil, err
	}
	res.Subscription = sub
	return res, nil
}

func (s *subscriptionLifecycle) loadPlanChange(ctx context.Context, sub *models.Subscription, newPlanID string) (*models.Plan, *models.Plan, error) {
	if !sub.IsLive() {
		return nil, nil, apperrors.ErrInvalidTransition.WithMessage("Plan can only be changed on a trial or active subscription")
	}
	if sub.PlanID == newPlanID {
		return nil, nil, apperrors.NewInvalidStateError("subscription", "Subscription is already on this plan")
	}

	oldPlan, err := s.store.Plans.FindByID(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	newPlan, err := s.store.Plans.FindByID(ctx, newPlanID)
	if err != nil {
		return nil, nil, err
	}
	if !newPlan.IsActive {
		return nil, nil, apperrors.NewInvalidStateError("plan", "Plan is not active")
	}
	if sub.PartnerID != nil {
		if err := s.checkPartnerPlan(ctx, *sub.PartnerID, newPlan.ID); err != nil {
			return nil, nil, err
		}
	}
	return oldPlan, newPlan, nil
}

// swapPlan меняет план сразу. Отложенная смена плана теряет смысл,
// отложенная отмена остается.
func swapPlan(sub *models.Subscription, planID string) {
	sub.PlanID = planID
	sub.ClearPendingPlanChange()
}

// --- Status changes ---

func (s *subscriptionLifecycle) CancelSubscription(ctx context.Context, subscriptionID, reason string, immediate bool) (*models.Subscription, error) {
	return s.mutate(ctx, "cancel", subscriptionID, func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error) {
		if !immediate {
			if !sub.IsLive() {
				return nil, invalidTransition(sub.Status, models.SubscriptionStatusCancelled)
			}
			sub.SetPendingChange(models.PendingCancel{Reason: reason, EffectiveAt: sub.CurrentPeriodEnd})
			return map[string]interface{}{"at_period_end": true, "reason": reason}, nil
		}

		if !models.CanTransition(sub.Status, models.SubscriptionStatusCancelled) {
			return nil, invalidTransition(sub.Status, models.SubscriptionStatusCancelled)
		}
		sub.Status = models.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.CancelReason = reason
		sub.ClearPendingChange()
		return map[string]interface{}{"reason": reason}, nil
	})
}

func (s *subscriptionLifecycle) ReactivateSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	return s.mutate(ctx, "reactivate", subscriptionID, func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error) {
		if !models.CanTransition(sub.Status, models.SubscriptionStatusActive) {
			return nil, invalidTransition(sub.Status, models.SubscriptionStatusActive)
		}

		// тенант блокируется до проверки live-подписок, как и в CreateSubscription
		tenant, err := s.store.Tenants.FindByIDForUpdate(ctx, sub.TenantID)
		if err != nil {
			return nil, err
		}
		live, err := s.store.Subscriptions.CountLiveByTenant(ctx, sub.TenantID, sub.ID)
		if err != nil {
			return nil, err
		}
		if live > 0 {
			return nil, apperrors.ErrLiveSubscriptionExists
		}

		details := map[string]interface{}{"from_status": sub.Status}
		if tenant.Status == models.OrgStatusSuspended {
			if err := s.store.Tenants.UpdateStatus(ctx, tenant.ID, models.OrgStatusActive); err != nil {
				return nil, err
			}
			details["tenant_reactivated"] = true
		}

		sub.Status = models.SubscriptionStatusActive
		sub.CancelledAt = nil
		sub.CancelReason = ""
		sub.SuspendedAt = nil
		sub.SuspendReason = ""
		sub.TrialEndsAt = nil
		sub.ClearPendingChange()
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = models.AdvancePeriod(now, sub.BillingCycle)
		return details, nil
	})
}

func (s *subscriptionLifecycle) SuspendSubscription(ctx context.Context, subscriptionID, reason string) (*models.Subscription, error) {
	return s.mutate(ctx, "suspend", subscriptionID, func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error) {
		if !models.CanTransition(sub.Status, models.SubscriptionStatusSuspended) {
			return nil, invalidTransition(sub.Status, models.SubscriptionStatusSuspended)
		}
		sub.Status = models.SubscriptionStatusSuspended
		sub.SuspendedAt = &now
		sub.SuspendReason = reason
		sub.ClearPendingChange()

		if err := s.store.Tenants.UpdateStatus(ctx, sub.TenantID, models.OrgStatusSuspended); err != nil {
			return nil, err
		}
		return map[string]interface{}{"reason": reason, "tenant_suspended": true}, nil
	})
}

// --- Payments ---

func (s *subscriptionLifecycle) ConfirmPayment(ctx context.Context, invoiceID, paymentMethodRef string) (*models.Invoice, error) {
	var (
		paid          *models.Invoice
		before, after *models.Subscription
	)
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		inv, err := s.store.Invoices.FindByIDForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != models.InvoiceStatusPending {
			return apperrors.ErrInvoiceNotPending
		}

		sub, err := s.store.Subscriptions.FindByIDForUpdate(ctx, inv.SubscriptionID)
		if err != nil {
			return err
		}
		before = sub.Clone()

		now := s.clock.now()
		inv.Status = models.InvoiceStatusPaid
		inv.PaidAt = &now
		inv.PaymentMethodRef = optionalString(paymentMethodRef)
		if err := s.store.Invoices.Update(ctx, inv); err != nil {
			return err
		}

		if paymentMethodRef != "" {
			sub.PaymentMethodRef = optionalString(paymentMethodRef)
			if err := s.store.Subscriptions.Update(ctx, sub); err != nil {
				return err
			}
		}
		paid, after = inv, sub
		return nil
	})

	s.finish(ctx, "confirm_payment", before, after, map[string]interface{}{"invoice_id": invoiceID}, err)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return paid, nil
}

// --- Reads ---

func (s *subscriptionLifecycle) GetSubscription(ctx context.Context, subscriptionID string) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions.FindByID(ctx, subscriptionID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return sub, nil
}

func (s *subscriptionLifecycle) GetCurrentForTenant(ctx context.Context, tenantID string) (*models.Subscription, error) {
	sub, err := s.store.Subscriptions.FindLiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return sub, nil
}

func (s *subscriptionLifecycle) ListInvoices(ctx context.Context, subscriptionID string) ([]models.Invoice, error) {
	invoices, err := s.store.Invoices.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return invoices, nil
}

// ListEvents - журнал аудита подписки
func (s *subscriptionLifecycle) ListEvents(ctx context.Context, subscriptionID string) ([]models.SubscriptionEvent, error) {
	if _, err := s.store.Subscriptions.FindByID(ctx, subscriptionID); err != nil {
		return nil, handleRepoError(err)
	}
	events, err := s.store.Events.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return events, nil
}

// --- helpers ---

type mutation func(ctx context.Context, sub *models.Subscription, now time.Time) (map[string]interface{}, error)

// mutate блокирует подписку, применяет fn и сохраняет результат в одной
// транзакции. Аудит и сброс кэша фич - после коммита.
func (s *subscriptionLifecycle) mutate(ctx context.Context, op, subscriptionID string, fn mutation) (*models.Subscription, error) {
	var (
		before, after *models.Subscription
		details       map[string]interface{}
	)
	err := s.store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		sub, err := s.store.Subscriptions.FindByIDForUpdate(ctx, subscriptionID)
		if err != nil {
			return err
		}
		before = sub.Clone()

		details, err = fn(ctx, sub, s.clock.now())
		if err != nil {
			return err
		}
		if err := s.store.Subscriptions.Update(ctx, sub); err != nil {
			return err
		}
		after = sub
		return nil
	})

	s.finish(ctx, op, before, after, details, err)
	if err != nil {
		return nil, handleRepoError(err)
	}
	return after, nil
}

func (s *subscriptionLifecycle) finish(ctx context.Context, op string, before, after *models.Subscription, details map[string]interface{}, err error) {
	if errors.Is(err, errNotDue) {
		return
	}
	if err != nil {
		mapped := handleRepoError(err)
		code := ""
		if appErr, ok := apperrors.AsAppError(mapped); ok {
			code = string(appErr.Code)
		}
		metrics.RecordOperation(op, mapped, code)
		logger.CtxDebug(ctx, "Subscription operation rejected", "operation", op, "error", mapped.Error())
		return
	}
	metrics.RecordOperation(op, nil, "")

	if after == nil {
		return
	}
	if s.entitlements != nil {
		s.entitlements.Invalidate(ctx, after.TenantID)
	}
	s.audit.Record(ctx, AuditEntry{
		Operation:      op,
		SubscriptionID: after.ID,
		TenantID:       after.TenantID,
		Actor:          actorFromContext(ctx),
		Before:         before,
		After:          after.Clone(),
		Details:        details,
		At:             s.clock.now(),
	})
}

func invalidTransition(from, to models.SubscriptionStatus) error {
	return apperrors.ErrInvalidTransition.WithDetails(map[string]string{
		"from": string(from),
		"to":   string(to),
	})
}

func setMetadata(sub *models.Subscription, key string, value interface{}) {
	if sub.Metadata == nil {
		sub.Metadata = datatypes.JSONMap{}
	}
	sub.Metadata[key] = value
}

func newInvoiceNumber(now time.Time) string {
	return "INV-" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
