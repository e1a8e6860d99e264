package services

import (
	"context"
	"errors"
	"time"

	"saas_backend/internal/logger"
	"saas_backend/internal/metrics"
	"saas_backend/internal/models"
)

const defaultRolloverBatch = 200

// Исходы обработки одной подписки на границе периода
const (
	RolloverPlanChanged    = "plan_changed"
	RolloverCancelled      = "cancelled"
	RolloverTrialConverted = "trial_converted"
	RolloverTrialExpired   = "trial_expired"
	RolloverRenewed        = "renewed"
	RolloverSkipped        = "skipped"
	RolloverFailed         = "failed"
)

// RolloverFailure - подписка, которую не удалось обработать
type RolloverFailure struct {
	SubscriptionID string `json:"subscription_id"`
	Error          string `json:"error"`
}

// RolloverReport - итог одного прогона ProcessScheduledChanges
type RolloverReport struct {
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Scanned    int               `json:"scanned"`
	Outcomes   map[string]int    `json:"outcomes"`
	Failures   []RolloverFailure `json:"failures,omitempty"`
}

func (r *RolloverReport) count(outcome string) {
	r.Outcomes[outcome]++
	metrics.RecordRollover(outcome)
}

// Applied - сколько подписок изменено
func (r *RolloverReport) Applied() int {
	n := 0
	for outcome, c := range r.Outcomes {
		if outcome != RolloverSkipped && outcome != RolloverFailed {
			n += c
		}
	}
	return n
}

// errNotDue - подписку уже обработал другой прогон
var errNotDue = errors.New("subscription is not due")

// ProcessScheduledChanges обрабатывает live-подписки с истекшим периодом.
// Каждая подписка - отдельная транзакция с блокировкой строки и повторной
// проверкой условия, поэтому прогоны идемпотентны и могут идти параллельно.
// Ошибка одной подписки не прерывает обработку остальных.
func (s *subscriptionLifecycle) ProcessScheduledChanges(ctx context.Context) (*RolloverReport, error) {
	now := s.clock.now()
	report := &RolloverReport{StartedAt: now, Outcomes: map[string]int{}}
	seen := make(map[string]struct{})

	for {
		ids, err := s.store.Subscriptions.ListDueIDs(ctx, now, s.batchSize)
		if err != nil {
			return report, handleRepoError(err)
		}

		fresh := 0
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			fresh++
			report.Scanned++

			outcome, err := s.rollOne(ctx, id, now)
			if err != nil {
				report.count(RolloverFailed)
				report.Failures = append(report.Failures, RolloverFailure{SubscriptionID: id, Error: err.Error()})
				logger.WorkerLog("rollover", "process_subscription", err, "subscription_id", id)
				continue
			}
			report.count(outcome)
		}

		if fresh == 0 || len(ids) < s.batchSize {
			break
		}
	}

	report.FinishedAt = s.clock.now()
	logger.CtxInfo(ctx, "Rollover finished",
		"scanned", report.Scanned,
		"applied", report.Applied(),
		"failed", report.Outcomes[RolloverFailed],
	)
	return report, nil
}

func (s *subscriptionLifecycle) rollOne(ctx context.Context, id string, now time.Time) (outcome string, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.CtxError(ctx, "Rollover panic", "subscription_id", id, "panic", p)
			outcome, err = "", errors.New("rollover panic")
		}
	}()

	var details map[string]interface{}
	after, err := s.mutate(ctx, "rollover", id, func(ctx context.Context, sub *models.Subscription, _ time.Time) (map[string]interface{}, error) {
		if !sub.IsLive() || sub.CurrentPeriodEnd.After(now) {
			return nil, errNotDue
		}
		var err error
		outcome, details, err = s.applyBoundary(ctx, sub, now)
		if err != nil {
			return nil, err
		}
		if details == nil {
			details = map[string]interface{}{}
		}
		details["outcome"] = outcome
		return details, nil
	})
	if errors.Is(err, errNotDue) {
		return RolloverSkipped, nil
	}
	if err != nil {
		return "", err
	}
	logger.CtxDebug(ctx, "Rollover applied", "subscription_id", after.ID, "outcome", outcome)
	return outcome, nil
}

// applyBoundary применяет ровно одну ветку в порядке приоритета:
// отложенная смена плана, отложенная отмена, конец триала, продление.
// Отмена, поставленная вместе со сменой плана, ждет следующей границы.
func (s *subscriptionLifecycle) applyBoundary(ctx context.Context, sub *models.Subscription, now time.Time) (string, map[string]interface{}, error) {
	pending, err := sub.PendingChange()
	if err != nil {
		return "", nil, err
	}

	switch pc := pending.(type) {
	case models.PendingUpgrade:
		return s.applyPlanChange(ctx, sub, pc.PlanID, now)
	case models.PendingDowngrade:
		return s.applyPlanChange(ctx, sub, pc.PlanID, now)
	case models.PendingCancel:
		if !models.CanTransitionOnRollover(sub.Status, models.SubscriptionStatusCancelled) {
			return "", nil, invalidTransition(sub.Status, models.SubscriptionStatusCancelled)
		}
		sub.Status = models.SubscriptionStatusCancelled
		sub.CancelledAt = &now
		sub.CancelReason = pc.Reason
		sub.ClearPendingCancel()
		return RolloverCancelled, map[string]interface{}{"reason": pc.Reason}, nil
	}

	if sub.IsTrial() {
		if sub.PaymentMethodRef != nil && *sub.PaymentMethodRef != "" {
			sub.Status = models.SubscriptionStatusActive
			sub.CurrentPeriodStart = now
			sub.CurrentPeriodEnd = models.AdvancePeriod(now, sub.BillingCycle)
			return RolloverTrialConverted, nil, nil
		}
		sub.Status = models.SubscriptionStatusExpired
		return RolloverTrialExpired, nil, nil
	}

	// продление active: окно сдвигается от старой границы, пока не окажется в будущем
	start, end := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	for !end.After(now) {
		start, end = end, models.AdvancePeriod(end, sub.BillingCycle)
	}
	sub.CurrentPeriodStart, sub.CurrentPeriodEnd = start, end
	return RolloverRenewed, nil, nil
}

func (s *subscriptionLifecycle) applyPlanChange(ctx context.Context, sub *models.Subscription, planID string, now time.Time) (string, map[string]interface{}, error) {
	plan, err := s.store.Plans.FindByID(ctx, planID)
	if err != nil {
		return "", nil, err
	}
	details := map[string]interface{}{"from_plan_id": sub.PlanID, "to_plan": plan.Code, "kind": sub.Pending.Kind}

	sub.PlanID = plan.ID
	sub.ClearPendingPlanChange()
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = models.AdvancePeriod(now, sub.BillingCycle)
	return RolloverPlanChanged, details, nil
}
