package services

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

const systemActor = "system"

// AuditEntry - запись об изменении подписки: снимки до и после
type AuditEntry struct {
	Operation      string
	SubscriptionID string
	TenantID       string
	Actor          string
	Before         *models.Subscription
	After          *models.Subscription
	Details        map[string]interface{}
	At             time.Time
}

// AuditLogger получает запись после коммита транзакции
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

type slogAuditLogger struct{}

// NewSlogAuditLogger пишет аудит в структурированный лог
func NewSlogAuditLogger() AuditLogger {
	return slogAuditLogger{}
}

func (slogAuditLogger) Record(ctx context.Context, e AuditEntry) {
	args := []any{
		"operation", e.Operation,
		"subscription_id", e.SubscriptionID,
		"tenant_id", e.TenantID,
		"actor", e.Actor,
		"at", e.At,
	}
	if e.Before != nil {
		args = append(args, "before", auditSnapshot(e.Before))
	}
	if e.After != nil {
		args = append(args, "after", auditSnapshot(e.After))
	}
	if len(e.Details) > 0 {
		args = append(args, "details", e.Details)
	}
	logger.CtxInfo(ctx, "subscription audit", args...)
}

type storeAuditLogger struct {
	events repositories.SubscriptionEventRepository
	log    AuditLogger
}

// NewStoreAuditLogger сохраняет записи в журнал subscription_events и
// дублирует их в лог. Ошибка записи не отменяет уже закоммиченную операцию.
func NewStoreAuditLogger(events repositories.SubscriptionEventRepository) AuditLogger {
	return &storeAuditLogger{events: events, log: NewSlogAuditLogger()}
}

func (a *storeAuditLogger) Record(ctx context.Context, e AuditEntry) {
	a.log.Record(ctx, e)

	event := &models.SubscriptionEvent{
		SubscriptionID: e.SubscriptionID,
		TenantID:       e.TenantID,
		Operation:      e.Operation,
		Actor:          e.Actor,
		Before:         auditJSON(ctx, e.Before),
		After:          auditJSON(ctx, e.After),
		CreatedAt:      e.At,
	}
	if len(e.Details) > 0 {
		event.Details = toJSON(ctx, e.Details)
	}
	if err := a.events.Create(ctx, event); err != nil {
		logger.CtxWithError(ctx, "Failed to persist subscription event", err,
			"operation", e.Operation,
			"subscription_id", e.SubscriptionID,
		)
	}
}

func auditJSON(ctx context.Context, s *models.Subscription) datatypes.JSON {
	if s == nil {
		return nil
	}
	return toJSON(ctx, auditSnapshot(s))
}

func toJSON(ctx context.Context, v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		logger.CtxWarn(ctx, "Audit payload is not serializable", "error", err.Error())
		return nil
	}
	return datatypes.JSON(raw)
}

func auditSnapshot(s *models.Subscription) map[string]interface{} {
	snap := map[string]interface{}{
		"status":               s.Status,
		"plan_id":              s.PlanID,
		"billing_cycle":        s.BillingCycle,
		"current_period_start": s.CurrentPeriodStart,
		"current_period_end":   s.CurrentPeriodEnd,
	}
	if !s.Pending.IsZero() {
		snap["pending_kind"] = s.Pending.Kind
	}
	if s.CancelAtPeriodEnd {
		snap["cancel_at_period_end"] = true
	}
	return snap
}

// actorFromContext - пользователь запроса или system для фоновых задач
func actorFromContext(ctx context.Context) string {
	if ac, ok := authctx.FromContext(ctx); ok && ac.UserID() != "" {
		return ac.UserID()
	}
	return systemActor
}
