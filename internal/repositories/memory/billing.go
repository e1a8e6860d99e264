package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type subscriptionRepo struct {
	db *DB
}

// checkLive эмулирует частичный уникальный индекс по live подпискам
func (r *subscriptionRepo) checkLive(sub *models.Subscription) error {
	if !sub.IsLive() {
		return nil
	}
	for id, other := range r.db.data.subs {
		if id != sub.ID && other.TenantID == sub.TenantID && other.IsLive() {
			return repositories.ErrLiveSubscriptionExists
		}
	}
	return nil
}

func (r *subscriptionRepo) Create(_ context.Context, sub *models.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if err := r.checkLive(sub); err != nil {
		return err
	}
	r.db.stamp(&sub.BaseModel)
	r.db.data.subs[sub.ID] = *sub.Clone()
	return nil
}

func (r *subscriptionRepo) FindByID(_ context.Context, id string) (*models.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	sub, ok := r.db.data.subs[id]
	if !ok {
		return nil, repositories.ErrSubscriptionNotFound
	}
	return sub.Clone(), nil
}

func (r *subscriptionRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Subscription, error) {
	return r.FindByID(ctx, id)
}

func (r *subscriptionRepo) byTenant(tenantID string, pred func(models.Subscription) bool) []models.Subscription {
	var out []models.Subscription
	for _, sub := range r.db.data.subs {
		if sub.TenantID == tenantID && pred(sub) {
			out = append(out, *sub.Clone())
		}
	}
	// created_at DESC
	sort.Slice(out, func(i, j int) bool { return r.db.seq[out[i].ID] > r.db.seq[out[j].ID] })
	return out
}

func (r *subscriptionRepo) FindLiveByTenant(_ context.Context, tenantID string) (*models.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	live := r.byTenant(tenantID, func(s models.Subscription) bool { return s.IsLive() })
	if len(live) == 0 {
		return nil, repositories.ErrSubscriptionNotFound
	}
	return &live[0], nil
}

func (r *subscriptionRepo) ListByTenant(_ context.Context, tenantID string) ([]models.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.byTenant(tenantID, func(models.Subscription) bool { return true }), nil
}

func (r *subscriptionRepo) CountLiveByTenant(_ context.Context, tenantID, excludeID string) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	live := r.byTenant(tenantID, func(s models.Subscription) bool { return s.IsLive() && s.ID != excludeID })
	return int64(len(live)), nil
}

func (r *subscriptionRepo) Update(_ context.Context, sub *models.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	existing, ok := r.db.data.subs[sub.ID]
	if !ok {
		return repositories.ErrSubscriptionNotFound
	}
	if err := r.checkLive(sub); err != nil {
		return err
	}
	sub.CreatedAt = existing.CreatedAt
	r.db.touch(&sub.BaseModel)
	r.db.data.subs[sub.ID] = *sub.Clone()
	return nil
}

func (r *subscriptionRepo) ListDueIDs(_ context.Context, now time.Time, limit int) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var due []models.Subscription
	for _, sub := range r.db.data.subs {
		if sub.IsLive() && !sub.CurrentPeriodEnd.After(now) {
			due = append(due, sub)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].CurrentPeriodEnd.Before(due[j].CurrentPeriodEnd) })

	ids := make([]string, 0, len(due))
	for _, sub := range due {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, sub.ID)
	}
	return ids, nil
}

// PutSubscription - тестовый хелпер, записывает подписку в обход проверок
func (d *DB) PutSubscription(sub models.Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seq[sub.ID]; !ok {
		d.stamp(&sub.BaseModel)
	}
	d.data.subs[sub.ID] = *sub.Clone()
}

type invoiceRepo struct {
	db *DB
}

func (r *invoiceRepo) Create(_ context.Context, invoice *models.Invoice) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, inv := range r.db.data.invoices {
		if inv.Number == invoice.Number {
			return repositories.ErrDuplicate
		}
	}
	r.db.stamp(&invoice.BaseModel)
	r.db.data.invoices[invoice.ID] = *invoice
	return nil
}

func (r *invoiceRepo) FindByID(_ context.Context, id string) (*models.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	inv, ok := r.db.data.invoices[id]
	if !ok {
		return nil, repositories.ErrInvoiceNotFound
	}
	return &inv, nil
}

func (r *invoiceRepo) FindByIDForUpdate(ctx context.Context, id string) (*models.Invoice, error) {
	return r.FindByID(ctx, id)
}

func (r *invoiceRepo) ListBySubscription(_ context.Context, subscriptionID string) ([]models.Invoice, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.Invoice
	for _, inv := range r.db.data.invoices {
		if inv.SubscriptionID == subscriptionID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.db.seq[out[i].ID] > r.db.seq[out[j].ID] })
	return out, nil
}

func (r *invoiceRepo) Update(_ context.Context, invoice *models.Invoice) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.data.invoices[invoice.ID]; !ok {
		return repositories.ErrInvoiceNotFound
	}
	r.db.touch(&invoice.BaseModel)
	r.db.data.invoices[invoice.ID] = *invoice
	return nil
}

type eventRepo struct {
	db *DB
}

func (r *eventRepo) Create(_ context.Context, event *models.SubscriptionEvent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = r.db.now()
	}
	r.db.data.events = append(r.db.data.events, *event)
	return nil
}

func (r *eventRepo) ListBySubscription(_ context.Context, subscriptionID string) ([]models.SubscriptionEvent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []models.SubscriptionEvent
	for _, e := range r.db.data.events {
		if e.SubscriptionID == subscriptionID {
			out = append(out, e)
		}
	}
	return out, nil
}
