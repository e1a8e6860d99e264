// Package memory - in-memory реализация репозиториев для тестов сервисов и
// HTTP слоя. Транзакции сериализуются и откатываются по снимку данных.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

type partnerPlanKey struct {
	partnerID string
	planID    string
}

type tables struct {
	users        map[string]models.User
	tenants      map[string]models.Tenant
	partners     map[string]models.Partner
	partnerPlans map[partnerPlanKey]struct{}
	roles        map[string]models.Role
	tenantUsers  map[string]models.TenantUser
	partnerUsers map[string]models.PartnerUser
	plans        map[string]models.Plan
	features     map[string]models.Feature
	planFeatures map[string]models.PlanFeature
	subs         map[string]models.Subscription
	tokens       map[string]models.RefreshToken
	invoices     map[string]models.Invoice
	events       []models.SubscriptionEvent
}

func newTables() tables {
	return tables{
		users:        map[string]models.User{},
		tenants:      map[string]models.Tenant{},
		partners:     map[string]models.Partner{},
		partnerPlans: map[partnerPlanKey]struct{}{},
		roles:        map[string]models.Role{},
		tenantUsers:  map[string]models.TenantUser{},
		partnerUsers: map[string]models.PartnerUser{},
		plans:        map[string]models.Plan{},
		features:     map[string]models.Feature{},
		planFeatures: map[string]models.PlanFeature{},
		subs:         map[string]models.Subscription{},
		tokens:       map[string]models.RefreshToken{},
		invoices:     map[string]models.Invoice{},
	}
}

func (t tables) clone() tables {
	return tables{
		users:        cloneMap(t.users),
		tenants:      cloneMap(t.tenants),
		partners:     cloneMap(t.partners),
		partnerPlans: cloneMap(t.partnerPlans),
		roles:        cloneMap(t.roles),
		tenantUsers:  cloneMap(t.tenantUsers),
		partnerUsers: cloneMap(t.partnerUsers),
		plans:        cloneMap(t.plans),
		features:     cloneMap(t.features),
		planFeatures: cloneMap(t.planFeatures),
		subs:         cloneMap(t.subs),
		tokens:       cloneMap(t.tokens),
		invoices:     cloneMap(t.invoices),
		events:       append([]models.SubscriptionEvent(nil), t.events...),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// DB - общее состояние всех репозиториев одного Store
type DB struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data tables
	seq  map[string]int64
	next int64
	now  func() time.Time
}

func (d *DB) stamp(base *models.BaseModel) {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	now := d.now()
	if base.CreatedAt.IsZero() {
		base.CreatedAt = now
	}
	base.UpdatedAt = now
	d.next++
	d.seq[base.ID] = d.next
}

func (d *DB) touch(base *models.BaseModel) {
	base.UpdatedAt = d.now()
}

// NewStore собирает repositories.Store поверх памяти
func NewStore() (*repositories.Store, *DB) {
	d := &DB{data: newTables(), seq: map[string]int64{}, now: time.Now}
	return &repositories.Store{
		Tx:            &transactor{db: d},
		Users:         &userRepo{db: d},
		Tenants:       &tenantRepo{db: d},
		Partners:      &partnerRepo{db: d},
		Memberships:   &membershipRepo{db: d},
		Plans:         &planRepo{db: d},
		Subscriptions: &subscriptionRepo{db: d},
		RefreshTokens: &refreshTokenRepo{db: d},
		Invoices:      &invoiceRepo{db: d},
		Events:        &eventRepo{db: d},
	}, d
}

// SetClock задает время для CreatedAt/UpdatedAt
func (d *DB) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

type txMarker struct{}

type transactor struct {
	db *DB
}

// WithinTransaction сериализует транзакции и откатывает изменения при ошибке.
// Вложенный вызов выполняется в рамках внешней транзакции.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}

	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	t.db.mu.Lock()
	snapshot := t.db.data.clone()
	t.db.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			t.db.restore(snapshot)
			panic(p)
		}
		if err != nil {
			t.db.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, txMarker{}, true))
}

func (d *DB) restore(snapshot tables) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = snapshot
}
