package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"saas_backend/internal/auth"
	"saas_backend/internal/cache"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
	"saas_backend/internal/repositories/memory"
)

const testJWTSecret = "test-secret-test-secret-test-secret-0123"

type recordingAudit struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, e AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *recordingAudit) ops() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Operation)
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *repositories.Store
	db    *memory.DB
	audit *recordingAudit
	svc   *ServiceContainer
	codec *auth.TokenCodec

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, db := memory.NewStore()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		store: store,
		db:    db,
		audit: &recordingAudit{},
		now:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	db.SetClock(f.clock)

	codec, err := auth.NewTokenCodec(testJWTSecret, "saas-test", time.Hour)
	require.NoError(t, err)

	f.codec = codec.WithClock(f.clock)
	f.svc = NewServiceContainer(store, f.codec, Options{
		Audit: f.audit,
		Clock: f.clock,
	})
	return f
}

// withCache пересобирает сервисы поверх кэша снапшотов
func (f *fixture) withCache(c cache.EntitlementCache) {
	f.svc = NewServiceContainer(f.store, f.codec, Options{
		EntitlementCache: c,
		Audit:            f.audit,
		Clock:            f.clock,
	})
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *fixture) tenant(slug string) *models.Tenant {
	f.t.Helper()
	tenant := &models.Tenant{Name: slug, Slug: slug, Status: models.OrgStatusActive}
	require.NoError(f.t, f.store.Tenants.Create(f.ctx, tenant))
	return tenant
}

func (f *fixture) partner(slug string) *models.Partner {
	f.t.Helper()
	partner := &models.Partner{Name: slug, Slug: slug, Status: models.OrgStatusActive}
	require.NoError(f.t, f.store.Partners.Create(f.ctx, partner))
	return partner
}

func (f *fixture) partnerTenant(slug string, partner *models.Partner) *models.Tenant {
	f.t.Helper()
	partnerID := partner.ID
	tenant := &models.Tenant{Name: slug, Slug: slug, Status: models.OrgStatusActive, PartnerID: &partnerID}
	require.NoError(f.t, f.store.Tenants.Create(f.ctx, tenant))
	return tenant
}

func (f *fixture) plan(code, monthly string, trialDays int) *models.Plan {
	f.t.Helper()
	price := decimal.RequireFromString(monthly)
	plan := &models.Plan{
		Code:         code,
		Name:         code,
		MonthlyPrice: price,
		YearlyPrice:  price.Mul(decimal.NewFromInt(10)),
		Currency:     "USD",
		TrialDays:    trialDays,
		IsActive:     true,
		IsPublic:     true,
	}
	require.NoError(f.t, f.store.Plans.Create(f.ctx, plan))
	return plan
}

func (f *fixture) feature(code string, enabled bool) *models.Feature {
	f.t.Helper()
	feature := &models.Feature{Code: code, Name: code, IsEnabled: enabled}
	require.NoError(f.t, f.store.Plans.CreateFeature(f.ctx, feature))
	return feature
}

func (f *fixture) attach(plan *models.Plan, feature *models.Feature, enabled bool, limits string) {
	f.t.Helper()
	pf := &models.PlanFeature{PlanID: plan.ID, FeatureID: feature.ID, IsEnabled: enabled}
	if limits != "" {
		pf.Limits = datatypes.JSON(limits)
	}
	require.NoError(f.t, f.store.Plans.AttachFeature(f.ctx, pf))
}

func (f *fixture) user(email, password string) *models.User {
	f.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(f.t, err)
	user := &models.User{Email: email, Name: email, PasswordHash: &hash, Status: models.UserStatusActive}
	require.NoError(f.t, f.store.Users.Create(f.ctx, user))
	return user
}

func (f *fixture) member(user *models.User, tenant *models.Tenant, role models.TenantRole, owner bool) *models.TenantUser {
	f.t.Helper()
	m := &models.TenantUser{TenantID: tenant.ID, UserID: user.ID, Role: role, IsOwner: owner}
	require.NoError(f.t, f.store.Memberships.CreateTenantMembership(f.ctx, m))
	return m
}

func (f *fixture) partnerMember(user *models.User, partner *models.Partner, role models.PartnerRole) {
	f.t.Helper()
	m := &models.PartnerUser{PartnerID: partner.ID, UserID: user.ID, Role: role}
	require.NoError(f.t, f.store.Memberships.CreatePartnerMembership(f.ctx, m))
}

func (f *fixture) subscribe(tenant *models.Tenant, plan *models.Plan) *models.Subscription {
	f.t.Helper()
	sub, err := f.svc.Subscriptions.CreateSubscription(f.ctx, CreateSubscriptionInput{
		TenantID:     tenant.ID,
		PlanID:       plan.ID,
		BillingCycle: models.BillingCycleMonthly,
	})
	require.NoError(f.t, err)
	return sub
}

func (f *fixture) reload(id string) *models.Subscription {
	f.t.Helper()
	sub, err := f.store.Subscriptions.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return sub
}
