package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas_backend/internal/auth"
	"saas_backend/internal/config"
	"saas_backend/internal/handlers"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
	"saas_backend/internal/repositories/memory"
	"saas_backend/internal/services"
)

type testApp struct {
	t      *testing.T
	ctx    context.Context
	store  *repositories.Store
	svc    *services.ServiceContainer
	router *gin.Engine
}

func newTestApp(t *testing.T, checks map[string]handlers.Pinger) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, _ := memory.NewStore()
	codec, err := auth.NewTokenCodec("router-test-secret-router-test-secret", "saas-test", time.Hour)
	require.NoError(t, err)

	svc := services.NewServiceContainer(store, codec, services.Options{
		RefreshTTL:       24 * time.Hour,
		RefreshRetention: 24 * time.Hour,
	})

	cfg := config.Default()
	return &testApp{
		t:      t,
		ctx:    context.Background(),
		store:  store,
		svc:    svc,
		router: SetupRouter(cfg, svc, checks),
	}
}

func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	assert.Equal(t, code, decode(t, w)["code"])
}

func (a *testApp) login(email, tenantID, partnerID string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":      email,
		"password":   "password123",
		"tenant_id":  tenantID,
		"partner_id": partnerID,
	})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	token, _ := decode(a.t, w)["access_token"].(string)
	require.NotEmpty(a.t, token)
	return token
}

func (a *testApp) user(email string) *models.User {
	a.t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(a.t, err)
	u := &models.User{Email: email, Name: email, PasswordHash: &hash, Status: models.UserStatusActive}
	require.NoError(a.t, a.store.Users.Create(a.ctx, u))
	return u
}

func (a *testApp) tenant(slug string, partner *models.Partner) *models.Tenant {
	a.t.Helper()
	tenant := &models.Tenant{Name: slug, Slug: slug, Status: models.OrgStatusActive}
	if partner != nil {
		partnerID := partner.ID
		tenant.PartnerID = &partnerID
	}
	require.NoError(a.t, a.store.Tenants.Create(a.ctx, tenant))
	return tenant
}

func (a *testApp) partner(slug string) *models.Partner {
	a.t.Helper()
	partner := &models.Partner{Name: slug, Slug: slug, Status: models.OrgStatusActive}
	require.NoError(a.t, a.store.Partners.Create(a.ctx, partner))
	return partner
}

func (a *testApp) plan(code, monthly string, features ...string) *models.Plan {
	a.t.Helper()
	price := decimal.RequireFromString(monthly)
	plan := &models.Plan{
		Code:         code,
		Name:         code,
		MonthlyPrice: price,
		YearlyPrice:  price.Mul(decimal.NewFromInt(10)),
		Currency:     "USD",
		IsActive:     true,
		IsPublic:     true,
	}
	require.NoError(a.t, a.store.Plans.Create(a.ctx, plan))

	for _, fc := range features {
		feature, err := a.store.Plans.FindFeatureByCode(a.ctx, fc)
		if err != nil {
			feature = &models.Feature{Code: fc, Name: fc, IsEnabled: true}
			require.NoError(a.t, a.store.Plans.CreateFeature(a.ctx, feature))
		}
		require.NoError(a.t, a.store.Plans.AttachFeature(a.ctx, &models.PlanFeature{
			PlanID:    plan.ID,
			FeatureID: feature.ID,
			IsEnabled: true,
		}))
	}
	return plan
}

func (a *testApp) member(user *models.User, tenant *models.Tenant, role models.TenantRole) {
	a.t.Helper()
	require.NoError(a.t, a.store.Memberships.CreateTenantMembership(a.ctx, &models.TenantUser{
		TenantID: tenant.ID,
		UserID:   user.ID,
		Role:     role,
	}))
}

func (a *testApp) subscribe(tenant *models.Tenant, plan *models.Plan) *models.Subscription {
	a.t.Helper()
	sub, err := a.svc.Subscriptions.CreateSubscription(a.ctx, services.CreateSubscriptionInput{
		TenantID:     tenant.ID,
		PlanID:       plan.ID,
		BillingCycle: models.BillingCycleMonthly,
	})
	require.NoError(a.t, err)
	return sub
}

func TestHealthz(t *testing.T) {
	ok := handlers.PingFunc(func(context.Context) error { return nil })
	down := handlers.PingFunc(func(context.Context) error { return errors.New("connection refused") })

	a := newTestApp(t, map[string]handlers.Pinger{"postgres": ok})
	w := a.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	a = newTestApp(t, map[string]handlers.Pinger{"postgres": ok, "redis": down})
	w = a.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	checks := decode(t, w)["checks"].(map[string]interface{})
	assert.Equal(t, "up", checks["postgres"])
	assert.Equal(t, "down", checks["redis"])
}

func TestRequestID_Echoed(t *testing.T) {
	a := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	a := newTestApp(t, nil)

	assertErrorCode(t, a.do(http.MethodGet, "/api/v1/auth/me", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	assertErrorCode(t, a.do(http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	assertErrorCode(t, a.do(http.MethodGet, "/api/v1/plans", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLogin_Validation(t *testing.T) {
	a := newTestApp(t, nil)

	w := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "not-an-email"})
	assertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_FAILED")

	w = a.do(http.MethodPost, "/api/v1/auth/login", "", "{broken")
	require.Equal(t, http.StatusBadRequest, w.Code)

	a.user("alice@example.com")
	w = a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assertErrorCode(t, w, http.StatusUnauthorized, "INVALID_CREDENTIAL")
}

func TestLoginMeRefreshLogout(t *testing.T) {
	a := newTestApp(t, nil)
	tenant := a.tenant("acme", nil)
	a.subscribe(tenant, a.plan("pro", "79.00", "reports"))
	alice := a.user("alice@example.com")
	a.member(alice, tenant, models.TenantRoleAdmin)

	w := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":     "alice@example.com",
		"password":  "password123",
		"tenant_id": tenant.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := decode(t, w)
	access := tokens["access_token"].(string)
	refresh := tokens["refresh_token"].(string)

	w = a.do(http.MethodGet, "/api/v1/auth/me", access, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	me := decode(t, w)
	assert.Equal(t, "pro", me["plan_code"])
	assert.Equal(t, []interface{}{"reports"}, me["features"])
	assert.Equal(t, tenant.ID, me["tenant"].(map[string]interface{})["id"])

	w = a.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode(t, w)["refresh_token"].(string)
	assert.NotEqual(t, refresh, rotated)

	w = a.do(http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"refresh_token": rotated})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": rotated})
	assertErrorCode(t, w, http.StatusUnauthorized, "INVALID_CREDENTIAL")
}

func TestTenantRoutes_Scope(t *testing.T) {
	a := newTestApp(t, nil)
	acme := a.tenant("acme", nil)
	globex := a.tenant("globex", nil)
	plan := a.plan("pro", "79.00", "reports")
	a.subscribe(acme, plan)
	a.subscribe(globex, plan)

	alice := a.user("alice@example.com")
	a.member(alice, acme, models.TenantRoleAdmin)
	token := a.login("alice@example.com", acme.ID, "")

	w := a.do(http.MethodGet, "/api/v1/tenants/"+acme.ID+"/entitlements", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, acme.ID, decode(t, w)["tenant_id"])

	w = a.do(http.MethodGet, "/api/v1/tenants/"+globex.ID+"/entitlements", token, nil)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	w = a.do(http.MethodGet, "/api/v1/tenants/"+acme.ID+"/entitlements?tenant_id="+globex.ID, token, nil)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	// токен без тенанта
	noTenant := a.login("alice@example.com", "", "")
	w = a.do(http.MethodGet, "/api/v1/tenants/"+acme.ID+"/entitlements", noTenant, nil)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
}

func TestTenantRoutes_FeatureGate(t *testing.T) {
	a := newTestApp(t, nil)
	tenant := a.tenant("acme", nil)
	a.subscribe(tenant, a.plan("pro", "79.00", "reports"))
	a.plan("enterprise", "199.00", "reports", "sso")

	alice := a.user("alice@example.com")
	a.member(alice, tenant, models.TenantRoleUser)
	token := a.login("alice@example.com", tenant.ID, "")

	w := a.do(http.MethodGet, "/api/v1/tenants/"+tenant.ID+"/features/reports", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "reports", decode(t, w)["code"])

	w = a.do(http.MethodGet, "/api/v1/tenants/"+tenant.ID+"/features/sso", token, nil)
	assertErrorCode(t, w, http.StatusForbidden, "FEATURE_NOT_ENABLED")

	// глобальный выключатель действует без перевыпуска токена
	_, err := a.svc.Catalog.SetFeatureEnabled(a.ctx, "reports", false)
	require.NoError(t, err)
	w = a.do(http.MethodGet, "/api/v1/tenants/"+tenant.ID+"/features/reports", token, nil)
	assertErrorCode(t, w, http.StatusForbidden, "FEATURE_NOT_ENABLED")
}

func TestTenantRoutes_SubscriptionNeedsBillingRead(t *testing.T) {
	a := newTestApp(t, nil)
	tenant := a.tenant("acme", nil)
	sub := a.subscribe(tenant, a.plan("pro", "79.00"))

	admin := a.user("admin@example.com")
	a.member(admin, tenant, models.TenantRoleAdmin)
	member := a.user("member@example.com")
	a.member(member, tenant, models.TenantRoleUser)

	path := "/api/v1/tenants/" + tenant.ID + "/subscription"

	w := a.do(http.MethodGet, path, a.login("member@example.com", tenant.ID, ""), nil)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	w = a.do(http.MethodGet, path, a.login("admin@example.com", tenant.ID, ""), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode(t, w)["subscription"].(map[string]interface{})
	assert.Equal(t, sub.ID, got["id"])
}

func TestAdminRoutes_SuperAdminOnly(t *testing.T) {
	a := newTestApp(t, nil)
	tenant := a.tenant("acme", nil)
	basic := a.plan("basic", "29.00")
	pro := a.plan("pro", "79.00")

	owner := a.user("owner@example.com")
	a.member(owner, tenant, models.TenantRoleAdmin)
	created, err := services.SeedSuperAdmin(a.ctx, a.store, "root@example.com", "password123")
	require.NoError(t, err)
	require.True(t, created)

	body := map[string]string{"tenant_id": tenant.ID, "plan_id": basic.ID, "billing_cycle": "monthly"}

	w := a.do(http.MethodPost, "/api/v1/admin/subscriptions", a.login("owner@example.com", tenant.ID, ""), body)
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	root := a.login("root@example.com", "", "")

	w = a.do(http.MethodPost, "/api/v1/admin/subscriptions", root, map[string]string{
		"tenant_id": tenant.ID, "plan_id": basic.ID, "billing_cycle": "weekly",
	})
	assertErrorCode(t, w, http.StatusBadRequest, "VALIDATION_FAILED")

	w = a.do(http.MethodPost, "/api/v1/admin/subscriptions", root, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	subID := decode(t, w)["id"].(string)

	w = a.do(http.MethodPost, "/api/v1/admin/subscriptions", root, body)
	assertErrorCode(t, w, http.StatusConflict, "CONFLICT")

	w = a.do(http.MethodPost, "/api/v1/admin/subscriptions/"+subID+"/upgrade", root, map[string]interface{}{
		"plan_id": pro.ID, "immediate": true,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/api/v1/admin/jobs/rollover", root, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPartnerConsole(t *testing.T) {
	a := newTestApp(t, nil)
	partner := a.partner("reseller")
	other := a.partner("other")
	plan := a.plan("pro", "79.00")
	require.NoError(t, a.store.Partners.AllowPlan(a.ctx, partner.ID, plan.ID))

	own := a.tenant("acme", partner)
	direct := a.tenant("direct", nil)
	foreign := a.subscribe(direct, plan)

	manager := a.user("manager@example.com")
	require.NoError(t, a.store.Memberships.CreatePartnerMembership(a.ctx, &models.PartnerUser{
		PartnerID: partner.ID,
		UserID:    manager.ID,
		Role:      models.PartnerRoleManager,
	}))
	token := a.login("manager@example.com", "", partner.ID)

	base := "/api/v1/partners/" + partner.ID + "/subscriptions"
	w := a.do(http.MethodPost, base, token, map[string]string{
		"tenant_id": own.ID, "plan_id": plan.ID, "billing_cycle": "monthly",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, partner.ID, created["partner_id"])

	w = a.do(http.MethodPost, base+"/"+created["id"].(string)+"/cancel", token, map[string]string{"reason": "customer request"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// чужая подписка
	w = a.do(http.MethodPost, base+"/"+foreign.ID+"/cancel", token, map[string]string{"reason": "nope"})
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")

	// чужой партнер в пути
	w = a.do(http.MethodPost, "/api/v1/partners/"+other.ID+"/subscriptions", token, map[string]string{
		"tenant_id": own.ID, "plan_id": plan.ID, "billing_cycle": "monthly",
	})
	assertErrorCode(t, w, http.StatusForbidden, "FORBIDDEN")
}
