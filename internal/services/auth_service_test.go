package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saas_backend/internal/models"
	"saas_backend/internal/services/dto"
	"saas_backend/pkg/apperrors"
)

func TestLogin_WithTenant(t *testing.T) {
	f := newFixture(t)
	tenant := f.tenant("acme")
	pro := f.plan("pro", "79.00", 0)
	f.attach(pro, f.feature("reports", true), true, "")
	f.subscribe(tenant, pro)

	user := f.user("alice@example.com", "password123")
	f.member(user, tenant, models.TenantRoleAdmin, true)

	resp, err := f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email:    "  Alice@Example.com ",
		Password: "password123",
		TenantID: tenant.ID,
	}, ClientMeta{IPAddress: "10.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.RefreshToken)
	require.NotNil(t, resp.Tenant)
	assert.Equal(t, tenant.ID, resp.Tenant.ID)
	assert.Nil(t, resp.Partner)

	claims, err := f.svc.Tokens.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, tenant.ID, claims.TenantID)
	assert.Equal(t, pro.ID, claims.PlanID)
	assert.Equal(t, "pro", claims.PlanCode)
	assert.Equal(t, []string{"reports"}, claims.Features)
}

func TestLogin_FailuresLookTheSame(t *testing.T) {
	f := newFixture(t)
	f.user("alice@example.com", "password123")
	suspended := f.user("sus@example.com", "password123")
	f.db.SetUserStatus(suspended.ID, models.UserStatusSuspended)

	cases := []dto.LoginRequest{
		{Email: "alice@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "password123"},
		{Email: "sus@example.com", Password: "password123"},
	}
	for _, req := range cases {
		req := req
		_, err := f.svc.Auth.Login(f.ctx, &req, ClientMeta{})
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential), req.Email)
	}
	assert.Equal(t, 0, f.db.TokenCount())
}

func TestLogin_TenantWithoutMembership(t *testing.T) {
	f := newFixture(t)
	tenant := f.tenant("acme")
	f.user("alice@example.com", "password123")

	_, err := f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "password123",
		TenantID: tenant.ID,
	}, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrTenantAccessRequired))

	partner := f.partner("resell")
	_, err = f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email:     "alice@example.com",
		Password:  "password123",
		PartnerID: partner.ID,
	}, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrPartnerAccessRequired))
}

func TestRefresh_KeepsScopeAndRotates(t *testing.T) {
	f := newFixture(t)
	tenant := f.tenant("acme")
	user := f.user("alice@example.com", "password123")
	f.member(user, tenant, models.TenantRoleUser, false)

	login, err := f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email: "alice@example.com", Password: "password123", TenantID: tenant.ID,
	}, ClientMeta{})
	require.NoError(t, err)

	refreshed, err := f.svc.Auth.Refresh(f.ctx, login.RefreshToken, ClientMeta{})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	require.NotNil(t, refreshed.Tenant)
	assert.Equal(t, tenant.ID, refreshed.Tenant.ID)

	_, err = f.svc.Auth.Refresh(f.ctx, login.RefreshToken, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))
}

func TestRefresh_BlockedUser(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")

	login, err := f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email: "alice@example.com", Password: "password123",
	}, ClientMeta{})
	require.NoError(t, err)

	f.db.SetUserStatus(user.ID, models.UserStatusSuspended)
	_, err = f.svc.Auth.Refresh(f.ctx, login.RefreshToken, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))
}

func TestAuthenticate_AttachesEntitlements(t *testing.T) {
	f := newFixture(t)
	tenant := f.tenant("acme")
	pro := f.plan("pro", "79.00", 0)
	f.attach(pro, f.feature("reports", true), true, "")
	f.subscribe(tenant, pro)
	user := f.user("alice@example.com", "password123")
	f.member(user, tenant, models.TenantRoleAdmin, true)

	login, err := f.svc.Auth.Login(f.ctx, &dto.LoginRequest{
		Email: "alice@example.com", Password: "password123", TenantID: tenant.ID,
	}, ClientMeta{})
	require.NoError(t, err)

	ac, err := f.svc.Auth.Authenticate(f.ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, ac.TenantID())
	assert.NoError(t, ac.RequireFeature("reports"))

	// снапшот берется из базы, а не из claims токена
	_, err = f.svc.Catalog.SetFeatureEnabled(f.ctx, "reports", false)
	require.NoError(t, err)
	ac, err = f.svc.Auth.Authenticate(f.ctx, login.AccessToken)
	require.NoError(t, err)
	assert.True(t, apperrors.HasCode(ac.RequireFeature("reports"), apperrors.CodeFeatureNotEnabled))

	_, err = f.svc.Auth.Authenticate(f.ctx, "garbage")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	user := f.user("alice@example.com", "password123")
	req := &dto.LoginRequest{Email: "alice@example.com", Password: "password123"}

	first, err := f.svc.Auth.Login(f.ctx, req, ClientMeta{})
	require.NoError(t, err)
	second, err := f.svc.Auth.Login(f.ctx, req, ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.Auth.Logout(f.ctx, first.RefreshToken))
	_, err = f.svc.Auth.Refresh(f.ctx, first.RefreshToken, ClientMeta{})
	assert.Error(t, err)

	require.NoError(t, f.svc.Auth.LogoutAll(f.ctx, user.ID))
	_, err = f.svc.Auth.Refresh(f.ctx, second.RefreshToken, ClientMeta{})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidCredential))
}

func TestCatalog_SetFeatureEnabledUnknown(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Catalog.SetFeatureEnabled(f.ctx, "missing", true)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCatalog_AllowPartnerPlan(t *testing.T) {
	f := newFixture(t)
	partner := f.partner("resell")
	pro := f.plan("pro", "79.00", 0)

	require.NoError(t, f.svc.Catalog.AllowPartnerPlan(f.ctx, partner.ID, pro.ID))
	ok, err := f.store.Partners.IsPlanAllowed(f.ctx, partner.ID, pro.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	err = f.svc.Catalog.AllowPartnerPlan(f.ctx, partner.ID, "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestSeedSuperAdmin(t *testing.T) {
	f := newFixture(t)

	created, err := SeedSuperAdmin(f.ctx, f.store, "Root@Example.com", "password123")
	require.NoError(t, err)
	assert.True(t, created)

	user, err := f.store.Users.FindByEmail(f.ctx, "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsSuperAdmin)

	created, err = SeedSuperAdmin(f.ctx, f.store, "other@example.com", "password123")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = SeedSuperAdmin(f.ctx, f.store, "", "")
	require.NoError(t, err)
	assert.False(t, created)
}
