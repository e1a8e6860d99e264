package services

import (
	"context"
	"errors"
	"strings"

	"saas_backend/internal/auth"
	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/internal/repositories"
	"saas_backend/internal/services/dto"
	"saas_backend/pkg/apperrors"
)

type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest, meta ClientMeta) (*dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*dto.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID string) error
	// Authenticate проверяет access токен и резолвит членство и фичи
	Authenticate(ctx context.Context, accessToken string) (*authctx.Context, error)
}

type AuthServiceImpl struct {
	store        *repositories.Store
	tokens       TokenService
	memberships  MembershipResolver
	entitlements EntitlementResolver
}

func NewAuthService(
	store *repositories.Store,
	tokens TokenService,
	memberships MembershipResolver,
	entitlements EntitlementResolver,
) AuthService {
	return &AuthServiceImpl{
		store:        store,
		tokens:       tokens,
		memberships:  memberships,
		entitlements: entitlements,
	}
}

// Login - одинаковый ответ для неизвестного email, неверного пароля и
// неактивного пользователя
func (s *AuthServiceImpl) Login(ctx context.Context, req *dto.LoginRequest, meta ClientMeta) (*dto.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.Users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrUserNotFound) {
		auth.CompareWithDummy(req.Password)
		return nil, apperrors.ErrInvalidCredential
	}
	if err != nil {
		return nil, handleRepoError(err)
	}
	if user.PasswordHash == nil || !auth.CheckPasswordHash(req.Password, *user.PasswordHash) {
		logger.CtxWarn(ctx, "Login failed", "user_id", user.ID, "ip", meta.IPAddress)
		return nil, apperrors.ErrInvalidCredential
	}
	if !user.IsActive() {
		return nil, apperrors.ErrInvalidCredential
	}

	ac, err := s.memberships.Resolve(ctx, user.ID, req.TenantID, req.PartnerID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthenticated) {
			return nil, apperrors.ErrInvalidCredential
		}
		return nil, err
	}
	if req.TenantID != "" && ac.Tenant == nil {
		return nil, apperrors.ErrTenantAccessRequired
	}
	if req.PartnerID != "" && ac.Partner == nil {
		return nil, apperrors.ErrPartnerAccessRequired
	}

	scope := TokenScope{TenantID: ac.TenantID(), PartnerID: ac.PartnerID()}
	refresh, err := s.tokens.IssueRefreshToken(ctx, user.ID, scope, meta)
	if err != nil {
		return nil, err
	}

	resp, err := s.buildResponse(ctx, ac, refresh)
	if err != nil {
		return nil, err
	}
	logger.CtxInfo(ctx, "User logged in", "user_id", user.ID, "tenant_id", scope.TenantID, "partner_id", scope.PartnerID)
	return resp, nil
}

func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*dto.AuthResponse, error) {
	refresh, err := s.tokens.RotateRefreshToken(ctx, refreshToken, meta)
	if err != nil {
		return nil, err
	}

	scope := scopeOf(refresh.Record)
	ac, err := s.memberships.Resolve(ctx, refresh.Record.UserID, scope.TenantID, scope.PartnerID)
	if err != nil {
		// пользователь заблокирован после выдачи токена
		if revokeErr := s.tokens.Revoke(ctx, refresh.Token); revokeErr != nil {
			logger.CtxWithError(ctx, "Failed to revoke refresh token", revokeErr)
		}
		if apperrors.Is(err, apperrors.ErrUnauthenticated) {
			return nil, apperrors.ErrInvalidCredential
		}
		return nil, err
	}

	return s.buildResponse(ctx, ac, refresh)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

func (s *AuthServiceImpl) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.tokens.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}
	logger.CtxInfo(ctx, "All refresh tokens revoked", "user_id", userID, "count", n)
	return nil
}

func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (*authctx.Context, error) {
	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err != nil {
		return nil, err
	}

	ac, err := s.memberships.Resolve(ctx, claims.UserID(), claims.TenantID, claims.PartnerID)
	if err != nil {
		return nil, err
	}

	if ac.Tenant != nil {
		snap, err := s.entitlements.Resolve(ctx, ac.Tenant.ID)
		if err != nil {
			return nil, err
		}
		ac.Entitlements = snap
	}
	return ac, nil
}

func (s *AuthServiceImpl) buildResponse(ctx context.Context, ac *authctx.Context, refresh *IssuedRefreshToken) (*dto.AuthResponse, error) {
	claims := auth.Claims{
		Email:        ac.User.Email,
		Name:         ac.User.Name,
		IsSuperAdmin: ac.User.IsSuperAdmin,
	}
	claims.Subject = ac.User.ID

	if ac.Tenant != nil {
		snap, err := s.entitlements.Resolve(ctx, ac.Tenant.ID)
		if err != nil {
			return nil, err
		}
		ac.Entitlements = snap

		claims.TenantID = ac.Tenant.ID
		claims.TenantSlug = ac.Tenant.Slug
		claims.TenantRole = string(ac.TenantRole)
		claims.PlanID = snap.PlanID()
		claims.PlanCode = snap.PlanCode()
		claims.Features = snap.FeatureCodes()
	}
	if ac.Partner != nil {
		claims.PartnerID = ac.Partner.ID
		claims.PartnerSlug = ac.Partner.Slug
		claims.PartnerRole = string(ac.PartnerRole)
	}

	access, expiresAt, err := s.tokens.IssueAccessToken(claims)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:      access,
		RefreshToken:     refresh.Token,
		TokenType:        "Bearer",
		ExpiresAt:        expiresAt,
		RefreshExpiresAt: refresh.Record.ExpiresAt,
		User:             dto.NewUserDTO(ac.User),
		Tenant:           dto.TenantDTO(ac),
		Partner:          dto.PartnerDTO(ac),
	}, nil
}
