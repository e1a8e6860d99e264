package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/pkg/apperrors"
)

// Authenticator - проверка access токена и резолв контекста запроса
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*authctx.Context, error)
}

// AuthMiddleware проверяет Bearer токен и кладет authctx.Context в запрос.
// Резолв членства и снапшота ограничен resolveTimeout.
func AuthMiddleware(a Authenticator, resolveTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			apperrors.HandleError(c, apperrors.ErrUnauthenticated)
			return
		}

		ctx := c.Request.Context()
		resolveCtx, cancel := context.WithTimeout(ctx, resolveTimeout)
		ac, err := a.Authenticate(resolveCtx, token)
		cancel()
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeUnauthorized) {
				logger.CtxDebug(ctx, "Access token rejected", "path", c.Request.URL.Path, "error", err.Error())
			} else {
				logger.CtxWithError(ctx, "Auth context resolution failed", err, "path", c.Request.URL.Path)
			}
			apperrors.HandleError(c, err)
			return
		}

		ctx = logger.WithUserID(ctx, ac.UserID())
		if ac.HasTenant() {
			ctx = logger.WithTenantID(ctx, ac.TenantID())
		}
		if ac.HasPartner() {
			ctx = logger.WithPartnerID(ctx, ac.PartnerID())
		}
		c.Request = c.Request.WithContext(authctx.NewContext(ctx, ac))
		c.Set(authctx.GinKey, ac)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// GetAuthContext извлекает authctx.Context, положенный AuthMiddleware
func GetAuthContext(c *gin.Context) (*authctx.Context, bool) {
	if v, ok := c.Get(authctx.GinKey); ok {
		if ac, ok := v.(*authctx.Context); ok && ac != nil {
			return ac, true
		}
	}
	return authctx.FromContext(c.Request.Context())
}
