package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/internal/models"
	"saas_backend/pkg/apperrors"
)

// maxScopeBody - сколько тела читаем в поисках tenant_id/partner_id
const maxScopeBody = 1 << 20

var errScopeBodyTooLarge = errors.New("request body exceeds scope check window")

type readCloser struct {
	io.Reader
	io.Closer
}

// guard превращает проверку над authctx.Context в gin middleware
func guard(check func(ac *authctx.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, _ := GetAuthContext(c)
		if err := check(ac); err != nil {
			logger.CtxDebug(c.Request.Context(), "Access denied", "path", c.Request.URL.Path, "error", err.Error())
			apperrors.HandleError(c, err)
			return
		}
		c.Next()
	}
}

func RequireAuthenticated() gin.HandlerFunc {
	return guard((*authctx.Context).RequireAuthenticated)
}

func RequireTenant() gin.HandlerFunc {
	return guard((*authctx.Context).RequireTenant)
}

func RequirePartner() gin.HandlerFunc {
	return guard((*authctx.Context).RequirePartner)
}

func RequireSuperAdmin() gin.HandlerFunc {
	return guard((*authctx.Context).RequireSuperAdmin)
}

// RequireFeature - 403 FEATURE_NOT_ENABLED вне зависимости от роли
func RequireFeature(code string) gin.HandlerFunc {
	return guard(func(ac *authctx.Context) error {
		return ac.RequireFeature(code)
	})
}

func RequireTenantRole(roles ...models.TenantRole) gin.HandlerFunc {
	return guard(func(ac *authctx.Context) error {
		return ac.RequireTenantRole(roles...)
	})
}

func RequirePartnerRole(roles ...models.PartnerRole) gin.HandlerFunc {
	return guard(func(ac *authctx.Context) error {
		return ac.RequirePartnerRole(roles...)
	})
}

func RequirePermission(permission string) gin.HandlerFunc {
	return guard(func(ac *authctx.Context) error {
		return ac.RequirePermission(permission)
	})
}

// EnforceTenantScope сверяет тенант из path-параметра, query tenant_id и
// JSON-поля tenant_id с активным тенантом
func EnforceTenantScope(param string) gin.HandlerFunc {
	return scopeGuard(param, "tenant_id", (*authctx.Context).EnforceTenantScope)
}

// EnforcePartnerScope - то же для партнера
func EnforcePartnerScope(param string) gin.HandlerFunc {
	return scopeGuard(param, "partner_id", (*authctx.Context).EnforcePartnerScope)
}

func scopeGuard(param, field string, enforce func(*authctx.Context, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, _ := GetAuthContext(c)

		ids := []string{c.Param(param), c.Query(field)}
		fromBody, err := bodyField(c, field)
		if errors.Is(err, errScopeBodyTooLarge) {
			apperrors.HandleError(c, apperrors.New(apperrors.CodeValidationFailed, "request",
				"Request body is too large", http.StatusRequestEntityTooLarge))
			return
		}
		if err != nil {
			apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
			return
		}
		ids = append(ids, fromBody)

		for _, id := range ids {
			if err := enforce(ac, id); err != nil {
				logger.CtxWarn(c.Request.Context(), "Cross-scope access attempt",
					"path", c.Request.URL.Path, "field", field, "requested", id)
				apperrors.HandleError(c, err)
				return
			}
		}
		c.Next()
	}
}

// bodyField читает строковое поле из JSON тела и возвращает тело на место,
// чтобы его мог привязать обработчик
func bodyField(c *gin.Context, field string) (string, error) {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet {
		return "", nil
	}
	if c.ContentType() != gin.MIMEJSON {
		return "", nil
	}

	body := c.Request.Body
	raw, err := io.ReadAll(io.LimitReader(body, maxScopeBody+1))
	if err != nil {
		return "", err
	}
	// прочитанное возвращается перед непрочитанным остатком
	c.Request.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(raw), body), Closer: body}
	if len(raw) > maxScopeBody {
		// поле может оказаться за окном, проверить scope нельзя
		return "", errScopeBodyTooLarge
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// невалидный JSON отклонит BindAndValidate_JSON
		return "", nil
	}
	v, ok := fields[field]
	if !ok {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", nil
	}
	return s, nil
}
