package handlers

import (
	"github.com/gin-gonic/gin"

	"saas_backend/internal/authctx"
	"saas_backend/internal/logger"
	"saas_backend/internal/middleware"
	"saas_backend/internal/services"
	"saas_backend/internal/validator"
	"saas_backend/pkg/apperrors"
)

// ============================================================================
// 1. Базовая структура обработчика
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// ============================================================================
// 2. Привязка и валидация
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body"))
		return false
	}

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ============================================================================
// 3. Ошибки
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		if appErr.HTTPCode >= 500 {
			logger.CtxWithError(ctx, "Service error", err, "code", appErr.Code, "path", c.Request.URL.Path)
		} else {
			logger.CtxWarn(ctx, "Service error",
				"error", appErr.Message,
				"details", appErr.Details,
				"path", c.Request.URL.Path,
			)
		}
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Контекст запроса
// ============================================================================

// GetAuthContext - контекст, собранный AuthMiddleware. Без него 401.
func (h *BaseHandler) GetAuthContext(c *gin.Context) (*authctx.Context, bool) {
	ac, ok := middleware.GetAuthContext(c)
	if !ok || ac.RequireAuthenticated() != nil {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: auth context not found",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.ErrUnauthenticated)
		return nil, false
	}
	return ac, true
}

func clientMeta(c *gin.Context) services.ClientMeta {
	return services.ClientMeta{
		DeviceInfo: c.Request.UserAgent(),
		IPAddress:  c.ClientIP(),
	}
}
