package apperrors

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// ErrorResponse - единый конверт ошибки
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Code    ErrorCode   `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// GinErrorHandler - обработчик ошибок для Gin
type GinErrorHandler struct {
	Debug bool
}

// HandleGinError - основная логика обработки ошибок для Gin
func (h *GinErrorHandler) HandleGinError(c *gin.Context, err error) {
	appErr, ok := AsAppError(err)
	if !ok {
		appErr = InternalError(err)
	}

	if appErr.HTTPCode >= 500 {
		slog.ErrorContext(c.Request.Context(), "server error", "code", appErr.Code, "error", err.Error())
		if !h.Debug {
			// В продакшене скрываем детали
			appErr = appErr.WithDetails(nil)
		}
	}

	c.AbortWithStatusJSON(appErr.HTTPCode, ErrorResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
		Details: appErr.Details,
	})
}

// Debug режим включается в app при env=development
var Debug = false

// HandleError - быстрая функция-помощник для Gin
func HandleError(c *gin.Context, err error) {
	handler := &GinErrorHandler{Debug: Debug}
	handler.HandleGinError(c, err)
}

// AsAppError - пытается преобразовать error в *AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
