package routes

import (
	"github.com/gin-gonic/gin"

	"saas_backend/internal/handlers"
	"saas_backend/internal/logger"
	"saas_backend/internal/metrics"
)

// RegisterRoutes регистрирует HTTP API v1, health и метрики.
// authMW - уже сконфигурированный AuthMiddleware.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	authMW gin.HandlerFunc,
	metricsPath string,
) {
	api := ginRouter.Group("/api/v1")
	{
		appHandlers.AuthHandler.RegisterRoutes(api, authMW)
		appHandlers.TenantHandler.RegisterRoutes(api, authMW)
		appHandlers.AdminHandler.RegisterRoutes(api, authMW)
		appHandlers.PartnerHandler.RegisterRoutes(api, authMW)
	}

	appHandlers.HealthHandler.RegisterRoutes(ginRouter)

	if metricsPath != "" {
		ginRouter.GET(metricsPath, metrics.Handler())
		logger.Info("Metrics route registered", "path", metricsPath)
	}
}
