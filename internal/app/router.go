package app

import (
	"github.com/gin-gonic/gin"

	"saas_backend/internal/config"
	"saas_backend/internal/handlers"
	"saas_backend/internal/metrics"
	"saas_backend/internal/middleware"
	"saas_backend/internal/routes"
	"saas_backend/internal/services"
	"saas_backend/internal/validator"
)

// SetupRouter собирает gin.Engine поверх готовых сервисов
func SetupRouter(cfg *config.Config, svc *services.ServiceContainer, checks map[string]handlers.Pinger) *gin.Engine {
	appHandlers := initializeHandlers(svc, checks)
	ginRouter := initializeGinRouter(cfg)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	authMW := middleware.AuthMiddleware(svc.Auth, cfg.Auth.ResolveTimeout())
	routes.RegisterRoutes(ginRouter, appHandlers, authMW, metricsPath)
	return ginRouter
}

func initializeHandlers(svc *services.ServiceContainer, checks map[string]handlers.Pinger) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, svc.Auth),
		TenantHandler:  handlers.NewTenantHandler(baseHandler, svc.Subscriptions, svc.Entitlements),
		AdminHandler:   handlers.NewAdminHandler(baseHandler, svc),
		PartnerHandler: handlers.NewPartnerHandler(baseHandler, svc.Subscriptions),
		HealthHandler:  handlers.NewHealthHandler(checks),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	if cfg.Metrics.Enabled {
		router.Use(metrics.GinMiddleware())
	}
	return router
}
