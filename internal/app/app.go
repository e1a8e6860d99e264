package app

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"saas_backend/internal/auth"
	"saas_backend/internal/cache"
	"saas_backend/internal/config"
	"saas_backend/internal/database"
	"saas_backend/internal/handlers"
	"saas_backend/internal/logger"
	"saas_backend/internal/repositories"
	"saas_backend/internal/services"
)

// Application - собранные зависимости процесса
type Application struct {
	Config   *config.Config
	DB       *gorm.DB
	Cache    *cache.Cache
	Store    *repositories.Store
	Services *services.ServiceContainer
}

// Bootstrap подключает Postgres и (если настроен) Redis и собирает сервисы
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connected")

	codec, err := auth.NewTokenCodec(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL())
	if err != nil {
		return nil, err
	}

	a := &Application{
		Config: cfg,
		DB:     db,
		Store:  repositories.NewGormStore(db),
	}

	opts := services.Options{
		RefreshTTL:       cfg.JWT.RefreshTTL(),
		RefreshRetention: cfg.Auth.RefreshRetention(),
		Audit:            services.NewStoreAuditLogger(a.Store.Events),
	}
	if cfg.Redis.Addr != "" {
		a.Cache = cache.NewCache(strings.Split(cfg.Redis.Addr, ","), cfg.Redis.Password, cfg.Redis.DB)
		if err := a.Cache.Ping(ctx); err != nil {
			// без кэша сервис работает, просто медленнее
			logger.Warn("Redis unavailable, entitlement cache disabled", "error", err.Error())
			a.Cache.Close()
			a.Cache = nil
		} else {
			opts.EntitlementCache = cache.NewRedisEntitlementCache(a.Cache, cfg.Redis.EntitlementTTL())
			logger.Info("Entitlement cache enabled", "addr", cfg.Redis.Addr)
		}
	}

	a.Services = services.NewServiceContainer(a.Store, codec, opts)
	return a, nil
}

// HealthChecks - зависимости для /healthz
func (a *Application) HealthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if sqlDB, err := a.DB.DB(); err == nil {
		checks["postgres"] = sqlDB
	}
	if a.Cache != nil {
		checks["redis"] = handlers.PingFunc(a.Cache.Ping)
	}
	return checks
}

// SeedAdmin создает первого супер-админа из конфигурации
func (a *Application) SeedAdmin(ctx context.Context) error {
	email, password := a.Config.Auth.SeedAdminEmail, a.Config.Auth.SeedAdminPassword
	if email == "" || password == "" {
		logger.Debug("Seed admin credentials are not set, skipping")
		return nil
	}
	_, err := services.SeedSuperAdmin(ctx, a.Store, email, password)
	return err
}

func (a *Application) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			logger.Warn("Failed to close redis", "error", err.Error())
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close database", "error", err.Error())
		}
	}
}
