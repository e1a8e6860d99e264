// Package database - подключение к Postgres и миграции схемы.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"saas_backend/internal/config"
	"saas_backend/internal/logger"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
)

// Open подключается к Postgres и настраивает пул соединений
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		// TranslateError не включаем: mapError смотрит имя нарушенного индекса в *pgconn.PgError
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get *sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("database unavailable: %w", err)
	}
	return db, nil
}

// partialIndexes - ограничения, которые AutoMigrate выразить не может
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + repositories.LiveSubscriptionIndex +
		` ON subscriptions (tenant_id) WHERE status IN ('trial', 'active')`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + repositories.TenantOwnerIndex +
		` ON tenant_users (tenant_id) WHERE is_owner`,
	`CREATE INDEX IF NOT EXISTS ix_subscriptions_due
		ON subscriptions (current_period_end) WHERE status IN ('trial', 'active')`,
}

// Migrate выполняет AutoMigrate всех моделей и создает частичные индексы
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)

	err := db.AutoMigrate(
		&models.User{},
		&models.Partner{},
		&models.Tenant{},
		&models.PartnerPlan{},
		&models.Role{},
		&models.TenantUser{},
		&models.PartnerUser{},
		&models.Plan{},
		&models.Feature{},
		&models.PlanFeature{},
		&models.Subscription{},
		&models.Invoice{},
		&models.RefreshToken{},
		&models.SubscriptionEvent{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	logger.Info("Database migrated")
	return nil
}
