package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"saas_backend/pkg/contextkeys"
)

// Transactor выполняет fn в транзакции. Репозитории, вызванные с ctx из fn,
// работают внутри нее. Вложенный вызов открывает savepoint.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return conn(ctx, t.db).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, contextkeys.DBContextKey, tx))
	})
}

// conn возвращает открытую транзакцию из ctx или базовое соединение
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(contextkeys.DBContextKey).(*gorm.DB); ok && tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// forUpdate - SELECT ... FOR UPDATE, имеет смысл только внутри транзакции
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// alive - фильтр мягко удаленных записей
func alive(db *gorm.DB) *gorm.DB {
	return db.Where("deleted_at IS NULL")
}
