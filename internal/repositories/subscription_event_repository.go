package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"saas_backend/internal/models"
)

// SubscriptionEventRepository - журнал аудита подписок, только добавление
type SubscriptionEventRepository interface {
	Create(ctx context.Context, event *models.SubscriptionEvent) error
	ListBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionEvent, error)
}

type SubscriptionEventRepositoryImpl struct {
	db *gorm.DB
}

func NewSubscriptionEventRepository(db *gorm.DB) SubscriptionEventRepository {
	return &SubscriptionEventRepositoryImpl{db: db}
}

func (r *SubscriptionEventRepositoryImpl) Create(ctx context.Context, event *models.SubscriptionEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return mapError(conn(ctx, r.db).Create(event).Error, ErrSubscriptionNotFound)
}

// ListBySubscription - события в порядке записи
func (r *SubscriptionEventRepositoryImpl) ListBySubscription(ctx context.Context, subscriptionID string) ([]models.SubscriptionEvent, error) {
	var events []models.SubscriptionEvent
	err := conn(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
