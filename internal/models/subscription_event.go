package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubscriptionEvent - запись журнала изменений подписки.
// Пишется после коммита, не изменяется.
type SubscriptionEvent struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID string         `gorm:"type:uuid;not null;index" json:"subscription_id"`
	TenantID       string         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Operation      string         `gorm:"type:varchar(40);not null;index" json:"operation"`
	Actor          string         `gorm:"type:varchar(64);not null" json:"actor"`
	Before         datatypes.JSON `gorm:"type:jsonb" json:"before,omitempty"`
	After          datatypes.JSON `gorm:"type:jsonb" json:"after,omitempty"`
	Details        datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (SubscriptionEvent) TableName() string {
	return "subscription_events"
}
