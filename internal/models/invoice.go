package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Invoice - счет, выставленный при немедленном апгрейде.
// Оплату подтверждает внешний платежный контур через ConfirmPayment.
type Invoice struct {
	BaseModel
	Number           string            `gorm:"uniqueIndex;not null" json:"number"`
	SubscriptionID   string            `gorm:"type:uuid;not null;index" json:"subscription_id"`
	TenantID         string            `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Amount           decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string            `gorm:"type:varchar(3);not null" json:"currency"`
	Status           InvoiceStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Description      string            `json:"description"`
	PaidAt           *time.Time        `json:"paid_at,omitempty"`
	PaymentMethodRef *string           `json:"payment_method_ref,omitempty"`
	Metadata         datatypes.JSONMap `json:"metadata,omitempty"`
}
