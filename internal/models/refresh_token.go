package models

import "time"

// RefreshToken - хранится только SHA-256 хэш токена.
// ReplacedByID != nil означает, что токен был ротирован.
type RefreshToken struct {
	BaseModel
	UserID       string     `gorm:"type:uuid;not null;index"`
	TokenHash    string     `gorm:"type:char(64);not null;uniqueIndex"`
	ExpiresAt    time.Time  `gorm:"not null;index"`
	RevokedAt    *time.Time `gorm:"index"`
	ReplacedByID *string    `gorm:"type:uuid"`
	TenantID     *string    `gorm:"type:uuid"`
	PartnerID    *string    `gorm:"type:uuid"`
	DeviceInfo   string
	IPAddress    string `gorm:"type:varchar(64)"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsRotated - токен отозван в ходе ротации (повторное предъявление = кража)
func (t *RefreshToken) IsRotated() bool {
	return t.RevokedAt != nil && t.ReplacedByID != nil
}

func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(now)
}
