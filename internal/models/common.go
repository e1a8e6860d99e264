package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseModel struct {
	ID        string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate проставляет UUID на стороне приложения,
// чтобы ID был известен до коммита транзакции
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Tombstone - явная метка мягкого удаления.
// Репозитории по умолчанию фильтруют записи с DeletedAt != nil.
type Tombstone struct {
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

func (t Tombstone) IsDeleted() bool {
	return t.DeletedAt != nil
}
