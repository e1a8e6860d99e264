package models

type User struct {
	BaseModel
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash *string    `json:"-"`
	Name         string     `json:"name"`
	IsSuperAdmin bool       `gorm:"not null" json:"is_super_admin"`
	Status       UserStatus `gorm:"type:varchar(20);not null" json:"status"`
}

func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
