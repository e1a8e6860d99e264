package repositories

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	// FindByEmail ищет без учета регистра
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CountSuperAdmins(ctx context.Context) (int64, error)
}

type UserRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	return mapError(conn(ctx, r.db).Create(user).Error, ErrUserNotFound)
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := conn(ctx, r.db).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, mapError(err, ErrUserNotFound)
	}
	return &user, nil
}

func (r *UserRepositoryImpl) CountSuperAdmins(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&models.User{}).Where("is_super_admin = ?", true).Count(&count).Error
	return count, err
}
