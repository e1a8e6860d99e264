package services

import (
	"context"
	"strings"

	"saas_backend/internal/auth"
	"saas_backend/internal/logger"
	"saas_backend/internal/models"
	"saas_backend/internal/repositories"
	"saas_backend/pkg/apperrors"
)

// SeedSuperAdmin создает первого супер-админа, если в системе его нет.
// Возвращает true, если пользователь создан.
func SeedSuperAdmin(ctx context.Context, store *repositories.Store, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return false, nil
	}
	if err := auth.ValidatePassword(password); err != nil {
		return false, apperrors.ValidationError(map[string]string{"password": err.Error()})
	}

	created := false
	err := store.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := store.Users.CountSuperAdmins(ctx)
		if err != nil || n > 0 {
			return err
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		user := &models.User{
			Email:        email,
			PasswordHash: &hash,
			Name:         "Administrator",
			IsSuperAdmin: true,
			Status:       models.UserStatusActive,
		}
		if err := store.Users.Create(ctx, user); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, handleRepoError(err)
	}
	if created {
		logger.Info("Super admin seeded", "email", email)
	}
	return created, nil
}
