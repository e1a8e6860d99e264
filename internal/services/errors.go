package services

import (
	"errors"
	"time"

	"saas_backend/internal/repositories"
	"saas_backend/pkg/apperrors"
)

// Clock - источник времени сервисов, подменяется в тестах
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// handleRepoError переводит sentinel-ошибки репозиториев в AppError.
// AppError пропускается как есть.
func handleRepoError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, repositories.ErrSubscriptionNotFound):
		return apperrors.ErrSubscriptionNotFound
	case errors.Is(err, repositories.ErrPlanNotFound):
		return apperrors.ErrPlanNotFound
	case errors.Is(err, repositories.ErrFeatureNotFound):
		return apperrors.NewNotFoundError("feature", "Feature not found")
	case errors.Is(err, repositories.ErrTenantNotFound):
		return apperrors.ErrTenantNotFound
	case errors.Is(err, repositories.ErrPartnerNotFound):
		return apperrors.ErrPartnerNotFound
	case errors.Is(err, repositories.ErrInvoiceNotFound):
		return apperrors.ErrInvoiceNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return apperrors.ErrUserNotFound
	case errors.Is(err, repositories.ErrMembershipNotFound):
		return apperrors.ErrMembershipNotFound
	case errors.Is(err, repositories.ErrLiveSubscriptionExists):
		return apperrors.ErrLiveSubscriptionExists
	case errors.Is(err, repositories.ErrOwnerExists):
		return apperrors.NewConflictError("membership", "Tenant already has an owner")
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.NewConflictError("storage", "Record already exists")
	}
	return apperrors.DatabaseError(err)
}
