package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTenantNotFound       = errors.New("tenant not found")
	ErrPartnerNotFound      = errors.New("partner not found")
	ErrMembershipNotFound   = errors.New("membership not found")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrFeatureNotFound      = errors.New("feature not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrInvoiceNotFound      = errors.New("invoice not found")

	// ErrDuplicate - нарушение уникального индекса
	ErrDuplicate = errors.New("duplicate record")
	// ErrLiveSubscriptionExists - нарушение ux_subscriptions_live_tenant
	ErrLiveSubscriptionExists = errors.New("tenant already has a live subscription")
	// ErrOwnerExists - нарушение ux_tenant_users_owner
	ErrOwnerExists = errors.New("tenant already has an owner")
)

// Имена частичных уникальных индексов (см. database.Migrate)
const (
	LiveSubscriptionIndex = "ux_subscriptions_live_tenant"
	TenantOwnerIndex      = "ux_tenant_users_owner"
)

const pgUniqueViolation = "23505"

// mapError переводит ошибки gorm/pgx в sentinel-ошибки пакета
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case LiveSubscriptionIndex:
			return ErrLiveSubscriptionExists
		case TenantOwnerIndex:
			return ErrOwnerExists
		default:
			return ErrDuplicate
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
