package services

import (
	"time"

	"saas_backend/internal/auth"
	"saas_backend/internal/cache"
	"saas_backend/internal/repositories"
)

// Options - зависимости и настройки контейнера
type Options struct {
	RefreshTTL       time.Duration
	RefreshRetention time.Duration
	// EntitlementCache может быть nil
	EntitlementCache cache.EntitlementCache
	Audit            AuditLogger
	Clock            Clock
}

// ServiceContainer содержит все сервисы приложения.
type ServiceContainer struct {
	Tokens        TokenService
	Memberships   MembershipResolver
	Entitlements  EntitlementResolver
	Subscriptions SubscriptionLifecycle
	Auth          AuthService
	Catalog       CatalogService
}

func NewServiceContainer(store *repositories.Store, codec *auth.TokenCodec, opts Options) *ServiceContainer {
	tokens := NewTokenService(store, codec, opts.RefreshTTL, opts.RefreshRetention, opts.Clock)
	memberships := NewMembershipResolver(store)
	ents := NewEntitlementResolver(store, opts.EntitlementCache, opts.Clock)

	return &ServiceContainer{
		Tokens:        tokens,
		Memberships:   memberships,
		Entitlements:  ents,
		Subscriptions: NewSubscriptionLifecycle(store, ents, opts.Audit, opts.Clock),
		Auth:          NewAuthService(store, tokens, memberships, ents),
		Catalog:       NewCatalogService(store, ents),
	}
}
