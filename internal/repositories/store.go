package repositories

import "gorm.io/gorm"

// Store - набор репозиториев и транзактор над одним хранилищем
type Store struct {
	Tx            Transactor
	Users         UserRepository
	Tenants       TenantRepository
	Partners      PartnerRepository
	Memberships   MembershipRepository
	Plans         PlanRepository
	Subscriptions SubscriptionRepository
	RefreshTokens RefreshTokenRepository
	Invoices      InvoiceRepository
	Events        SubscriptionEventRepository
}

// NewGormStore собирает Store поверх Postgres
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Tx:            NewTransactor(db),
		Users:         NewUserRepository(db),
		Tenants:       NewTenantRepository(db),
		Partners:      NewPartnerRepository(db),
		Memberships:   NewMembershipRepository(db),
		Plans:         NewPlanRepository(db),
		Subscriptions: NewSubscriptionRepository(db),
		RefreshTokens: NewRefreshTokenRepository(db),
		Invoices:      NewInvoiceRepository(db),
		Events:        NewSubscriptionEventRepository(db),
	}
}
