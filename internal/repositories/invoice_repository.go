package repositories

import (
	"context"

	"gorm.io/gorm"

	"saas_backend/internal/models"
)

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Invoice, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]models.Invoice, error)
	Update(ctx context.Context, invoice *models.Invoice) error
}

type InvoiceRepositoryImpl struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &InvoiceRepositoryImpl{db: db}
}

func (r *InvoiceRepositoryImpl) Create(ctx context.Context, invoice *models.Invoice) error {
	return mapError(conn(ctx, r.db).Create(invoice).Error, ErrInvoiceNotFound)
}

func (r *InvoiceRepositoryImpl) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := conn(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrInvoiceNotFound)
	}
	return &invoice, nil
}

func (r *InvoiceRepositoryImpl) FindByIDForUpdate(ctx context.Context, id string) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := forUpdate(conn(ctx, r.db)).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, mapError(err, ErrInvoiceNotFound)
	}
	return &invoice, nil
}

func (r *InvoiceRepositoryImpl) ListBySubscription(ctx context.Context, subscriptionID string) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := conn(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&invoices).Error
	return invoices, err
}

func (r *InvoiceRepositoryImpl) Update(ctx context.Context, invoice *models.Invoice) error {
	result := conn(ctx, r.db).Model(invoice).Select("*").Omit("id", "created_at").Updates(invoice)
	if result.Error != nil {
		return mapError(result.Error, ErrInvoiceNotFound)
	}
	if result.RowsAffected == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}
