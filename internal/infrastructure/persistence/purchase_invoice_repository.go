package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hms/backend/internal/domain/purchasing"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseInvoiceRepository implements PurchaseInvoiceRepository using GORM
type GormPurchaseInvoiceRepository struct {
	db *gorm.DB
}

// NewGormPurchaseInvoiceRepository creates a new GormPurchaseInvoiceRepository
func NewGormPurchaseInvoiceRepository(db *gorm.DB) *GormPurchaseInvoiceRepository {
	return &GormPurchaseInvoiceRepository{db: db}
}

// FindByID loads an invoice with its lines in line order
func (r *GormPurchaseInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseInvoice, error) {
	return r.find(ctx, r.db.WithContext(ctx), id)
}

// FindByIDForUpdate locks the invoice row before loading it
func (r *GormPurchaseInvoiceRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*purchasing.PurchaseInvoice, error) {
	return r.find(ctx, r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormPurchaseInvoiceRepository) find(ctx context.Context, query *gorm.DB, id uuid.UUID) (*purchasing.PurchaseInvoice, error) {
	var model models.PurchaseInvoiceModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("purchase invoice %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("line_no ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the invoice and its lines
func (r *GormPurchaseInvoiceRepository) Create(ctx context.Context, invoice *purchasing.PurchaseInvoice) error {
	model := models.PurchaseInvoiceModelFromDomain(invoice)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("create purchase invoice: %w", err)
	}
	return r.insertLines(db, model.Lines)
}

// Save updates the header and replaces the stored lines
func (r *GormPurchaseInvoiceRepository) Save(ctx context.Context, invoice *purchasing.PurchaseInvoice) error {
	model := models.PurchaseInvoiceModelFromDomain(invoice)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return fmt.Errorf("save purchase invoice: %w", err)
	}
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.PurchaseLineModel{}).Error; err != nil {
		return fmt.Errorf("clear purchase lines: %w", err)
	}
	return r.insertLines(db, model.Lines)
}

func (r *GormPurchaseInvoiceRepository) insertLines(db *gorm.DB, lines []models.PurchaseLineModel) error {
	if len(lines) == 0 {
		return nil
	}
	if err := db.Create(&lines).Error; err != nil {
		return fmt.Errorf("insert purchase lines: %w", err)
	}
	return nil
}

var _ purchasing.PurchaseInvoiceRepository = (*GormPurchaseInvoiceRepository)(nil)
