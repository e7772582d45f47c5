package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hms/backend/internal/domain/sales"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/persistence/models"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts the sale and its lines
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("create sale: %w", err)
	}
	if len(model.Lines) == 0 {
		return nil
	}
	if err := db.Create(&model.Lines).Error; err != nil {
		return fmt.Errorf("create sale lines: %w", err)
	}
	return nil
}

// FindByID loads a sale with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LockLine loads a sale line holding its row lock until the transaction ends
func (r *GormSaleRepository) LockLine(ctx context.Context, lineID uuid.UUID) (*sales.SaleLine, error) {
	var model models.SaleLineModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", lineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("sale line %s: %w", lineID, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveLine writes the returned quantity of a line
func (r *GormSaleRepository) SaveLine(ctx context.Context, line *sales.SaleLine) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleLineModel{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"returned_quantity": line.ReturnedQuantity,
			"updated_at":        line.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("sale line %s: %w", line.ID, shared.ErrNotFound)
	}
	return nil
}

// CreateReturn inserts a return record
func (r *GormSaleRepository) CreateReturn(ctx context.Context, ret *sales.SaleReturn) error {
	return r.db.WithContext(ctx).Create(models.SaleReturnModelFromDomain(ret)).Error
}

// FindReturnsByLine lists a line's returns oldest first
func (r *GormSaleRepository) FindReturnsByLine(ctx context.Context, lineID uuid.UUID) ([]sales.SaleReturn, error) {
	var rows []models.SaleReturnModel
	if err := r.db.WithContext(ctx).
		Where("sale_line_id = ?", lineID).
		Order("returned_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.SaleReturn, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
