package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements the append-only stock ledger using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts entries in the given order
func (r *GormLedgerRepository) Append(ctx context.Context, entries ...*inventory.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.LedgerEntryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.LedgerEntryModelFromDomain(e)
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("append ledger entries: %w", err)
	}
	return nil
}

// FindByItem returns an item's entries oldest first
func (r *GormLedgerRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

// FindByReference returns the entries a business operation wrote
func (r *GormLedgerRepository) FindByReference(ctx context.Context, reason inventory.MovementReason, referenceID string) ([]inventory.LedgerEntry, error) {
	var rows []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("reason = ? AND reference_id = ?", string(reason), referenceID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ledgerToDomain(rows), nil
}

func ledgerToDomain(rows []models.LedgerEntryModel) []inventory.LedgerEntry {
	out := make([]inventory.LedgerEntry, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ inventory.LedgerRepository = (*GormLedgerRepository)(nil)

// GormLabRecipeRepository stores default lab test recipes using GORM
type GormLabRecipeRepository struct {
	db *gorm.DB
}

// NewGormLabRecipeRepository creates a new GormLabRecipeRepository
func NewGormLabRecipeRepository(db *gorm.DB) *GormLabRecipeRepository {
	return &GormLabRecipeRepository{db: db}
}

// FindByTestCode loads a recipe with its components in order
func (r *GormLabRecipeRepository) FindByTestCode(ctx context.Context, testCode string) (*inventory.LabTestRecipe, error) {
	var model models.LabRecipeModel
	if err := r.db.WithContext(ctx).
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&model, "test_code = ?", testCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lab recipe %s: %w", testCode, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save replaces the recipe and all of its components
func (r *GormLabRecipeRepository) Save(ctx context.Context, recipe *inventory.LabTestRecipe) error {
	model := models.LabRecipeModelFromDomain(recipe)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "test_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if err := tx.Where("test_code = ?", recipe.TestCode).
			Delete(&models.LabRecipeComponentModel{}).Error; err != nil {
			return err
		}
		if len(model.Components) == 0 {
			return nil
		}
		return tx.Create(&model.Components).Error
	})
}

var _ inventory.LabRecipeRepository = (*GormLabRecipeRepository)(nil)
