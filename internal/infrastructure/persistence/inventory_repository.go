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

// GormInventoryItemRepository implements InventoryItemRepository using GORM.
// Items are always loaded together with their batches.
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// batchOrder is the order batches are loaded and locked in
const batchOrder = "batch_number ASC, created_at ASC"

// FindByID finds an inventory item by its ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB { return db.Order(batchOrder) }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inventory item %s: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByKey finds an inventory item by department and name
func (r *GormInventoryItemRepository) FindByKey(ctx context.Context, key inventory.ItemKey) (*inventory.InventoryItem, error) {
	var model models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB { return db.Order(batchOrder) }).
		Where("department = ? AND name = ?", string(key.Department), key.Name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inventory item %s: %w", key, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBatch loads a single batch without locking it
func (r *GormInventoryItemRepository) FindBatch(ctx context.Context, batchID uuid.UUID) (*inventory.StockBatch, error) {
	var model models.StockBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stock batch %s: %w", batchID, shared.ErrNotFound)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// EnsureExists inserts an empty item unless one already exists for the key.
// Concurrent callers racing on the same key both succeed.
func (r *GormInventoryItemRepository) EnsureExists(ctx context.Context, key inventory.ItemKey, reorderLevel int64) error {
	item, err := inventory.NewInventoryItem(key, reorderLevel)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "department"}, {Name: "name"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(models.InventoryItemModelFromDomain(item)).Error
}

// LockByKeys takes exclusive row locks on the items, one key at a time in
// ascending key order, then on each item's batches. Keys are expected to be
// sorted and unique already; they are re-sorted here so the order holds for
// any caller.
func (r *GormInventoryItemRepository) LockByKeys(ctx context.Context, keys []inventory.ItemKey) ([]*inventory.InventoryItem, error) {
	keys = inventory.SortedUniqueKeys(keys)
	items := make([]*inventory.InventoryItem, 0, len(keys))
	for _, key := range keys {
		var model models.InventoryItemModel
		if err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("department = ? AND name = ?", string(key.Department), key.Name).
			First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("inventory item %s: %w", key, shared.ErrNotFound)
			}
			return nil, fmt.Errorf("lock inventory item %s: %w", key, err)
		}
		if err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("item_id = ?", model.ID).
			Order(batchOrder).
			Find(&model.Batches).Error; err != nil {
			return nil, fmt.Errorf("lock batches of %s: %w", key, err)
		}
		items = append(items, model.ToDomain())
	}
	return items, nil
}

// Save writes the item row and upserts every batch row
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(models.InventoryItemModelFromDomain(item)).Error; err != nil {
		return fmt.Errorf("save inventory item %s: %w", item.Key(), err)
	}
	if len(item.Batches) == 0 {
		return nil
	}
	batches := make([]*models.StockBatchModel, len(item.Batches))
	for i, b := range item.Batches {
		batches[i] = models.StockBatchModelFromDomain(b)
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&batches).Error; err != nil {
		return fmt.Errorf("save batches of %s: %w", item.Key(), err)
	}
	return nil
}

// FindLowStock lists items whose quantity is at or under the policy threshold,
// ordered by department then name
func (r *GormInventoryItemRepository) FindLowStock(ctx context.Context, policy inventory.ThresholdPolicy) ([]inventory.LowStockItem, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.InventoryItemModel{}).
		Preload("Batches", "deleted = ? AND quantity > 0", false)
	if policy.Department != "" {
		query = query.Where("department = ?", string(policy.Department))
	}
	if policy.FixedThreshold != nil {
		query = query.Where("quantity_available <= ?", *policy.FixedThreshold)
	} else {
		query = query.Where("quantity_available <= reorder_level")
	}

	var rows []models.InventoryItemModel
	if err := query.Order("department ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]inventory.LowStockItem, 0, len(rows))
	for i := range rows {
		item := rows[i].ToDomain()
		out = append(out, inventory.LowStockItem{
			ItemID:     item.ID,
			Key:        item.Key(),
			Quantity:   item.QuantityAvailable,
			Threshold:  policy.ThresholdFor(item),
			BatchCount: len(item.Batches),
		})
	}
	return out, nil
}

var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
