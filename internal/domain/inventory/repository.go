package inventory

import (
	"context"

	"github.com/google/uuid"
)

// InventoryItemRepository persists items together with their batches.
// Lock* methods must be called inside a transaction; they hold the rows until it ends.
type InventoryItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)
	FindByKey(ctx context.Context, key ItemKey) (*InventoryItem, error)

	// FindBatch resolves a batch without locking it, used to learn which item to lock
	FindBatch(ctx context.Context, batchID uuid.UUID) (*StockBatch, error)

	// EnsureExists inserts an empty item row for key unless one is already present
	EnsureExists(ctx context.Context, key ItemKey, reorderLevel int64) error

	// LockByKeys locks item rows then their batch rows, in ascending key order,
	// and returns the items in that order. Missing keys are an ErrNotFound.
	LockByKeys(ctx context.Context, keys []ItemKey) ([]*InventoryItem, error)

	// Save writes the item and every one of its batches
	Save(ctx context.Context, item *InventoryItem) error

	// FindLowStock lists items at or under the policy threshold
	FindLowStock(ctx context.Context, policy ThresholdPolicy) ([]LowStockItem, error)
}

// LedgerRepository appends and reads ledger entries. There is no update or delete.
type LedgerRepository interface {
	Append(ctx context.Context, entries ...*LedgerEntry) error
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]LedgerEntry, error)
	FindByReference(ctx context.Context, reason MovementReason, referenceID string) ([]LedgerEntry, error)
}

// LabRecipeRepository stores default lab test recipes
type LabRecipeRepository interface {
	FindByTestCode(ctx context.Context, testCode string) (*LabTestRecipe, error)
	Save(ctx context.Context, recipe *LabTestRecipe) error
}
