package inventory

import (
	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
)

// ThresholdPolicy selects which items count as low on stock.
// Without a fixed threshold each item's own reorder level applies.
type ThresholdPolicy struct {
	Department     Department
	FixedThreshold *int64
}

// Validate rejects unknown departments and negative thresholds
func (p ThresholdPolicy) Validate() error {
	if p.Department != "" && !p.Department.IsValid() {
		return shared.NewValidationError("department", "unknown department %q", p.Department)
	}
	if p.FixedThreshold != nil && *p.FixedThreshold < 0 {
		return shared.NewValidationError("threshold", "must not be negative, got %d", *p.FixedThreshold)
	}
	return nil
}

// ThresholdFor returns the threshold that applies to an item
func (p ThresholdPolicy) ThresholdFor(item *InventoryItem) int64 {
	if p.FixedThreshold != nil {
		return *p.FixedThreshold
	}
	return item.ReorderLevel
}

// LowStockItem is one row of a low stock listing
type LowStockItem struct {
	ItemID     uuid.UUID
	Key        ItemKey
	Quantity   int64
	Threshold  int64
	BatchCount int
}
