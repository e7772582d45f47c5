package inventory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
)

// InventoryItem is the aggregate root for one stockable product in a department.
// QuantityAvailable always equals the sum of its batch quantities.
type InventoryItem struct {
	shared.BaseAggregateRoot
	Department        Department
	Name              string
	QuantityAvailable int64
	ReorderLevel      int64
	Batches           []*StockBatch
}

// NewInventoryItem creates an empty item
func NewInventoryItem(key ItemKey, reorderLevel int64) (*InventoryItem, error) {
	if reorderLevel < 0 {
		return nil, shared.NewValidationError("reorder_level", "must not be negative, got %d", reorderLevel)
	}
	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Department:        key.Department,
		Name:              key.Name,
		ReorderLevel:      reorderLevel,
		Batches:           make([]*StockBatch, 0),
	}, nil
}

// Key returns the item's identity
func (i *InventoryItem) Key() ItemKey {
	return ItemKey{Department: i.Department, Name: i.Name}
}

// FindBatch returns the batch with the given ID
func (i *InventoryItem) FindBatch(batchID uuid.UUID) *StockBatch {
	for _, b := range i.Batches {
		if b.ID == batchID {
			return b
		}
	}
	return nil
}

// FindBatchByNumber returns the batch with the given batch number
func (i *InventoryItem) FindBatchByNumber(batchNumber string) *StockBatch {
	for _, b := range i.Batches {
		if b.BatchNumber == batchNumber {
			return b
		}
	}
	return nil
}

// BatchTotal sums the batch quantities
func (i *InventoryItem) BatchTotal() int64 {
	var total int64
	for _, b := range i.Batches {
		total += b.Quantity
	}
	return total
}

// IsLowStock reports whether the item is at or under its reorder level
func (i *InventoryItem) IsLowStock() bool {
	return i.QuantityAvailable <= i.ReorderLevel
}

// Receive merges the quantity into an existing batch or opens a new one.
// Quantity is additive; batch metadata is replaced by this receipt's values.
func (i *InventoryItem) Receive(r ReceiveBatch, mv Movement) (*StockBatch, error) {
	r.BatchNumber = strings.TrimSpace(r.BatchNumber)
	if err := r.Validate(); err != nil {
		return nil, err
	}
	batch := i.FindBatchByNumber(r.BatchNumber)
	if batch == nil {
		batch = newStockBatch(i.ID, r)
		i.Batches = append(i.Batches, batch)
	} else {
		batch.refresh(r)
	}
	batch.add(r.Quantity)

	i.QuantityAvailable += r.Quantity
	i.changed()
	i.AddDomainEvent(NewStockReceivedEvent(i, batch, r.Quantity, mv))
	return batch, nil
}

// ConsumeFIFO draws quantity across batches nearest expiry first.
// Nothing changes unless the whole quantity is available.
func (i *InventoryItem) ConsumeFIFO(quantity int64, mv Movement) (*Consumption, error) {
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive, got %d", quantity)
	}
	plan, available := planFIFO(i.Batches, quantity)
	if available < quantity {
		return nil, &shared.InsufficientStockError{
			ItemKey:   i.Key().String(),
			Requested: quantity,
			Available: available,
		}
	}
	return i.consume(plan, quantity, mv), nil
}

// ConsumeFromBatch draws quantity from one pinned batch
func (i *InventoryItem) ConsumeFromBatch(batchID uuid.UUID, quantity int64, mv Movement) (*Consumption, error) {
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive, got %d", quantity)
	}
	batch := i.FindBatch(batchID)
	if batch == nil {
		return nil, fmt.Errorf("batch %s of %s: %w", batchID, i.Key(), shared.ErrNotFound)
	}
	if batch.Deleted {
		return nil, fmt.Errorf("batch %s of %s: %w", batch.BatchNumber, i.Key(), shared.ErrBatchRetired)
	}
	if batch.Quantity < quantity {
		return nil, &shared.InsufficientStockError{
			ItemKey:     i.Key().String(),
			BatchNumber: batch.BatchNumber,
			Requested:   quantity,
			Available:   batch.Quantity,
		}
	}
	return i.consume([]plannedDeduction{{batch: batch, quantity: quantity}}, quantity, mv), nil
}

func (i *InventoryItem) consume(plan []plannedDeduction, quantity int64, mv Movement) *Consumption {
	before := i.QuantityAvailable
	deductions, totalCost := applyDeductions(plan)
	i.QuantityAvailable -= quantity
	i.changed()

	c := &Consumption{
		ItemID:       i.ID,
		ItemKey:      i.Key(),
		Deductions:   deductions,
		Quantity:     quantity,
		TotalCost:    totalCost,
		BalanceAfter: i.QuantityAvailable,
	}
	i.AddDomainEvent(NewStockConsumedEvent(i, c, mv))
	if before > i.ReorderLevel && i.IsLowStock() {
		i.AddDomainEvent(NewLowStockCrossedEvent(i))
	}
	return c
}

// Restore adds quantity back to the named batch only. Returns restock to the
// batch they were sold from; FIFO is never re-run. A retired batch is revived.
func (i *InventoryItem) Restore(batchID uuid.UUID, quantity int64, mv Movement) (*StockBatch, error) {
	if quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive, got %d", quantity)
	}
	batch := i.FindBatch(batchID)
	if batch == nil {
		return nil, fmt.Errorf("batch %s of %s: %w", batchID, i.Key(), shared.ErrNotFound)
	}
	batch.Deleted = false
	batch.add(quantity)
	i.QuantityAvailable += quantity
	i.changed()
	i.AddDomainEvent(NewStockRestoredEvent(i, batch, quantity, mv))
	return batch, nil
}

// RetireBatch soft-deletes an empty batch
func (i *InventoryItem) RetireBatch(batchID uuid.UUID) error {
	batch := i.FindBatch(batchID)
	if batch == nil {
		return fmt.Errorf("batch %s of %s: %w", batchID, i.Key(), shared.ErrNotFound)
	}
	if batch.Quantity != 0 {
		return shared.ErrRetireNonEmptyBatch
	}
	batch.Deleted = true
	batch.Touch()
	i.changed()
	return nil
}

// SetReorderLevel updates the low stock threshold
func (i *InventoryItem) SetReorderLevel(level int64) error {
	if level < 0 {
		return shared.NewValidationError("reorder_level", "must not be negative, got %d", level)
	}
	i.ReorderLevel = level
	i.changed()
	return nil
}

// CheckInvariant verifies the aggregate quantity against its batches
func (i *InventoryItem) CheckInvariant() error {
	if i.QuantityAvailable < 0 {
		return fmt.Errorf("%s quantity is negative (%d)", i.Key(), i.QuantityAvailable)
	}
	if total := i.BatchTotal(); total != i.QuantityAvailable {
		return fmt.Errorf("%s quantity %d does not match batch total %d", i.Key(), i.QuantityAvailable, total)
	}
	return nil
}

func (i *InventoryItem) changed() {
	i.Touch()
	i.IncrementVersion()
}
