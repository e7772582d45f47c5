package inventory

import (
	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AggregateTypeInventoryItem names the aggregate in events
const AggregateTypeInventoryItem = "InventoryItem"

// Event type constants
const (
	EventTypeStockReceived   = "StockReceived"
	EventTypeStockConsumed   = "StockConsumed"
	EventTypeStockRestored   = "StockRestored"
	EventTypeLowStockCrossed = "LowStockCrossed"
)

// StockReceivedEvent is raised when a receipt adds quantity to a batch
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	Department   Department        `json:"department"`
	ItemName     string            `json:"item_name"`
	BatchID      uuid.UUID         `json:"batch_id"`
	BatchNumber  string            `json:"batch_number"`
	Quantity     int64             `json:"quantity"`
	UnitCost     valueobject.Money `json:"unit_cost"`
	BalanceAfter int64             `json:"balance_after"`
	Reason       MovementReason    `json:"reason"`
	ReferenceID  string            `json:"reference_id"`
}

// NewStockReceivedEvent creates a StockReceivedEvent
func NewStockReceivedEvent(item *InventoryItem, batch *StockBatch, quantity int64, mv Movement) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeInventoryItem, item.ID),
		Department:      item.Department,
		ItemName:        item.Name,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        quantity,
		UnitCost:        batch.UnitCost,
		BalanceAfter:    item.QuantityAvailable,
		Reason:          mv.Reason,
		ReferenceID:     mv.ReferenceID,
	}
}

// StockConsumedEvent is raised when stock is drawn down
type StockConsumedEvent struct {
	shared.BaseDomainEvent
	Department   Department        `json:"department"`
	ItemName     string            `json:"item_name"`
	Quantity     int64             `json:"quantity"`
	Deductions   []BatchDeduction  `json:"deductions"`
	TotalCost    valueobject.Money `json:"total_cost"`
	BalanceAfter int64             `json:"balance_after"`
	Reason       MovementReason    `json:"reason"`
	ReferenceID  string            `json:"reference_id"`
}

// NewStockConsumedEvent creates a StockConsumedEvent
func NewStockConsumedEvent(item *InventoryItem, c *Consumption, mv Movement) *StockConsumedEvent {
	return &StockConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockConsumed, AggregateTypeInventoryItem, item.ID),
		Department:      item.Department,
		ItemName:        item.Name,
		Quantity:        c.Quantity,
		Deductions:      c.Deductions,
		TotalCost:       c.TotalCost,
		BalanceAfter:    c.BalanceAfter,
		Reason:          mv.Reason,
		ReferenceID:     mv.ReferenceID,
	}
}

// StockRestoredEvent is raised when a return puts units back on their batch
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	Department   Department     `json:"department"`
	ItemName     string         `json:"item_name"`
	BatchID      uuid.UUID      `json:"batch_id"`
	BatchNumber  string         `json:"batch_number"`
	Quantity     int64          `json:"quantity"`
	BalanceAfter int64          `json:"balance_after"`
	Reason       MovementReason `json:"reason"`
	ReferenceID  string         `json:"reference_id"`
}

// NewStockRestoredEvent creates a StockRestoredEvent
func NewStockRestoredEvent(item *InventoryItem, batch *StockBatch, quantity int64, mv Movement) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, AggregateTypeInventoryItem, item.ID),
		Department:      item.Department,
		ItemName:        item.Name,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        quantity,
		BalanceAfter:    item.QuantityAvailable,
		Reason:          mv.Reason,
		ReferenceID:     mv.ReferenceID,
	}
}

// LowStockCrossedEvent is raised when quantity falls to or under the reorder level
type LowStockCrossedEvent struct {
	shared.BaseDomainEvent
	Department   Department `json:"department"`
	ItemName     string     `json:"item_name"`
	Quantity     int64      `json:"quantity"`
	ReorderLevel int64      `json:"reorder_level"`
}

// NewLowStockCrossedEvent creates a LowStockCrossedEvent
func NewLowStockCrossedEvent(item *InventoryItem) *LowStockCrossedEvent {
	return &LowStockCrossedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLowStockCrossed, AggregateTypeInventoryItem, item.ID),
		Department:      item.Department,
		ItemName:        item.Name,
		Quantity:        item.QuantityAvailable,
		ReorderLevel:    item.ReorderLevel,
	}
}

// ItemKey returns the key of the item that crossed its threshold
func (e *LowStockCrossedEvent) ItemKey() ItemKey {
	return ItemKey{Department: e.Department, Name: e.ItemName}
}
