package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// Direction of a stock movement
type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

// MovementReason is the business cause of a stock movement
type MovementReason string

const (
	ReasonPurchaseReceipt MovementReason = "PURCHASE_RECEIPT"
	ReasonSale            MovementReason = "SALE"
	ReasonCasualty        MovementReason = "CASUALTY"
	ReasonLabTest         MovementReason = "LAB_TEST"
	ReasonStockOut        MovementReason = "STOCK_OUT"
	ReasonSaleReturn      MovementReason = "SALE_RETURN"
)

// IsValid returns true if the reason is known
func (r MovementReason) IsValid() bool {
	switch r {
	case ReasonPurchaseReceipt, ReasonSale, ReasonCasualty, ReasonLabTest, ReasonStockOut, ReasonSaleReturn:
		return true
	}
	return false
}

// RequiresPinnedBatch is true for consumptions that must name the exact batch,
// so a later return can restock it.
func (r MovementReason) RequiresPinnedBatch() bool {
	return r == ReasonSale || r == ReasonCasualty
}

// IsConsumption is true for reasons that draw stock down
func (r MovementReason) IsConsumption() bool {
	switch r {
	case ReasonSale, ReasonCasualty, ReasonLabTest, ReasonStockOut:
		return true
	}
	return false
}

// Movement carries who caused a stock change and why
type Movement struct {
	Reason      MovementReason
	ReferenceID string
	Actor       string
	Note        string
}

// LedgerEntry is an immutable audit record of one quantity change on one batch.
// Entries are only ever appended; corrections are new entries.
type LedgerEntry struct {
	ID           uuid.UUID
	ItemID       uuid.UUID
	BatchID      uuid.UUID
	Department   Department
	ItemName     string
	BatchNumber  string
	Direction    Direction
	Reason       MovementReason
	Quantity     int64
	UnitCost     valueobject.Money
	TotalCost    valueobject.Money
	BalanceAfter int64
	ReferenceID  string
	Actor        string
	Note         string
	CreatedAt    time.Time
}

// NewLedgerEntry creates a ledger entry for a movement on a batch
func NewLedgerEntry(
	item *InventoryItem,
	batch *StockBatch,
	direction Direction,
	quantity int64,
	unitCost valueobject.Money,
	totalCost valueobject.Money,
	mv Movement,
) (*LedgerEntry, error) {
	if item == nil || batch == nil {
		return nil, shared.NewDomainError("INVALID_LEDGER_ENTRY", "Ledger entry needs an item and a batch")
	}
	if direction != DirectionIn && direction != DirectionOut {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Direction must be IN or OUT")
	}
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if !mv.Reason.IsValid() {
		return nil, shared.NewDomainError("INVALID_REASON", "Unknown movement reason")
	}
	return &LedgerEntry{
		ID:           uuid.New(),
		ItemID:       item.ID,
		BatchID:      batch.ID,
		Department:   item.Department,
		ItemName:     item.Name,
		BatchNumber:  batch.BatchNumber,
		Direction:    direction,
		Reason:       mv.Reason,
		Quantity:     quantity,
		UnitCost:     unitCost,
		TotalCost:    totalCost,
		BalanceAfter: item.QuantityAvailable,
		ReferenceID:  mv.ReferenceID,
		Actor:        mv.Actor,
		Note:         mv.Note,
		CreatedAt:    time.Now(),
	}, nil
}

// WithBalanceAfter overrides the item balance recorded on the entry
func (e *LedgerEntry) WithBalanceAfter(balance int64) *LedgerEntry {
	e.BalanceAfter = balance
	return e
}

// SignedQuantity is positive for IN and negative for OUT
func (e *LedgerEntry) SignedQuantity() int64 {
	if e.Direction == DirectionOut {
		return -e.Quantity
	}
	return e.Quantity
}

// OutEntries builds one OUT entry per batch deducted by a consumption.
// Balances are replayed so each entry shows the item quantity right after it.
func OutEntries(item *InventoryItem, c *Consumption, mv Movement) ([]*LedgerEntry, error) {
	entries := make([]*LedgerEntry, 0, len(c.Deductions))
	balance := c.BalanceAfter + c.Quantity
	for _, d := range c.Deductions {
		batch := item.FindBatch(d.BatchID)
		entry, err := NewLedgerEntry(item, batch, DirectionOut, d.Quantity, d.CostPerUnit.Round2(), d.TotalCost, mv)
		if err != nil {
			return nil, err
		}
		balance -= d.Quantity
		entries = append(entries, entry.WithBalanceAfter(balance))
	}
	return entries, nil
}
