package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// StockBatch is one batch of an item: the unit a pharmacy sale or casualty
// administration pins to, and the unit FIFO consumption walks.
// Quantity is counted in consumable units (tablets), UnitCost is per purchase pack.
type StockBatch struct {
	shared.BaseEntity
	ItemID       uuid.UUID
	BatchNumber  string
	ExpiryDate   *time.Time
	Quantity     int64
	UnitCost     valueobject.Money
	PTR          valueobject.Money
	MRP          valueobject.Money
	SellingPrice valueobject.Money
	GSTPercent   decimal.Decimal
	UnitsPerPack int64
	Supplier     string
	Deleted      bool
}

// ReceiveBatch describes an incoming quantity and the metadata it refreshes
type ReceiveBatch struct {
	BatchNumber  string
	ExpiryDate   *time.Time
	Quantity     int64
	UnitCost     valueobject.Money
	PTR          valueobject.Money
	MRP          valueobject.Money
	SellingPrice valueobject.Money
	GSTPercent   decimal.Decimal
	UnitsPerPack int64
	Supplier     string
}

// Validate rejects malformed receipts
func (r ReceiveBatch) Validate() error {
	if strings.TrimSpace(r.BatchNumber) == "" {
		return shared.NewValidationError("batch_number", "cannot be empty")
	}
	if r.Quantity <= 0 {
		return shared.NewValidationError("quantity", "must be positive, got %d", r.Quantity)
	}
	if r.UnitsPerPack <= 0 {
		return shared.NewValidationError("units_per_pack", "must be positive, got %d", r.UnitsPerPack)
	}
	if r.UnitCost.IsNegative() || r.MRP.IsNegative() || r.PTR.IsNegative() || r.SellingPrice.IsNegative() {
		return shared.NewValidationError("price", "prices must not be negative")
	}
	if r.GSTPercent.IsNegative() {
		return shared.NewValidationError("gst_percent", "must not be negative, got %s", r.GSTPercent)
	}
	return nil
}

func newStockBatch(itemID uuid.UUID, r ReceiveBatch) *StockBatch {
	b := &StockBatch{
		BaseEntity:  shared.NewBaseEntity(),
		ItemID:      itemID,
		BatchNumber: strings.TrimSpace(r.BatchNumber),
	}
	b.refresh(r)
	return b
}

// refresh applies last-write-wins metadata from a receipt
func (b *StockBatch) refresh(r ReceiveBatch) {
	b.ExpiryDate = r.ExpiryDate
	b.UnitCost = r.UnitCost
	b.PTR = r.PTR
	b.MRP = r.MRP
	b.SellingPrice = r.SellingPrice
	b.GSTPercent = r.GSTPercent
	b.UnitsPerPack = r.UnitsPerPack
	b.Supplier = r.Supplier
	b.Deleted = false
}

// HasStock returns true if the batch can be drawn from
func (b *StockBatch) HasStock() bool {
	return !b.Deleted && b.Quantity > 0
}

// IsExpired returns true if the batch expired before t
func (b *StockBatch) IsExpired(t time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(t)
}

// CostPerUnit is the cost of one consumable unit, unrounded
func (b *StockBatch) CostPerUnit() valueobject.Money {
	perUnit, err := b.UnitCost.DivInt(b.packSize())
	if err != nil {
		return valueobject.Zero()
	}
	return perUnit
}

// DefaultUnitPrice is the selling price of one consumable unit
func (b *StockBatch) DefaultUnitPrice() valueobject.Money {
	price, err := b.SellingPrice.DivInt(b.packSize())
	if err != nil {
		return valueobject.Zero()
	}
	return price.Round2()
}

func (b *StockBatch) packSize() int64 {
	if b.UnitsPerPack <= 0 {
		return 1
	}
	return b.UnitsPerPack
}

func (b *StockBatch) deduct(quantity int64) {
	b.Quantity -= quantity
	b.Touch()
}

func (b *StockBatch) add(quantity int64) {
	b.Quantity += quantity
	b.Touch()
}
