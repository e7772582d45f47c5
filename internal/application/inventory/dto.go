package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/sales"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// ConsumeStockRequest draws stock for one consumption context.
// Either BatchID or Department plus ItemName must be given.
type ConsumeStockRequest struct {
	BatchID     *uuid.UUID `json:"batch_id"`
	Department  string     `json:"department" validate:"required_without=BatchID"`
	ItemName    string     `json:"item_name" validate:"required_without=BatchID,max=200"`
	Quantity    int64      `json:"quantity" validate:"gt=0"`
	Reason      string     `json:"reason" validate:"required,oneof=SALE CASUALTY LAB_TEST STOCK_OUT"`
	ReferenceID string     `json:"reference_id" validate:"max=100"`
	Actor       string     `json:"actor" validate:"max=100"`
	Note        string     `json:"note" validate:"max=500"`
}

func (r ConsumeStockRequest) movement() inventory.Movement {
	return inventory.Movement{
		Reason:      inventory.MovementReason(r.Reason),
		ReferenceID: r.ReferenceID,
		Actor:       r.Actor,
		Note:        r.Note,
	}
}

// ConsumptionResult is the outcome of a committed consumption
type ConsumptionResult struct {
	Consumption   *inventory.Consumption
	LedgerEntries []*inventory.LedgerEntry
}

// DispenseSaleRequest dispenses pharmacy stock against a patient sale
type DispenseSaleRequest struct {
	VisitID     *uuid.UUID        `json:"visit_id"`
	PatientName string            `json:"patient_name" validate:"max=200"`
	SoldBy      string            `json:"sold_by" validate:"required,max=100"`
	Lines       []SaleLineRequest `json:"lines" validate:"min=1,dive"`
}

// SaleLineRequest is one dispensed batch. Price and GST default from the batch.
type SaleLineRequest struct {
	BatchID    uuid.UUID          `json:"batch_id" validate:"required"`
	Quantity   int64              `json:"quantity" validate:"gt=0"`
	UnitPrice  *valueobject.Money `json:"unit_price"`
	GSTPercent *decimal.Decimal   `json:"gst_percent"`
}

// SaleResult is the outcome of a committed sale
type SaleResult struct {
	Sale          *sales.Sale
	LedgerEntries []*inventory.LedgerEntry
}

// LabTestConsumptionRequest consumes lab stock for performed tests. Without
// explicit Items the default recipe of TestCode is used.
type LabTestConsumptionRequest struct {
	TestCode    string           `json:"test_code" validate:"required_without=Items,max=50"`
	TestCount   int64            `json:"test_count" validate:"gte=0"`
	Items       []LabItemRequest `json:"items" validate:"dive"`
	ReferenceID string           `json:"reference_id" validate:"max=100"`
	Actor       string           `json:"actor" validate:"max=100"`
}

// LabItemRequest names a lab item and the quantity used
type LabItemRequest struct {
	ItemName string `json:"item_name" validate:"required,max=200"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
}

// LabConsumptionResult is the outcome of a committed lab consumption
type LabConsumptionResult struct {
	Consumptions  []*inventory.Consumption
	LedgerEntries []*inventory.LedgerEntry
}

// ReverseStockRequest returns units of a sale line to stock
type ReverseStockRequest struct {
	SaleLineID uuid.UUID `json:"sale_line_id" validate:"required"`
	Quantity   int64     `json:"quantity" validate:"gt=0"`
	Reason     string    `json:"reason" validate:"max=500"`
	Actor      string    `json:"actor" validate:"max=100"`
}

// ReversalResult is the outcome of a committed return
type ReversalResult struct {
	Return       *sales.SaleReturn
	LedgerEntry  *inventory.LedgerEntry
	BalanceAfter int64
}

// ReceiptLine is one invoice line ready to be received. Units and cost are
// already derived from the costed invoice line.
type ReceiptLine struct {
	ItemName     string
	BatchNumber  string
	ExpiryDate   *time.Time
	UnitsIn      int64
	UnitCost     valueobject.Money
	Rate         valueobject.Money
	MRP          valueobject.Money
	GSTPercent   decimal.Decimal
	UnitsPerPack int64
}

// ReceiptInput is the stock-in pass of one completed purchase invoice
type ReceiptInput struct {
	InvoiceID         uuid.UUID
	Department        inventory.Department
	SupplierName      string
	SupplierInvoiceNo string
	Actor             string
	Lines             []ReceiptLine
}

func (in ReceiptInput) movement() inventory.Movement {
	return inventory.Movement{
		Reason:      inventory.ReasonPurchaseReceipt,
		ReferenceID: in.InvoiceID.String(),
		Actor:       in.Actor,
		Note:        "invoice " + in.SupplierInvoiceNo,
	}
}

// ReceiptOutcome is what the receipt pass changed. Events must be published
// by the caller once its transaction commits.
type ReceiptOutcome struct {
	AlreadyProcessed bool
	UnitsIn          int64
	LedgerEntries    []*inventory.LedgerEntry
	Events           []shared.DomainEvent
}

// SaveLabRecipeRequest replaces the default recipe of a lab test
type SaveLabRecipeRequest struct {
	TestCode   string                  `json:"test_code" validate:"required,max=50"`
	Components []RecipeComponentRequest `json:"components" validate:"min=1,dive"`
}

// RecipeComponentRequest is one item consumed per test
type RecipeComponentRequest struct {
	ItemName        string `json:"item_name" validate:"required,max=200"`
	QuantityPerTest int64  `json:"quantity_per_test" validate:"gt=0"`
}

// ItemLedger is an item with its ledger history, oldest entry first
type ItemLedger struct {
	Item    *inventory.InventoryItem
	Entries []inventory.LedgerEntry
}
