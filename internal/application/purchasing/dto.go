package purchasing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appinventory "github.com/hms/backend/internal/application/inventory"
	"github.com/hms/backend/internal/domain/costing"
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/purchasing"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// CreateInvoiceRequest opens a DRAFT purchase invoice
type CreateInvoiceRequest struct {
	Department        string            `json:"department" validate:"required,oneof=PHARMACY LAB"`
	SupplierID        *uuid.UUID        `json:"supplier_id"`
	SupplierName      string            `json:"supplier_name" validate:"required,max=200"`
	SupplierInvoiceNo string            `json:"supplier_invoice_no" validate:"required,max=100"`
	InvoiceDate       time.Time         `json:"invoice_date"`
	PurchaseType      string            `json:"purchase_type" validate:"omitempty,oneof=CASH CREDIT"`
	CreditDays        int               `json:"credit_days" validate:"gte=0"`
	CashDiscount      valueobject.Money `json:"cash_discount"`
	CourierCharge     valueobject.Money `json:"courier_charge"`
	CreatedBy         string            `json:"created_by" validate:"max=100"`
	Lines             []LineRequest     `json:"lines" validate:"dive"`
}

// LineRequest is one billed product on an invoice
type LineRequest struct {
	ProductName          string            `json:"product_name" validate:"required,max=200"`
	Barcode              string            `json:"barcode" validate:"max=100"`
	BatchNumber          string            `json:"batch_number" validate:"required,max=100"`
	ExpiryDate           *time.Time        `json:"expiry_date"`
	Manufacturer         string            `json:"manufacturer" validate:"max=200"`
	HSN                  string            `json:"hsn" validate:"max=20"`
	Quantity             int64             `json:"quantity" validate:"gte=0"`
	FreeQuantity         int64             `json:"free_quantity" validate:"gte=0"`
	Rate                 valueobject.Money `json:"rate"`
	MRP                  valueobject.Money `json:"mrp"`
	TradeDiscountPercent decimal.Decimal   `json:"trade_discount_percent"`
	GSTPercent           decimal.Decimal   `json:"gst_percent"`
	UnitsPerPack         int64             `json:"units_per_pack" validate:"gte=0"`
}

func (r LineRequest) toDomain() purchasing.LineInput {
	return purchasing.LineInput{
		ProductName:          r.ProductName,
		Barcode:              r.Barcode,
		BatchNumber:          r.BatchNumber,
		ExpiryDate:           r.ExpiryDate,
		Manufacturer:         r.Manufacturer,
		HSN:                  r.HSN,
		Quantity:             r.Quantity,
		FreeQuantity:         r.FreeQuantity,
		Rate:                 r.Rate,
		MRP:                  r.MRP,
		TradeDiscountPercent: r.TradeDiscountPercent,
		GSTPercent:           r.GSTPercent,
		UnitsPerPack:         r.UnitsPerPack,
	}
}

func toLineInputs(lines []LineRequest) []purchasing.LineInput {
	inputs := make([]purchasing.LineInput, len(lines))
	for i, l := range lines {
		inputs[i] = l.toDomain()
	}
	return inputs
}

// ReplaceLinesRequest replaces every line of a DRAFT invoice
type ReplaceLinesRequest struct {
	Lines []LineRequest `json:"lines" validate:"dive"`
}

// UpdateChargesRequest changes invoice-level charges on a DRAFT invoice
type UpdateChargesRequest struct {
	CashDiscount  valueobject.Money `json:"cash_discount"`
	CourierCharge valueobject.Money `json:"courier_charge"`
}

// ReceiptResult is the outcome of completing an invoice
type ReceiptResult struct {
	InvoiceID        uuid.UUID
	Status           purchasing.InvoiceStatus
	Totals           *costing.InvoiceTotals
	AlreadyProcessed bool
	UnitsIn          int64
	LedgerEntries    []*inventory.LedgerEntry
}

// receiptInput maps a costed, completed invoice onto the stock-in pass
func receiptInput(inv *purchasing.PurchaseInvoice, actor string) appinventory.ReceiptInput {
	lines := make([]appinventory.ReceiptLine, len(inv.Lines))
	for i, l := range inv.Lines {
		lines[i] = appinventory.ReceiptLine{
			ItemName:     l.ProductName,
			BatchNumber:  l.BatchNumber,
			ExpiryDate:   l.ExpiryDate,
			UnitsIn:      l.UnitsIn(),
			UnitCost:     l.EffectiveUnitCost(),
			Rate:         l.Rate,
			MRP:          l.MRP,
			GSTPercent:   l.GSTPercent,
			UnitsPerPack: l.UnitsPerPack,
		}
	}
	return appinventory.ReceiptInput{
		InvoiceID:         inv.ID,
		Department:        inv.Department,
		SupplierName:      inv.SupplierName,
		SupplierInvoiceNo: inv.SupplierInvoiceNo,
		Actor:             actor,
		Lines:             lines,
	}
}
