package purchasing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/costing"
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus is the lifecycle state of a purchase invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusCompleted InvoiceStatus = "COMPLETED"
)

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusDraft || s == InvoiceStatusCompleted
}

// CanTransitionTo checks if the status can move to target. COMPLETED is terminal.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return s == InvoiceStatusDraft && target == InvoiceStatusCompleted
}

// PurchaseType is how the supplier is paid
type PurchaseType string

const (
	PurchaseTypeCash   PurchaseType = "CASH"
	PurchaseTypeCredit PurchaseType = "CREDIT"
)

// IsValid checks if the purchase type is known
func (p PurchaseType) IsValid() bool {
	return p == PurchaseTypeCash || p == PurchaseTypeCredit
}

// PurchaseLine is one billed product on a supplier invoice.
// The derived amounts are written only by ApplyCosting.
type PurchaseLine struct {
	ID                   uuid.UUID
	InvoiceID            uuid.UUID
	LineNo               int
	ProductName          string
	Barcode              string
	BatchNumber          string
	ExpiryDate           *time.Time
	Manufacturer         string
	HSN                  string
	Quantity             int64
	FreeQuantity         int64
	Rate                 valueobject.Money
	MRP                  valueobject.Money
	TradeDiscountPercent decimal.Decimal
	GSTPercent           decimal.Decimal
	UnitsPerPack         int64

	Gross                 valueobject.Money
	BaseTaxable           valueobject.Money
	AllocatedCashDiscount valueobject.Money
	TaxableAmount         valueobject.Money
	GSTAmount             valueobject.Money
	TotalAmount           valueobject.Money
}

// LineInput is the caller's description of a purchase line
type LineInput struct {
	ProductName          string
	Barcode              string
	BatchNumber          string
	ExpiryDate           *time.Time
	Manufacturer         string
	HSN                  string
	Quantity             int64
	FreeQuantity         int64
	Rate                 valueobject.Money
	MRP                  valueobject.Money
	TradeDiscountPercent decimal.Decimal
	GSTPercent           decimal.Decimal
	UnitsPerPack         int64
}

func newPurchaseLine(invoiceID uuid.UUID, lineNo int, in LineInput) (*PurchaseLine, error) {
	if strings.TrimSpace(in.ProductName) == "" {
		return nil, shared.NewValidationError("product_name", "line %d: cannot be empty", lineNo)
	}
	if strings.TrimSpace(in.BatchNumber) == "" {
		return nil, shared.NewValidationError("batch_number", "line %d: cannot be empty", lineNo)
	}
	if in.MRP.IsNegative() {
		return nil, shared.NewValidationError("mrp", "line %d: must not be negative", lineNo)
	}
	unitsPerPack := in.UnitsPerPack
	if unitsPerPack == 0 {
		unitsPerPack = 1
	}
	if unitsPerPack < 0 {
		return nil, shared.NewValidationError("units_per_pack", "line %d: must be positive", lineNo)
	}
	line := &PurchaseLine{
		ID:                   uuid.New(),
		InvoiceID:            invoiceID,
		LineNo:               lineNo,
		ProductName:          strings.TrimSpace(in.ProductName),
		Barcode:              in.Barcode,
		BatchNumber:          strings.TrimSpace(in.BatchNumber),
		ExpiryDate:           in.ExpiryDate,
		Manufacturer:         in.Manufacturer,
		HSN:                  in.HSN,
		Quantity:             in.Quantity,
		FreeQuantity:         in.FreeQuantity,
		Rate:                 in.Rate,
		MRP:                  in.MRP,
		TradeDiscountPercent: in.TradeDiscountPercent,
		GSTPercent:           in.GSTPercent,
		UnitsPerPack:         unitsPerPack,
	}
	if err := line.CostingInput().Validate(); err != nil {
		return nil, err
	}
	line.resetDerived()
	return line, nil
}

// CostingInput maps the line onto the costing engine's input
func (l *PurchaseLine) CostingInput() costing.LineInput {
	return costing.LineInput{
		Rate:                 l.Rate,
		Quantity:             l.Quantity,
		FreeQuantity:         l.FreeQuantity,
		TradeDiscountPercent: l.TradeDiscountPercent,
		GSTPercent:           l.GSTPercent,
	}
}

// ReceivedPacks is paid plus free quantity
func (l *PurchaseLine) ReceivedPacks() int64 {
	return l.Quantity + l.FreeQuantity
}

// UnitsIn is the number of consumable units the line adds to stock
func (l *PurchaseLine) UnitsIn() int64 {
	return l.ReceivedPacks() * l.UnitsPerPack
}

// EffectiveUnitCost spreads the net taxable cost over paid and free packs.
// Lines with nothing received fall back to the billed rate.
func (l *PurchaseLine) EffectiveUnitCost() valueobject.Money {
	packs := l.ReceivedPacks()
	if packs == 0 {
		return l.Rate
	}
	cost, err := l.TaxableAmount.DivInt(packs)
	if err != nil {
		return l.Rate
	}
	return cost.Round2()
}

func (l *PurchaseLine) resetDerived() {
	l.Gross = valueobject.Zero()
	l.BaseTaxable = valueobject.Zero()
	l.AllocatedCashDiscount = valueobject.Zero()
	l.TaxableAmount = valueobject.Zero()
	l.GSTAmount = valueobject.Zero()
	l.TotalAmount = valueobject.Zero()
}

// PurchaseInvoice is a supplier invoice. While DRAFT its lines may be replaced
// wholesale; once COMPLETED it is immutable and has driven exactly one stock receipt.
type PurchaseInvoice struct {
	shared.BaseAggregateRoot
	Department        inventory.Department
	SupplierID        *uuid.UUID
	SupplierName      string
	SupplierInvoiceNo string
	InvoiceDate       time.Time
	PurchaseType      PurchaseType
	CreditDays        int
	CashDiscount      valueobject.Money
	CourierCharge     valueobject.Money
	TotalAmount       valueobject.Money
	Status            InvoiceStatus
	CostedAt          *time.Time
	CompletedAt       *time.Time
	StockReceivedAt   *time.Time
	CreatedBy         string
	Lines             []*PurchaseLine
}

// NewInvoiceInput carries the header of a new invoice
type NewInvoiceInput struct {
	Department        inventory.Department
	SupplierID        *uuid.UUID
	SupplierName      string
	SupplierInvoiceNo string
	InvoiceDate       time.Time
	PurchaseType      PurchaseType
	CreditDays        int
	CashDiscount      valueobject.Money
	CourierCharge     valueobject.Money
	CreatedBy         string
}

// NewPurchaseInvoice creates a DRAFT invoice without lines
func NewPurchaseInvoice(in NewInvoiceInput) (*PurchaseInvoice, error) {
	if !in.Department.IsValid() {
		return nil, shared.NewValidationError("department", "unknown department %q", in.Department)
	}
	if strings.TrimSpace(in.SupplierName) == "" {
		return nil, shared.NewValidationError("supplier_name", "cannot be empty")
	}
	if strings.TrimSpace(in.SupplierInvoiceNo) == "" {
		return nil, shared.NewValidationError("supplier_invoice_no", "cannot be empty")
	}
	purchaseType := in.PurchaseType
	if purchaseType == "" {
		purchaseType = PurchaseTypeCash
	}
	if !purchaseType.IsValid() {
		return nil, shared.NewValidationError("purchase_type", "unknown purchase type %q", in.PurchaseType)
	}
	if in.CreditDays < 0 {
		return nil, shared.NewValidationError("credit_days", "must not be negative")
	}
	if in.CashDiscount.IsNegative() {
		return nil, shared.NewValidationError("cash_discount", "must not be negative")
	}
	if in.CourierCharge.IsNegative() {
		return nil, shared.NewValidationError("courier_charge", "must not be negative")
	}
	invoiceDate := in.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now()
	}
	return &PurchaseInvoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Department:        in.Department,
		SupplierID:        in.SupplierID,
		SupplierName:      strings.TrimSpace(in.SupplierName),
		SupplierInvoiceNo: strings.TrimSpace(in.SupplierInvoiceNo),
		InvoiceDate:       invoiceDate,
		PurchaseType:      purchaseType,
		CreditDays:        in.CreditDays,
		CashDiscount:      in.CashDiscount.Round2(),
		CourierCharge:     in.CourierCharge.Round2(),
		TotalAmount:       valueobject.Zero(),
		Status:            InvoiceStatusDraft,
		CreatedBy:         in.CreatedBy,
		Lines:             make([]*PurchaseLine, 0),
	}, nil
}

// IsDraft returns true while the invoice can be edited
func (p *PurchaseInvoice) IsDraft() bool {
	return p.Status == InvoiceStatusDraft
}

// IsCompleted returns true once the invoice is final
func (p *PurchaseInvoice) IsCompleted() bool {
	return p.Status == InvoiceStatusCompleted
}

// IsStockReceived returns true once the receipt pass has run
func (p *PurchaseInvoice) IsStockReceived() bool {
	return p.StockReceivedAt != nil
}

// DueDate is the payment due date for credit purchases
func (p *PurchaseInvoice) DueDate() *time.Time {
	if p.PurchaseType != PurchaseTypeCredit {
		return nil
	}
	due := p.InvoiceDate.AddDate(0, 0, p.CreditDays)
	return &due
}

// ReplaceLines swaps every line for the given ones, numbered in submission order.
// Costing must be run again afterwards.
func (p *PurchaseInvoice) ReplaceLines(inputs []LineInput) error {
	if !p.IsDraft() {
		return shared.ErrInvoiceNotEditable
	}
	lines := make([]*PurchaseLine, 0, len(inputs))
	for i, in := range inputs {
		line, err := newPurchaseLine(p.ID, i+1, in)
		if err != nil {
			return err
		}
		lines = append(lines, line)
	}
	p.Lines = lines
	p.TotalAmount = valueobject.Zero()
	p.CostedAt = nil
	p.changed()
	return nil
}

// UpdateCharges changes the invoice-level discount and courier charge on a draft
func (p *PurchaseInvoice) UpdateCharges(cashDiscount, courierCharge valueobject.Money) error {
	if !p.IsDraft() {
		return shared.ErrInvoiceNotEditable
	}
	if cashDiscount.IsNegative() {
		return shared.NewValidationError("cash_discount", "must not be negative")
	}
	if courierCharge.IsNegative() {
		return shared.NewValidationError("courier_charge", "must not be negative")
	}
	p.CashDiscount = cashDiscount.Round2()
	p.CourierCharge = courierCharge.Round2()
	p.CostedAt = nil
	p.changed()
	return nil
}

// CostingInput maps the invoice onto the costing engine's input, lines in LineNo order
func (p *PurchaseInvoice) CostingInput() costing.InvoiceInput {
	lines := make([]costing.LineInput, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = l.CostingInput()
	}
	return costing.InvoiceInput{
		CashDiscount:  p.CashDiscount,
		CourierCharge: p.CourierCharge,
		Lines:         lines,
	}
}

// ApplyCosting stores the engine's results on the lines and the invoice total
func (p *PurchaseInvoice) ApplyCosting(totals *costing.InvoiceTotals) error {
	if !p.IsDraft() {
		return shared.ErrInvoiceNotEditable
	}
	if len(totals.Lines) != len(p.Lines) {
		return fmt.Errorf("costing returned %d lines for %d invoice lines", len(totals.Lines), len(p.Lines))
	}
	for i, lt := range totals.Lines {
		l := p.Lines[i]
		l.Gross = lt.Gross
		l.BaseTaxable = lt.BaseTaxable
		l.AllocatedCashDiscount = lt.AllocatedCashDiscount
		l.TaxableAmount = lt.TaxableAmount
		l.GSTAmount = lt.GSTAmount
		l.TotalAmount = lt.TotalAmount
	}
	p.TotalAmount = totals.TotalAmount
	now := time.Now()
	p.CostedAt = &now
	p.changed()
	p.AddDomainEvent(NewPurchaseInvoiceCostedEvent(p))
	return nil
}

// Totals rebuilds the engine result from the stored derived fields
func (p *PurchaseInvoice) Totals() *costing.InvoiceTotals {
	totals := &costing.InvoiceTotals{
		Lines:         make([]costing.LineTotals, len(p.Lines)),
		CashDiscount:  p.CashDiscount,
		CourierCharge: p.CourierCharge,
		TaxableAmount: valueobject.Zero(),
		GSTAmount:     valueobject.Zero(),
		TotalAmount:   p.TotalAmount,
	}
	for i, l := range p.Lines {
		totals.Lines[i] = costing.LineTotals{
			Gross:                 l.Gross,
			BaseTaxable:           l.BaseTaxable,
			AllocatedCashDiscount: l.AllocatedCashDiscount,
			TaxableAmount:         l.TaxableAmount,
			GSTAmount:             l.GSTAmount,
			TotalAmount:           l.TotalAmount,
		}
		totals.TaxableAmount = totals.TaxableAmount.Add(l.TaxableAmount)
		totals.GSTAmount = totals.GSTAmount.Add(l.GSTAmount)
	}
	return totals
}

// Complete moves a costed DRAFT invoice to COMPLETED
func (p *PurchaseInvoice) Complete() error {
	if !p.Status.CanTransitionTo(InvoiceStatusCompleted) {
		return fmt.Errorf("cannot complete invoice in %s status: %w", p.Status, shared.ErrInvalidStateTransition)
	}
	if p.CostedAt == nil {
		return shared.NewDomainError("INVOICE_NOT_COSTED", "Invoice must be costed before completion")
	}
	now := time.Now()
	p.Status = InvoiceStatusCompleted
	p.CompletedAt = &now
	p.changed()
	p.AddDomainEvent(NewPurchaseInvoiceCompletedEvent(p))
	return nil
}

// MarkStockReceived records that the receipt pass ran. It can happen only once.
func (p *PurchaseInvoice) MarkStockReceived() error {
	if !p.IsCompleted() {
		return fmt.Errorf("stock can only be received for completed invoices: %w", shared.ErrInvalidState)
	}
	if p.IsStockReceived() {
		return fmt.Errorf("stock already received for invoice %s: %w", p.SupplierInvoiceNo, shared.ErrInvalidState)
	}
	now := time.Now()
	p.StockReceivedAt = &now
	p.changed()
	return nil
}

func (p *PurchaseInvoice) changed() {
	p.Touch()
	p.IncrementVersion()
}
