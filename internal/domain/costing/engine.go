package costing

import (
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// InvoiceInput is everything the engine needs to cost one invoice.
// Lines are costed, and the cash discount allocated, in slice order.
type InvoiceInput struct {
	CashDiscount  valueobject.Money
	CourierCharge valueobject.Money
	Lines         []LineInput
}

// LineTotals holds the derived values of one line
type LineTotals struct {
	Gross                 valueobject.Money
	BaseTaxable           valueobject.Money
	AllocatedCashDiscount valueobject.Money
	TaxableAmount         valueobject.Money
	GSTAmount             valueobject.Money
	TotalAmount           valueobject.Money
}

// InvoiceTotals is the result of costing an invoice
type InvoiceTotals struct {
	Lines         []LineTotals
	CashDiscount  valueobject.Money
	CourierCharge valueobject.Money
	TaxableAmount valueobject.Money
	GSTAmount     valueobject.Money
	TotalAmount   valueobject.Money
}

// Engine costs purchase invoices
type Engine struct{}

// NewEngine creates a costing engine
func NewEngine() *Engine {
	return &Engine{}
}

// Cost computes per-line and invoice totals.
//
// GST is taken on the discounted taxable value before it is rounded; only the
// GST figure itself is rounded. The discounted taxable value never goes below
// zero. An invoice without lines totals its courier charge.
func (e *Engine) Cost(in InvoiceInput) (*InvoiceTotals, error) {
	if in.CashDiscount.IsNegative() {
		return nil, shared.NewValidationError("cash_discount", "must not be negative, got %s", in.CashDiscount)
	}
	if in.CourierCharge.IsNegative() {
		return nil, shared.NewValidationError("courier_charge", "must not be negative, got %s", in.CourierCharge)
	}

	totals := &InvoiceTotals{
		Lines:         make([]LineTotals, len(in.Lines)),
		CashDiscount:  in.CashDiscount.Round2(),
		CourierCharge: in.CourierCharge.Round2(),
		TaxableAmount: valueobject.Zero(),
		GSTAmount:     valueobject.Zero(),
	}
	if len(in.Lines) == 0 {
		totals.TotalAmount = totals.CourierCharge
		return totals, nil
	}

	bases := make([]valueobject.Money, len(in.Lines))
	for i, line := range in.Lines {
		base, err := BaseTaxable(line)
		if err != nil {
			return nil, err
		}
		gross, err := Gross(line)
		if err != nil {
			return nil, err
		}
		bases[i] = base
		totals.Lines[i].Gross = gross
		totals.Lines[i].BaseTaxable = base
	}

	allocations, err := AllocateCashDiscount(bases, totals.CashDiscount)
	if err != nil {
		return nil, err
	}

	linesTotal := valueobject.Zero()
	for i, line := range in.Lines {
		lt := &totals.Lines[i]
		lt.AllocatedCashDiscount = allocations[i]

		discounted := lt.BaseTaxable.Sub(allocations[i]).ClampZero()
		lt.GSTAmount = gstOn(discounted, line.GSTPercent)
		lt.TaxableAmount = discounted.Round2()
		lt.TotalAmount = lt.TaxableAmount.Add(lt.GSTAmount)

		totals.TaxableAmount = totals.TaxableAmount.Add(lt.TaxableAmount)
		totals.GSTAmount = totals.GSTAmount.Add(lt.GSTAmount)
		linesTotal = linesTotal.Add(lt.TotalAmount)
	}
	totals.TotalAmount = linesTotal.Add(totals.CourierCharge)
	return totals, nil
}

func gstOn(taxable valueobject.Money, percent decimal.Decimal) valueobject.Money {
	return taxable.Percent(percent).Round2()
}
