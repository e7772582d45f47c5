// Package costing holds the pure purchase-invoice costing rules: per-line base
// taxable value, proportional cash-discount allocation and GST.
// Nothing in this package touches storage.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

var hundredPercent = decimal.NewFromInt(100)

// LineInput is one purchase line as billed by the supplier
type LineInput struct {
	Rate                 valueobject.Money
	Quantity             int64
	FreeQuantity         int64
	TradeDiscountPercent decimal.Decimal
	GSTPercent           decimal.Decimal
}

// Validate rejects negative quantities, rates and percentages
func (in LineInput) Validate() error {
	if in.Rate.IsNegative() {
		return shared.NewValidationError("rate", "must not be negative, got %s", in.Rate)
	}
	if in.Quantity < 0 {
		return shared.NewValidationError("quantity", "must not be negative, got %d", in.Quantity)
	}
	if in.FreeQuantity < 0 {
		return shared.NewValidationError("free_quantity", "must not be negative, got %d", in.FreeQuantity)
	}
	if in.TradeDiscountPercent.IsNegative() || in.TradeDiscountPercent.GreaterThan(hundredPercent) {
		return shared.NewValidationError("trade_discount_percent", "must be between 0 and 100, got %s", in.TradeDiscountPercent)
	}
	if in.GSTPercent.IsNegative() {
		return shared.NewValidationError("gst_percent", "must not be negative, got %s", in.GSTPercent)
	}
	return nil
}

// Gross returns round2(rate × quantity)
func Gross(in LineInput) (valueobject.Money, error) {
	if err := in.Validate(); err != nil {
		return valueobject.Money{}, err
	}
	return in.Rate.MulInt(in.Quantity).Round2(), nil
}

// BaseTaxable returns round2(rate × quantity × (1 − trade_discount/100)).
// Free quantity is not billed and does not contribute.
func BaseTaxable(in LineInput) (valueobject.Money, error) {
	if err := in.Validate(); err != nil {
		return valueobject.Money{}, err
	}
	gross := in.Rate.MulInt(in.Quantity)
	return gross.Sub(gross.Percent(in.TradeDiscountPercent)).Round2(), nil
}
