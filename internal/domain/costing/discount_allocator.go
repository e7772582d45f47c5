package costing

import (
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AllocateCashDiscount spreads an invoice-level cash discount over lines in
// proportion to their base taxable values.
//
// bases is in allocation order: every line but the last receives
// round2(base × discount / pool) and the last line receives whatever is left,
// so the allocations always sum to discount exactly. A zero pool allocates
// nothing to any line.
func AllocateCashDiscount(bases []valueobject.Money, discount valueobject.Money) ([]valueobject.Money, error) {
	if discount.IsNegative() {
		return nil, shared.NewValidationError("cash_discount", "must not be negative, got %s", discount)
	}
	allocations := make([]valueobject.Money, len(bases))
	for i := range allocations {
		allocations[i] = valueobject.Zero()
	}
	if len(bases) == 0 {
		return allocations, nil
	}

	pool := valueobject.Sum(bases...)
	if pool.IsZero() {
		return allocations, nil
	}

	remaining := discount
	last := len(bases) - 1
	for i, base := range bases[:last] {
		share, err := base.MulDecimal(discount.Amount()).Div(pool.Amount())
		if err != nil {
			return nil, err
		}
		allocations[i] = share.Round2()
		remaining = remaining.Sub(allocations[i])
	}
	allocations[last] = remaining

	if err := checkAllocation(allocations, discount); err != nil {
		return nil, err
	}
	return allocations, nil
}

func checkAllocation(allocations []valueobject.Money, discount valueobject.Money) error {
	total := valueobject.Sum(allocations...)
	if !total.Equals(discount) {
		return &shared.AllocationInvariantError{
			Expected:  discount.String(),
			Allocated: total.String(),
		}
	}
	return nil
}
