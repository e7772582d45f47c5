package inventory

import (
	"sort"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// BatchDeduction is the quantity taken from one batch by a consumption
type BatchDeduction struct {
	BatchID          uuid.UUID
	BatchNumber      string
	Quantity         int64
	CostPerUnit      valueobject.Money
	TotalCost        valueobject.Money
	RemainingInBatch int64
}

// Consumption is the outcome of one consume call on an item
type Consumption struct {
	ItemID       uuid.UUID
	ItemKey      ItemKey
	Deductions   []BatchDeduction
	Quantity     int64
	TotalCost    valueobject.Money
	BalanceAfter int64
}

// fifoOrder returns drawable batches nearest expiry first. Batches without an
// expiry date go last; ties fall back to batch number then creation time.
func fifoOrder(batches []*StockBatch) []*StockBatch {
	ordered := make([]*StockBatch, 0, len(batches))
	for _, b := range batches {
		if b.HasStock() {
			ordered = append(ordered, b)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		switch {
		case a.ExpiryDate != nil && b.ExpiryDate != nil:
			if !a.ExpiryDate.Equal(*b.ExpiryDate) {
				return a.ExpiryDate.Before(*b.ExpiryDate)
			}
		case a.ExpiryDate != nil:
			return true
		case b.ExpiryDate != nil:
			return false
		}
		if a.BatchNumber != b.BatchNumber {
			return a.BatchNumber < b.BatchNumber
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return ordered
}

type plannedDeduction struct {
	batch    *StockBatch
	quantity int64
}

// planFIFO walks batches in FIFO order taking min(batch, remaining) from each.
// It does not mutate anything; available is the total drawable quantity.
func planFIFO(batches []*StockBatch, quantity int64) (plan []plannedDeduction, available int64) {
	remaining := quantity
	for _, b := range fifoOrder(batches) {
		available += b.Quantity
		if remaining == 0 {
			continue
		}
		take := min(b.Quantity, remaining)
		plan = append(plan, plannedDeduction{batch: b, quantity: take})
		remaining -= take
	}
	return plan, available
}

func applyDeductions(plan []plannedDeduction) ([]BatchDeduction, valueobject.Money) {
	deductions := make([]BatchDeduction, 0, len(plan))
	total := valueobject.Zero()
	for _, p := range plan {
		p.batch.deduct(p.quantity)
		cost := p.batch.CostPerUnit().MulInt(p.quantity).Round2()
		total = total.Add(cost)
		deductions = append(deductions, BatchDeduction{
			BatchID:          p.batch.ID,
			BatchNumber:      p.batch.BatchNumber,
			Quantity:         p.quantity,
			CostPerUnit:      p.batch.CostPerUnit(),
			TotalCost:        cost,
			RemainingInBatch: p.batch.Quantity,
		})
	}
	return deductions, total
}
