package sales

import (
	"time"

	"github.com/google/uuid"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// SaleReturn is the record of units handed back against one sale line
type SaleReturn struct {
	shared.BaseEntity
	SaleID       uuid.UUID
	SaleLineID   uuid.UUID
	BatchID      uuid.UUID
	Quantity     int64
	RefundAmount valueobject.Money
	GSTReversed  valueobject.Money
	Reason       string
	ReturnedBy   string
	ReturnedAt   time.Time
}

// NewSaleReturn registers the return on the line and prices the refund.
// The line is left untouched when the return is rejected.
func NewSaleReturn(line *SaleLine, quantity int64, reason, returnedBy string) (*SaleReturn, error) {
	if err := line.RegisterReturn(quantity); err != nil {
		return nil, err
	}
	refund, gst := line.Refund(quantity)
	return &SaleReturn{
		BaseEntity:   shared.NewBaseEntity(),
		SaleID:       line.SaleID,
		SaleLineID:   line.ID,
		BatchID:      line.BatchID,
		Quantity:     quantity,
		RefundAmount: refund,
		GSTReversed:  gst,
		Reason:       reason,
		ReturnedBy:   returnedBy,
		ReturnedAt:   time.Now(),
	}, nil
}

// TotalRefund is the refund including reversed GST
func (r *SaleReturn) TotalRefund() valueobject.Money {
	return r.RefundAmount.Add(r.GSTReversed)
}
