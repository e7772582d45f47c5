package sales

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// Sale is a pharmacy dispensing. Every line is pinned to the exact batch it was
// dispensed from and freezes the unit price and GST rate charged.
type Sale struct {
	shared.BaseAggregateRoot
	VisitID     *uuid.UUID
	PatientName string
	SoldBy      string
	TotalAmount valueobject.Money
	Lines       []*SaleLine
}

// SaleLine is one dispensed batch on a sale
type SaleLine struct {
	shared.BaseEntity
	SaleID           uuid.UUID
	ItemID           uuid.UUID
	BatchID          uuid.UUID
	ItemName         string
	BatchNumber      string
	Quantity         int64
	UnitPrice        valueobject.Money
	GSTPercent       decimal.Decimal
	Amount           valueobject.Money
	ReturnedQuantity int64
}

// NewSaleLineInput describes a line being added to a sale
type NewSaleLineInput struct {
	ItemID      uuid.UUID
	BatchID     uuid.UUID
	ItemName    string
	BatchNumber string
	Quantity    int64
	UnitPrice   valueobject.Money
	GSTPercent  decimal.Decimal
}

// NewSale creates an empty sale
func NewSale(visitID *uuid.UUID, patientName, soldBy string) *Sale {
	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VisitID:           visitID,
		PatientName:       strings.TrimSpace(patientName),
		SoldBy:            soldBy,
		TotalAmount:       valueobject.Zero(),
		Lines:             make([]*SaleLine, 0),
	}
}

// AddLine appends a line and updates the sale total
func (s *Sale) AddLine(in NewSaleLineInput) (*SaleLine, error) {
	if in.BatchID == uuid.Nil {
		return nil, shared.NewValidationError("batch_id", "sale lines must name a batch")
	}
	if in.Quantity <= 0 {
		return nil, shared.NewValidationError("quantity", "must be positive, got %d", in.Quantity)
	}
	if in.UnitPrice.IsNegative() {
		return nil, shared.NewValidationError("unit_price", "must not be negative, got %s", in.UnitPrice)
	}
	if in.GSTPercent.IsNegative() {
		return nil, shared.NewValidationError("gst_percent", "must not be negative, got %s", in.GSTPercent)
	}
	line := &SaleLine{
		BaseEntity:  shared.NewBaseEntity(),
		SaleID:      s.ID,
		ItemID:      in.ItemID,
		BatchID:     in.BatchID,
		ItemName:    in.ItemName,
		BatchNumber: in.BatchNumber,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		GSTPercent:  in.GSTPercent,
		Amount:      in.UnitPrice.MulInt(in.Quantity).Round2(),
	}
	s.Lines = append(s.Lines, line)
	s.TotalAmount = s.TotalAmount.Add(line.Amount)
	return line, nil
}

// ReturnableQuantity is what may still be returned on the line
func (l *SaleLine) ReturnableQuantity() int64 {
	return l.Quantity - l.ReturnedQuantity
}

// RegisterReturn records quantity returned against the line.
// The cumulative return never exceeds the quantity sold.
func (l *SaleLine) RegisterReturn(quantity int64) error {
	if quantity <= 0 {
		return shared.NewValidationError("quantity", "must be positive, got %d", quantity)
	}
	if l.ReturnedQuantity+quantity > l.Quantity {
		return &shared.OverReturnError{
			SaleLineID:      l.ID.String(),
			Sold:            l.Quantity,
			AlreadyReturned: l.ReturnedQuantity,
			Requested:       quantity,
		}
	}
	l.ReturnedQuantity += quantity
	l.Touch()
	return nil
}

// Refund prices a return of quantity units at the sale-time price and GST rate
func (l *SaleLine) Refund(quantity int64) (refund, gstReversed valueobject.Money) {
	refund = l.UnitPrice.MulInt(quantity).Round2()
	gstReversed = refund.Percent(l.GSTPercent).Round2()
	return refund, gstReversed
}
