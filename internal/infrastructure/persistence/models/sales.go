package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/sales"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	VisitID     *uuid.UUID      `gorm:"type:uuid;index"`
	PatientName string          `gorm:"type:varchar(200)"`
	SoldBy      string          `gorm:"type:varchar(100);not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Lines       []SaleLineModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale.
func (m *SaleModel) ToDomain() *sales.Sale {
	sale := &sales.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		VisitID:           m.VisitID,
		PatientName:       m.PatientName,
		SoldBy:            m.SoldBy,
		TotalAmount:       money(m.TotalAmount),
		Lines:             make([]*sales.SaleLine, len(m.Lines)),
	}
	for i := range m.Lines {
		sale.Lines[i] = m.Lines[i].ToDomain()
	}
	return sale
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		VisitID:     s.VisitID,
		PatientName: s.PatientName,
		SoldBy:      s.SoldBy,
		TotalAmount: s.TotalAmount.Amount(),
		Lines:       make([]SaleLineModel, len(s.Lines)),
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	for i, l := range s.Lines {
		m.Lines[i] = *SaleLineModelFromDomain(l)
	}
	return m
}

// SaleLineModel is the persistence model for one dispensed batch.
type SaleLineModel struct {
	BaseModel
	SaleID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemName         string          `gorm:"type:varchar(200);not null"`
	BatchNumber      string          `gorm:"type:varchar(50);not null"`
	Quantity         int64           `gorm:"not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GSTPercent       decimal.Decimal `gorm:"column:gst_percent;type:decimal(5,2);not null;default:0"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReturnedQuantity int64           `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleLineModel) TableName() string {
	return "sale_lines"
}

// ToDomain converts the persistence model to a domain SaleLine.
func (m *SaleLineModel) ToDomain() *sales.SaleLine {
	return &sales.SaleLine{
		BaseEntity:       m.BaseModel.ToDomain(),
		SaleID:           m.SaleID,
		ItemID:           m.ItemID,
		BatchID:          m.BatchID,
		ItemName:         m.ItemName,
		BatchNumber:      m.BatchNumber,
		Quantity:         m.Quantity,
		UnitPrice:        money(m.UnitPrice),
		GSTPercent:       m.GSTPercent,
		Amount:           money(m.Amount),
		ReturnedQuantity: m.ReturnedQuantity,
	}
}

// SaleLineModelFromDomain creates a new persistence model from a domain SaleLine.
func SaleLineModelFromDomain(l *sales.SaleLine) *SaleLineModel {
	m := &SaleLineModel{
		SaleID:           l.SaleID,
		ItemID:           l.ItemID,
		BatchID:          l.BatchID,
		ItemName:         l.ItemName,
		BatchNumber:      l.BatchNumber,
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice.Amount(),
		GSTPercent:       l.GSTPercent,
		Amount:           l.Amount.Amount(),
		ReturnedQuantity: l.ReturnedQuantity,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// SaleReturnModel is the persistence model for a return against a sale line.
type SaleReturnModel struct {
	BaseModel
	SaleID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleLineID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID      uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity     int64           `gorm:"not null"`
	RefundAmount decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	GSTReversed  decimal.Decimal `gorm:"column:gst_reversed;type:decimal(18,4);not null;default:0"`
	Reason       string          `gorm:"type:varchar(500)"`
	ReturnedBy   string          `gorm:"type:varchar(100)"`
	ReturnedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleReturnModel) TableName() string {
	return "sale_returns"
}

// ToDomain converts the persistence model to a domain SaleReturn.
func (m *SaleReturnModel) ToDomain() sales.SaleReturn {
	return sales.SaleReturn{
		BaseEntity:   m.BaseModel.ToDomain(),
		SaleID:       m.SaleID,
		SaleLineID:   m.SaleLineID,
		BatchID:      m.BatchID,
		Quantity:     m.Quantity,
		RefundAmount: money(m.RefundAmount),
		GSTReversed:  money(m.GSTReversed),
		Reason:       m.Reason,
		ReturnedBy:   m.ReturnedBy,
		ReturnedAt:   m.ReturnedAt,
	}
}

// SaleReturnModelFromDomain creates a new persistence model from a domain SaleReturn.
func SaleReturnModelFromDomain(r *sales.SaleReturn) *SaleReturnModel {
	m := &SaleReturnModel{
		SaleID:       r.SaleID,
		SaleLineID:   r.SaleLineID,
		BatchID:      r.BatchID,
		Quantity:     r.Quantity,
		RefundAmount: r.RefundAmount.Amount(),
		GSTReversed:  r.GSTReversed.Amount(),
		Reason:       r.Reason,
		ReturnedBy:   r.ReturnedBy,
		ReturnedAt:   r.ReturnedAt,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
