package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/purchasing"
)

// PurchaseInvoiceModel is the persistence model for the PurchaseInvoice aggregate root.
type PurchaseInvoiceModel struct {
	AggregateModel
	Department        string          `gorm:"type:varchar(20);not null;index"`
	SupplierID        *uuid.UUID      `gorm:"type:uuid;index"`
	SupplierName      string          `gorm:"type:varchar(200);not null"`
	SupplierInvoiceNo string          `gorm:"type:varchar(100);not null;index"`
	InvoiceDate       time.Time       `gorm:"type:date;not null"`
	PurchaseType      string          `gorm:"type:varchar(10);not null;default:'CASH'"`
	CreditDays        int             `gorm:"not null;default:0"`
	CashDiscount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CourierCharge     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status            string          `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CostedAt          *time.Time
	CompletedAt       *time.Time
	StockReceivedAt   *time.Time
	CreatedBy         string              `gorm:"type:varchar(100)"`
	Lines             []PurchaseLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseInvoiceModel) TableName() string {
	return "purchase_invoices"
}

// ToDomain converts the persistence model to a domain PurchaseInvoice.
// Lines must be loaded ordered by line number.
func (m *PurchaseInvoiceModel) ToDomain() *purchasing.PurchaseInvoice {
	inv := &purchasing.PurchaseInvoice{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Department:        inventory.Department(m.Department),
		SupplierID:        m.SupplierID,
		SupplierName:      m.SupplierName,
		SupplierInvoiceNo: m.SupplierInvoiceNo,
		InvoiceDate:       m.InvoiceDate,
		PurchaseType:      purchasing.PurchaseType(m.PurchaseType),
		CreditDays:        m.CreditDays,
		CashDiscount:      money(m.CashDiscount),
		CourierCharge:     money(m.CourierCharge),
		TotalAmount:       money(m.TotalAmount),
		Status:            purchasing.InvoiceStatus(m.Status),
		CostedAt:          m.CostedAt,
		CompletedAt:       m.CompletedAt,
		StockReceivedAt:   m.StockReceivedAt,
		CreatedBy:         m.CreatedBy,
		Lines:             make([]*purchasing.PurchaseLine, len(m.Lines)),
	}
	for i := range m.Lines {
		inv.Lines[i] = m.Lines[i].ToDomain()
	}
	return inv
}

// FromDomain populates the header columns from a domain PurchaseInvoice.
func (m *PurchaseInvoiceModel) FromDomain(p *purchasing.PurchaseInvoice) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.Department = string(p.Department)
	m.SupplierID = p.SupplierID
	m.SupplierName = p.SupplierName
	m.SupplierInvoiceNo = p.SupplierInvoiceNo
	m.InvoiceDate = p.InvoiceDate
	m.PurchaseType = string(p.PurchaseType)
	m.CreditDays = p.CreditDays
	m.CashDiscount = p.CashDiscount.Amount()
	m.CourierCharge = p.CourierCharge.Amount()
	m.TotalAmount = p.TotalAmount.Amount()
	m.Status = string(p.Status)
	m.CostedAt = p.CostedAt
	m.CompletedAt = p.CompletedAt
	m.StockReceivedAt = p.StockReceivedAt
	m.CreatedBy = p.CreatedBy
}

// PurchaseInvoiceModelFromDomain creates a header model and its line models.
func PurchaseInvoiceModelFromDomain(p *purchasing.PurchaseInvoice) *PurchaseInvoiceModel {
	m := &PurchaseInvoiceModel{}
	m.FromDomain(p)
	m.Lines = make([]PurchaseLineModel, len(p.Lines))
	for i, l := range p.Lines {
		m.Lines[i] = *PurchaseLineModelFromDomain(l)
	}
	return m
}

// PurchaseLineModel is the persistence model for a billed invoice line.
type PurchaseLineModel struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID             uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_line_no,priority:1"`
	LineNo                int             `gorm:"not null;uniqueIndex:idx_purchase_line_no,priority:2"`
	ProductName           string          `gorm:"type:varchar(200);not null"`
	Barcode               string          `gorm:"type:varchar(50)"`
	BatchNumber           string          `gorm:"type:varchar(50);not null"`
	ExpiryDate            *time.Time      `gorm:"type:date"`
	Manufacturer          string          `gorm:"type:varchar(200)"`
	HSN                   string          `gorm:"column:hsn;type:varchar(20)"`
	Quantity              int64           `gorm:"not null"`
	FreeQuantity          int64           `gorm:"not null;default:0"`
	Rate                  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	MRP                   decimal.Decimal `gorm:"column:mrp;type:decimal(18,4);not null;default:0"`
	TradeDiscountPercent  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	GSTPercent            decimal.Decimal `gorm:"column:gst_percent;type:decimal(5,2);not null;default:0"`
	UnitsPerPack          int64           `gorm:"not null;default:1"`
	Gross                 decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	BaseTaxable           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AllocatedCashDiscount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxableAmount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GSTAmount             decimal.Decimal `gorm:"column:gst_amount;type:decimal(18,4);not null;default:0"`
	TotalAmount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PurchaseLineModel) TableName() string {
	return "purchase_lines"
}

// ToDomain converts the persistence model to a domain PurchaseLine.
func (m *PurchaseLineModel) ToDomain() *purchasing.PurchaseLine {
	return &purchasing.PurchaseLine{
		ID:                    m.ID,
		InvoiceID:             m.InvoiceID,
		LineNo:                m.LineNo,
		ProductName:           m.ProductName,
		Barcode:               m.Barcode,
		BatchNumber:           m.BatchNumber,
		ExpiryDate:            m.ExpiryDate,
		Manufacturer:          m.Manufacturer,
		HSN:                   m.HSN,
		Quantity:              m.Quantity,
		FreeQuantity:          m.FreeQuantity,
		Rate:                  money(m.Rate),
		MRP:                   money(m.MRP),
		TradeDiscountPercent:  m.TradeDiscountPercent,
		GSTPercent:            m.GSTPercent,
		UnitsPerPack:          m.UnitsPerPack,
		Gross:                 money(m.Gross),
		BaseTaxable:           money(m.BaseTaxable),
		AllocatedCashDiscount: money(m.AllocatedCashDiscount),
		TaxableAmount:         money(m.TaxableAmount),
		GSTAmount:             money(m.GSTAmount),
		TotalAmount:           money(m.TotalAmount),
	}
}

// PurchaseLineModelFromDomain creates a new persistence model from a domain PurchaseLine.
func PurchaseLineModelFromDomain(l *purchasing.PurchaseLine) *PurchaseLineModel {
	return &PurchaseLineModel{
		ID:                    l.ID,
		InvoiceID:             l.InvoiceID,
		LineNo:                l.LineNo,
		ProductName:           l.ProductName,
		Barcode:               l.Barcode,
		BatchNumber:           l.BatchNumber,
		ExpiryDate:            l.ExpiryDate,
		Manufacturer:          l.Manufacturer,
		HSN:                   l.HSN,
		Quantity:              l.Quantity,
		FreeQuantity:          l.FreeQuantity,
		Rate:                  l.Rate.Amount(),
		MRP:                   l.MRP.Amount(),
		TradeDiscountPercent:  l.TradeDiscountPercent,
		GSTPercent:            l.GSTPercent,
		UnitsPerPack:          l.UnitsPerPack,
		Gross:                 l.Gross.Amount(),
		BaseTaxable:           l.BaseTaxable.Amount(),
		AllocatedCashDiscount: l.AllocatedCashDiscount.Amount(),
		TaxableAmount:         l.TaxableAmount.Amount(),
		GSTAmount:             l.GSTAmount.Amount(),
		TotalAmount:           l.TotalAmount.Amount(),
	}
}
