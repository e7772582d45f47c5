package purchasing

import (
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

// AggregateTypePurchaseInvoice names the aggregate in events
const AggregateTypePurchaseInvoice = "PurchaseInvoice"

// Event type constants
const (
	EventTypePurchaseInvoiceCosted    = "PurchaseInvoiceCosted"
	EventTypePurchaseInvoiceCompleted = "PurchaseInvoiceCompleted"
)

// PurchaseInvoiceCostedEvent is raised after costing rewrites the invoice totals
type PurchaseInvoiceCostedEvent struct {
	shared.BaseDomainEvent
	SupplierInvoiceNo string            `json:"supplier_invoice_no"`
	LineCount         int               `json:"line_count"`
	TotalAmount       valueobject.Money `json:"total_amount"`
}

// NewPurchaseInvoiceCostedEvent creates a PurchaseInvoiceCostedEvent
func NewPurchaseInvoiceCostedEvent(p *PurchaseInvoice) *PurchaseInvoiceCostedEvent {
	return &PurchaseInvoiceCostedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePurchaseInvoiceCosted, AggregateTypePurchaseInvoice, p.ID),
		SupplierInvoiceNo: p.SupplierInvoiceNo,
		LineCount:         len(p.Lines),
		TotalAmount:       p.TotalAmount,
	}
}

// PurchaseInvoiceCompletedEvent is raised on the DRAFT to COMPLETED transition
type PurchaseInvoiceCompletedEvent struct {
	shared.BaseDomainEvent
	Department        inventory.Department `json:"department"`
	SupplierName      string               `json:"supplier_name"`
	SupplierInvoiceNo string               `json:"supplier_invoice_no"`
	PurchaseType      PurchaseType         `json:"purchase_type"`
	TotalAmount       valueobject.Money    `json:"total_amount"`
}

// NewPurchaseInvoiceCompletedEvent creates a PurchaseInvoiceCompletedEvent
func NewPurchaseInvoiceCompletedEvent(p *PurchaseInvoice) *PurchaseInvoiceCompletedEvent {
	return &PurchaseInvoiceCompletedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypePurchaseInvoiceCompleted, AggregateTypePurchaseInvoice, p.ID),
		Department:        p.Department,
		SupplierName:      p.SupplierName,
		SupplierInvoiceNo: p.SupplierInvoiceNo,
		PurchaseType:      p.PurchaseType,
		TotalAmount:       p.TotalAmount,
	}
}
