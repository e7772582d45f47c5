package purchasing

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseInvoiceRepository persists invoices together with their lines
type PurchaseInvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseInvoice, error)

	// FindByIDForUpdate loads the invoice holding its row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseInvoice, error)

	Create(ctx context.Context, invoice *PurchaseInvoice) error

	// Save writes the header and replaces the stored lines with invoice.Lines
	Save(ctx context.Context, invoice *PurchaseInvoice) error
}
