package purchasing

import (
	"context"

	appinventory "github.com/hms/backend/internal/application/inventory"
	"github.com/hms/backend/internal/domain/purchasing"
)

// TransactionalRepositories extends the stock repositories with invoices, so
// completing an invoice and receiving its stock share one transaction
type TransactionalRepositories interface {
	appinventory.TransactionalRepositories
	InvoiceRepo() purchasing.PurchaseInvoiceRepository
}

// TransactionScope runs fn in one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}
