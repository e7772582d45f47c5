package persistence

import (
	"context"

	"gorm.io/gorm"

	appinventory "github.com/hms/backend/internal/application/inventory"
	apppurchasing "github.com/hms/backend/internal/application/purchasing"
	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/purchasing"
	"github.com/hms/backend/internal/domain/sales"
)

// GormTransactionScope implements both the stock and the purchasing
// TransactionScope using GORM transactions. Repositories handed to fn are
// bound to the transaction; it commits when fn returns nil.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// Purchasing returns the scope as seen by the purchasing services
func (s *GormTransactionScope) Purchasing() *GormPurchasingTransactionScope {
	return &GormPurchasingTransactionScope{db: s.db}
}

// GormPurchasingTransactionScope adds the invoice repository to the transaction
type GormPurchasingTransactionScope struct {
	db *gorm.DB
}

// NewGormPurchasingTransactionScope creates a new GormPurchasingTransactionScope.
func NewGormPurchasingTransactionScope(db *gorm.DB) *GormPurchasingTransactionScope {
	return &GormPurchasingTransactionScope{db: db}
}

// Execute runs fn within a database transaction
func (s *GormPurchasingTransactionScope) Execute(ctx context.Context, fn func(repos apppurchasing.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// InventoryRepo returns the inventory item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InventoryRepo() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

// LedgerRepo returns the ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LedgerRepo() inventory.LedgerRepository {
	return NewGormLedgerRepository(r.tx)
}

// SaleRepo returns the sale repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

// RecipeRepo returns the lab recipe repository scoped to the current transaction.
func (r *gormTransactionalRepositories) RecipeRepo() inventory.LabRecipeRepository {
	return NewGormLabRecipeRepository(r.tx)
}

// InvoiceRepo returns the purchase invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() purchasing.PurchaseInvoiceRepository {
	return NewGormPurchaseInvoiceRepository(r.tx)
}

var (
	_ appinventory.TransactionScope           = (*GormTransactionScope)(nil)
	_ apppurchasing.TransactionScope          = (*GormPurchasingTransactionScope)(nil)
	_ apppurchasing.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
