package inventory

import (
	"context"

	"github.com/hms/backend/internal/domain/inventory"
	"github.com/hms/backend/internal/domain/sales"
)

// TransactionScope runs a unit of work against repositories bound to one
// database transaction. The transaction commits when fn returns nil and
// rolls back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories are the repositories available inside a transaction
type TransactionalRepositories interface {
	InventoryRepo() inventory.InventoryItemRepository
	LedgerRepo() inventory.LedgerRepository
	SaleRepo() sales.SaleRepository
	RecipeRepo() inventory.LabRecipeRepository
}

// NoOpTransactionScope runs fn directly against a fixed set of repositories.
// Used by unit tests with in-memory repositories.
type NoOpTransactionScope struct {
	repos TransactionalRepositories
}

// NewNoOpTransactionScope creates a scope without transaction semantics
func NewNoOpTransactionScope(repos TransactionalRepositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn with the fixed repositories
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}
