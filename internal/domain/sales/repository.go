package sales

import (
	"context"

	"github.com/google/uuid"
)

// SaleRepository persists sales, their lines and returns
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// LockLine loads a sale line with an exclusive row lock for the rest of the transaction
	LockLine(ctx context.Context, lineID uuid.UUID) (*SaleLine, error)
	SaveLine(ctx context.Context, line *SaleLine) error

	CreateReturn(ctx context.Context, ret *SaleReturn) error
	FindReturnsByLine(ctx context.Context, lineID uuid.UUID) ([]SaleReturn, error)
}
