package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/sales"
	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func TestGormSaleRepository(t *testing.T) {
	db := newTestDatabase(t)
	repo := NewGormSaleRepository(db.DB)
	ctx := context.Background()

	visit := uuid.New()
	sale := sales.NewSale(&visit, "R. Iyer", "pharmacist")
	line, err := sale.AddLine(sales.NewSaleLineInput{
		ItemID:      uuid.New(),
		BatchID:     uuid.New(),
		ItemName:    "Pantoprazole 40",
		BatchNumber: "P-77",
		Quantity:    10,
		UnitPrice:   valueobject.MustMoney("6.45"),
		GSTPercent:  decimal.NewFromInt(12),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, sale))

	t.Run("find by id", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, "R. Iyer", loaded.PatientName)
		require.NotNil(t, loaded.VisitID)
		assert.Equal(t, visit, *loaded.VisitID)
		assert.Equal(t, "64.50", loaded.TotalAmount.String())
		require.Len(t, loaded.Lines, 1)
		assert.Equal(t, line.BatchID, loaded.Lines[0].BatchID)
		assert.True(t, loaded.Lines[0].GSTPercent.Equal(decimal.NewFromInt(12)))
	})

	t.Run("lock line, return and save", func(t *testing.T) {
		locked, err := repo.LockLine(ctx, line.ID)
		require.NoError(t, err)
		ret, err := sales.NewSaleReturn(locked, 4, "wrong strength", "pharmacist")
		require.NoError(t, err)
		require.NoError(t, repo.SaveLine(ctx, locked))
		require.NoError(t, repo.CreateReturn(ctx, ret))

		again, err := repo.LockLine(ctx, line.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), again.ReturnedQuantity)
		assert.Equal(t, int64(6), again.ReturnableQuantity())

		returns, err := repo.FindReturnsByLine(ctx, line.ID)
		require.NoError(t, err)
		require.Len(t, returns, 1)
		assert.Equal(t, "25.80", returns[0].RefundAmount.String())
		assert.Equal(t, "3.10", returns[0].GSTReversed.String())
		assert.Equal(t, line.BatchID, returns[0].BatchID)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = repo.LockLine(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		ghost := &sales.SaleLine{BaseEntity: shared.NewBaseEntity()}
		assert.ErrorIs(t, repo.SaveLine(ctx, ghost), shared.ErrNotFound)
	})
}
