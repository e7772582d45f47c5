package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func newLine(t *testing.T, qty int64, price string, gst int64) (*Sale, *SaleLine) {
	t.Helper()
	sale := NewSale(nil, "Walk-in", "pharmacist")
	line, err := sale.AddLine(NewSaleLineInput{
		ItemID:      uuid.New(),
		BatchID:     uuid.New(),
		ItemName:    "Amoxicillin 250",
		BatchNumber: "AMX-01",
		Quantity:    qty,
		UnitPrice:   valueobject.MustMoney(price),
		GSTPercent:  decimal.NewFromInt(gst),
	})
	require.NoError(t, err)
	return sale, line
}

func TestSale_AddLine(t *testing.T) {
	sale, line := newLine(t, 10, "2.35", 12)
	assert.Equal(t, "23.50", line.Amount.String())
	assert.Equal(t, "23.50", sale.TotalAmount.String())
	assert.Equal(t, sale.ID, line.SaleID)

	_, err := sale.AddLine(NewSaleLineInput{BatchID: uuid.Nil, Quantity: 1})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = sale.AddLine(NewSaleLineInput{BatchID: uuid.New(), Quantity: 0})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestSaleLine_RegisterReturn(t *testing.T) {
	_, line := newLine(t, 10, "2.00", 12)

	require.NoError(t, line.RegisterReturn(4))
	require.NoError(t, line.RegisterReturn(6))
	assert.Equal(t, int64(0), line.ReturnableQuantity())

	err := line.RegisterReturn(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrOverReturn)

	var over *shared.OverReturnError
	require.ErrorAs(t, err, &over)
	assert.Equal(t, int64(10), over.Sold)
	assert.Equal(t, int64(10), over.AlreadyReturned)
	assert.Equal(t, int64(10), line.ReturnedQuantity)
}

func TestNewSaleReturn(t *testing.T) {
	t.Run("prices at sale-time unit price and gst", func(t *testing.T) {
		_, line := newLine(t, 10, "2.35", 12)
		ret, err := NewSaleReturn(line, 3, "adverse reaction", "pharmacist")
		require.NoError(t, err)
		assert.Equal(t, "7.05", ret.RefundAmount.String())
		assert.Equal(t, "0.85", ret.GSTReversed.String())
		assert.Equal(t, "7.90", ret.TotalRefund().String())
		assert.Equal(t, line.BatchID, ret.BatchID)
		assert.Equal(t, int64(3), line.ReturnedQuantity)
	})

	t.Run("over-return leaves the line untouched", func(t *testing.T) {
		_, line := newLine(t, 2, "1.00", 0)
		_, err := NewSaleReturn(line, 3, "", "")
		assert.ErrorIs(t, err, shared.ErrOverReturn)
		assert.Equal(t, int64(0), line.ReturnedQuantity)
	})
}
