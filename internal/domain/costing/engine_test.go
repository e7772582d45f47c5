package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func TestEngine_Cost(t *testing.T) {
	engine := NewEngine()

	t.Run("gst rounds half up on unrounded taxable", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.Zero(),
			CourierCharge: valueobject.Zero(),
			Lines:         []LineInput{line("33.32", 1, 0, 5)},
		})
		require.NoError(t, err)
		require.Len(t, totals.Lines, 1)
		assert.Equal(t, "1.67", totals.Lines[0].GSTAmount.String())
		assert.Equal(t, "33.32", totals.Lines[0].TaxableAmount.String())
		assert.Equal(t, "34.99", totals.Lines[0].TotalAmount.String())
	})

	t.Run("two line invoice with cash discount", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.MustMoney("2045.00"),
			CourierCharge: valueobject.Zero(),
			Lines: []LineInput{
				line("17642.00", 1, 0, 5),
				line("260.00", 1, 0, 18),
			},
		})
		require.NoError(t, err)

		a, b := totals.Lines[0], totals.Lines[1]
		assert.Equal(t, "2015.30", a.AllocatedCashDiscount.String())
		assert.Equal(t, "15626.70", a.TaxableAmount.String())
		assert.Equal(t, "781.34", a.GSTAmount.String())
		assert.Equal(t, "16408.04", a.TotalAmount.String())

		assert.Equal(t, "29.70", b.AllocatedCashDiscount.String())
		assert.Equal(t, "230.30", b.TaxableAmount.String())
		assert.Equal(t, "41.45", b.GSTAmount.String())
		assert.Equal(t, "271.75", b.TotalAmount.String())

		assert.Equal(t, "16679.79", totals.TotalAmount.String())
		assert.True(t, totals.TotalAmount.Equals(a.TotalAmount.Add(b.TotalAmount)))
		assert.True(t, a.AllocatedCashDiscount.Add(b.AllocatedCashDiscount).Equals(totals.CashDiscount))
	})

	t.Run("courier is added to the total", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.Zero(),
			CourierCharge: valueobject.MustMoney("45.50"),
			Lines:         []LineInput{line("100", 2, 10, 12)},
		})
		require.NoError(t, err)
		// 180.00 taxable + 21.60 gst + 45.50 courier
		assert.Equal(t, "247.10", totals.TotalAmount.String())
		assert.Equal(t, "180.00", totals.TaxableAmount.String())
		assert.Equal(t, "21.60", totals.GSTAmount.String())
	})

	t.Run("zero lines total zero", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.MustMoney("100"),
			CourierCharge: valueobject.Zero(),
		})
		require.NoError(t, err)
		assert.Empty(t, totals.Lines)
		assert.True(t, totals.TotalAmount.IsZero())
	})

	t.Run("zero taxable pool", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.MustMoney("250"),
			CourierCharge: valueobject.Zero(),
			Lines: []LineInput{
				line("0", 5, 0, 5),
				line("0", 2, 0, 12),
			},
		})
		require.NoError(t, err)
		for _, lt := range totals.Lines {
			assert.True(t, lt.AllocatedCashDiscount.IsZero())
			assert.True(t, lt.TotalAmount.IsZero())
		}
		assert.True(t, totals.TotalAmount.IsZero())
	})

	t.Run("discount larger than taxable clamps at zero", func(t *testing.T) {
		totals, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.MustMoney("15"),
			CourierCharge: valueobject.Zero(),
			Lines:         []LineInput{line("10", 1, 0, 18)},
		})
		require.NoError(t, err)
		lt := totals.Lines[0]
		assert.Equal(t, "15.00", lt.AllocatedCashDiscount.String())
		assert.True(t, lt.TaxableAmount.IsZero())
		assert.True(t, lt.GSTAmount.IsZero())
		assert.True(t, totals.TotalAmount.IsZero())
	})

	t.Run("invalid line rejects the whole invoice", func(t *testing.T) {
		_, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.Zero(),
			CourierCharge: valueobject.Zero(),
			Lines:         []LineInput{line("10", 1, 0, 5), line("10", -2, 0, 5)},
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("negative courier", func(t *testing.T) {
		_, err := engine.Cost(InvoiceInput{
			CashDiscount:  valueobject.Zero(),
			CourierCharge: valueobject.MustMoney("-1"),
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestEngine_TotalsReconcile(t *testing.T) {
	engine := NewEngine()
	lines := make([]LineInput, 0, 25)
	for i := 1; i <= 25; i++ {
		lines = append(lines, line(valueobject.NewMoneyFromCents(int64(i*1337)).String(), int64(i%4+1), int64(i%3*5), int64([]int{0, 5, 12, 18}[i%4])))
	}
	totals, err := engine.Cost(InvoiceInput{
		CashDiscount:  valueobject.MustMoney("123.45"),
		CourierCharge: valueobject.MustMoney("60"),
		Lines:         lines,
	})
	require.NoError(t, err)

	allocated := valueobject.Zero()
	lineSum := valueobject.Zero()
	for _, lt := range totals.Lines {
		allocated = allocated.Add(lt.AllocatedCashDiscount)
		lineSum = lineSum.Add(lt.TotalAmount)
	}
	assert.True(t, allocated.Equals(valueobject.MustMoney("123.45")))
	assert.True(t, totals.TotalAmount.Equals(lineSum.Add(valueobject.MustMoney("60"))))
}
