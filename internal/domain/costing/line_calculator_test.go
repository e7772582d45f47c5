package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func line(rate string, qty int64, trade, gst int64) LineInput {
	return LineInput{
		Rate:                 valueobject.MustMoney(rate),
		Quantity:             qty,
		TradeDiscountPercent: decimal.NewFromInt(trade),
		GSTPercent:           decimal.NewFromInt(gst),
	}
}

func TestBaseTaxable(t *testing.T) {
	tests := []struct {
		name string
		in   LineInput
		want string
	}{
		{"no trade discount", line("17642.00", 1, 0, 5), "17642.00"},
		{"quantity multiplies", line("12.50", 10, 0, 12), "125.00"},
		{"trade discount", line("99.99", 3, 10, 12), "269.97"},
		{"rounds half up", line("0.35", 3, 50, 0), "0.53"},
		{"full trade discount", line("50", 2, 100, 5), "0.00"},
		{"zero rate", line("0", 4, 0, 5), "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BaseTaxable(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestBaseTaxable_FreeQuantityNotBilled(t *testing.T) {
	in := line("10", 5, 0, 5)
	in.FreeQuantity = 2
	got, err := BaseTaxable(in)
	require.NoError(t, err)
	assert.Equal(t, "50.00", got.String())
}

func TestBaseTaxable_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    LineInput
		field string
	}{
		{"negative rate", line("-1", 1, 0, 5), "rate"},
		{"negative quantity", line("1", -1, 0, 5), "quantity"},
		{"trade above 100", line("1", 1, 101, 5), "trade_discount_percent"},
		{"negative trade", line("1", 1, -1, 5), "trade_discount_percent"},
		{"negative gst", line("1", 1, 0, -5), "gst_percent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BaseTaxable(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrValidation)

			var vErr *shared.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestGross(t *testing.T) {
	got, err := Gross(line("99.99", 3, 10, 12))
	require.NoError(t, err)
	assert.Equal(t, "299.97", got.String())
}
