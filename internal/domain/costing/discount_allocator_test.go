package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hms/backend/internal/domain/shared"
	"github.com/hms/backend/internal/domain/shared/valueobject"
)

func amounts(values ...string) []valueobject.Money {
	out := make([]valueobject.Money, len(values))
	for i, v := range values {
		out[i] = valueobject.MustMoney(v)
	}
	return out
}

func asStrings(ms []valueobject.Money) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.String()
	}
	return out
}

func TestAllocateCashDiscount(t *testing.T) {
	tests := []struct {
		name     string
		bases    []valueobject.Money
		discount string
		want     []string
	}{
		{
			name:     "proportional with remainder on last line",
			bases:    amounts("17642.00", "260.00"),
			discount: "2045.00",
			want:     []string{"2015.30", "29.70"},
		},
		{
			name:     "equal thirds",
			bases:    amounts("100", "100", "100"),
			discount: "100",
			want:     []string{"33.33", "33.33", "33.34"},
		},
		{
			name:     "half-up shares can leave the last line negative",
			bases:    amounts("1.00", "1.00", "1.00", "1.00"),
			discount: "0.02",
			want:     []string{"0.01", "0.01", "0.01", "-0.01"},
		},
		{
			name:     "single line takes everything",
			bases:    amounts("10"),
			discount: "15",
			want:     []string{"15.00"},
		},
		{
			name:     "zero pool allocates nothing",
			bases:    amounts("0", "0"),
			discount: "500",
			want:     []string{"0.00", "0.00"},
		},
		{
			name:     "zero discount",
			bases:    amounts("10", "20"),
			discount: "0",
			want:     []string{"0.00", "0.00"},
		},
		{
			name:     "no lines",
			bases:    nil,
			discount: "10",
			want:     []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AllocateCashDiscount(tt.bases, valueobject.MustMoney(tt.discount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, asStrings(got))
		})
	}
}

func TestAllocateCashDiscount_OrderDecidesRemainder(t *testing.T) {
	discount := valueobject.MustMoney("0.01")

	got, err := AllocateCashDiscount(amounts("1", "2"), discount)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.00", "0.01"}, asStrings(got))

	got, err = AllocateCashDiscount(amounts("2", "1"), discount)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.01", "0.00"}, asStrings(got))
}

func TestAllocateCashDiscount_SumsExactly(t *testing.T) {
	for n := 1; n <= 40; n++ {
		bases := make([]valueobject.Money, n)
		for i := range bases {
			bases[i] = valueobject.NewMoneyFromCents(int64((i*7919)%100000 + 1))
		}
		for _, d := range []int64{1, 99, 12345, 204500, 999999} {
			discount := valueobject.NewMoneyFromCents(d)
			got, err := AllocateCashDiscount(bases, discount)
			require.NoError(t, err)
			assert.True(t, valueobject.Sum(got...).Equals(discount), "n=%d discount=%s", n, discount)
		}
	}
}

func TestAllocateCashDiscount_NegativeDiscount(t *testing.T) {
	_, err := AllocateCashDiscount(amounts("10"), valueobject.MustMoney("-1"))
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCheckAllocation(t *testing.T) {
	err := checkAllocation(amounts("1.00", "2.00"), valueobject.MustMoney("3.01"))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAllocationInvariant)
}
