package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every stored amount carries
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is an immutable fixed-point monetary amount.
// Intermediate results keep full precision; Round2 applies the storage rounding rule.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d}, nil
}

// MustMoney parses amount and panics on malformed input. Intended for constants and tests.
func MustMoney(amount string) Money {
	m, err := NewMoneyFromString(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromCents creates Money from integer minor units
func NewMoneyFromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -MoneyScale)}
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Sum adds amounts without rounding
func Sum(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a.amount)
	}
	return Money{amount: total}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Cents returns the amount in minor units after rounding
func (m Money) Cents() int64 {
	return m.Round2().amount.Shift(MoneyScale).IntPart()
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns m + other
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns m - other
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// MulInt multiplies by a whole quantity
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// MulDecimal multiplies by a decimal factor
func (m Money) MulDecimal(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// Div divides by a decimal divisor. Dividing by zero is an error.
func (m Money) Div(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("division by zero")
	}
	return Money{amount: m.amount.Div(divisor)}, nil
}

// DivInt divides by a whole count. Dividing by zero is an error.
func (m Money) DivInt(divisor int64) (Money, error) {
	return m.Div(decimal.NewFromInt(divisor))
}

// Percent returns amount × percent / 100 without rounding
func (m Money) Percent(percent decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(percent).Div(hundred)}
}

// ClampZero returns zero for negative amounts
func (m Money) ClampZero() Money {
	if m.amount.IsNegative() {
		return Zero()
	}
	return m
}

// Round2 rounds half-up to two decimal places.
// decimal.Round rounds half away from zero, which is half-up for the
// non-negative amounts the costing rules produce.
func (m Money) Round2() Money {
	return Money{amount: m.amount.Round(MoneyScale)}
}

// Equals compares amounts numerically (1.5 equals 1.50)
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThan returns m < other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThan returns m > other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// String renders the amount with two decimals
func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

// MarshalJSON renders the amount as a decimal string
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount.String())
}

// UnmarshalJSON accepts a JSON string or number
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	m.amount = d
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	m.amount = d
	return nil
}
