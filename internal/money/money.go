// Package money provides a fixed-precision decimal amount type for
// ledger arithmetic. Amounts carry two decimal places (cents) and an
// epsilon below which a value is treated as zero, so rounding drift
// from repeated netting never survives as a stored balance.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places an amount carries.
const Scale = 2

// epsilon is half the smallest representable unit: any amount with
// magnitude at or below it is effectively zero.
var epsilon = decimal.New(5, -(Scale + 1)) // 0.005

// Money is an immutable fixed-precision amount.
type Money struct {
	d decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

// New builds an amount from an integer number of cents.
func New(cents int64) Money {
	return Money{d: decimal.New(cents, -Scale)}
}

// FromFloat converts a float to an amount, rounding half-up to cents.
func FromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f).Round(Scale)}
}

// FromDecimal converts a raw decimal to an amount, rounding half-up
// to cents.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d.Round(Scale)}
}

// Parse reads an amount from a string. Both dot and comma decimal
// separators are accepted. Anything past the second decimal place is
// rounded half-up.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d.Round(Scale)}, nil
}

// MustParse is Parse for constants in tests and fixtures; it panics on
// invalid input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{d: m.d.Add(o.d)}
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{d: m.d.Sub(o.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp compares two amounts: -1 if m < o, 0 if equal, 1 if m > o.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

// Equal reports exact equality (not epsilon-tolerant; use Sub and
// IsZeroish for tolerant comparison).
func (m Money) Equal(o Money) bool {
	return m.d.Equal(o.d)
}

// IsZeroish reports whether the amount is within epsilon of zero.
func (m Money) IsZeroish() bool {
	return m.d.Abs().Cmp(epsilon) <= 0
}

// Positive reports whether the amount is strictly greater than zero.
func (m Money) Positive() bool {
	return m.d.Sign() > 0
}

// Negative reports whether the amount is strictly less than zero.
func (m Money) Negative() bool {
	return m.d.Sign() < 0
}

// DivFloor divides the amount by n, rounding down to the cent. The
// caller is responsible for distributing the remainder; see
// ledger.Allocate.
func (m Money) DivFloor(n int) Money {
	return Money{d: m.d.DivRound(decimal.NewFromInt(int64(n)), Scale+2).RoundDown(Scale)}
}

// Mul returns m * n for an integer factor.
func (m Money) Mul(n int) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(int64(n)))}
}

// Float64 returns the amount as a float for display only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON renders the amount as a JSON string ("12.50") so no
// precision is lost on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
