// Package money implements the fixed-point amount type used for balances and
// transaction amounts. Values carry exactly two fractional digits and are
// bounded by the NUMERIC(15,2) column they are stored in.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits an amount may carry.
const Scale = 2

var (
	ErrInvalidAmount    = errors.New("invalid amount format")
	ErrAmountOutOfRange = errors.New("amount out of range")
)

// maxMagnitude is the largest absolute value a Money may hold.
var maxMagnitude = decimal.RequireFromString("9999999999999.99")

const (
	// maxIntegerDigits is the number of digits left of the point in maxMagnitude.
	maxIntegerDigits = 13
	// maxInputLen bounds the text Parse will look at.
	maxInputLen = 40
)

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

// Zero returns 0.00.
func Zero() Money {
	return Money{}
}

// FromCents builds an amount from an integer number of minor units.
func FromCents(cents int64) (Money, error) {
	return fromDecimal(decimal.New(cents, -Scale))
}

// MustParse is Parse for constants and tests; it panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("money: MustParse(%q): %v", s, err))
	}
	return m
}

// Parse reads a decimal string such as "100", "100.5" or "100.50".
// Inputs with more than two fractional digits are rejected rather than rounded.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > maxInputLen {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}

	// Bound the exponent before anything rescales d: "1e50000000" is short
	// text but expands to fifty million digits.
	if d.Sign() == 0 {
		return Money{}, nil
	}
	switch exp := d.Exponent(); {
	case exp > maxIntegerDigits:
		return Money{}, ErrAmountOutOfRange
	case exp < -(maxInputLen + Scale):
		// The coefficient has at most maxInputLen digits, so the value is
		// non-zero below the second fractional digit.
		return Money{}, ErrInvalidAmount
	}

	if !d.Equal(d.Truncate(Scale)) {
		return Money{}, ErrInvalidAmount
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.Abs().GreaterThan(maxMagnitude) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{d: d.Truncate(Scale)}, nil
}

// Add returns m+o, failing with ErrAmountOutOfRange instead of overflowing.
func (m Money) Add(o Money) (Money, error) {
	return fromDecimal(m.d.Add(o.d))
}

// Sub returns m-o, failing with ErrAmountOutOfRange instead of overflowing.
func (m Money) Sub(o Money) (Money, error) {
	return fromDecimal(m.d.Sub(o.d))
}

// Neg returns -m. The range is symmetric so negation cannot overflow.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	return m.d.Cmp(o.d)
}

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }
func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }
func (m Money) IsPositive() bool { return m.d.IsPositive() }
func (m Money) IsNegative() bool { return m.d.IsNegative() }
func (m Money) IsZero() bool { return m.d.IsZero() }
func (m Money) Decimal() decimal.Decimal { return m.d }

// String renders the amount with exactly two fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a string to keep it exact on the wire.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (m *Money) Scan(src interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("money: scan: %w", err)
	}
	parsed, err := fromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
