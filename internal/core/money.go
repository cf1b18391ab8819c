// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents; decimal arithmetic (percentages,
// thresholds, formatting) goes through shopspring/decimal so no float
// rounding leaks into business rules.
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MaxCents bounds any single parsed amount. Ledger sums over many such
// amounts stay far from the int64 limit.
const MaxCents int64 = 99_999_999_999_999

var maxCents = decimal.NewFromInt(MaxCents)

// Money is a signed amount in minor units (cents).
type Money struct {
	Cents int64
}

// Cents builds a Money value from minor units.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseAmount converts a positive decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) separators and rounds
// half-up to the nearest cent. Signs, zero and malformed input are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
//	ParseAmount("0")      -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	m, err := parseSigned(s)
	if errors.Is(err, ErrAmountOutOfRange) {
		return Money{}, err
	}
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// ParseSignedAmount is like ParseAmount but allows zero and negative values,
// e.g. an initial balance on a credit account.
func ParseSignedAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, NewError(KindInvalidInput, "amount is required")
	}
	m, err := parseSigned(s)
	if errors.Is(err, ErrAmountOutOfRange) {
		return Money{}, err
	}
	if err != nil {
		return Money{}, NewError(KindInvalidInput, "invalid amount: "+s)
	}
	return m, nil
}

func parseSigned(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return Money{}, err
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d half away from zero to whole cents. Values whose
// magnitude exceeds MaxCents return ErrAmountOutOfRange.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	c := d.Round(2).Shift(2)
	if c.Abs().GreaterThan(maxCents) {
		return Money{}, ErrAmountOutOfRange
	}
	return Money{Cents: c.IntPart()}, nil
}

// Validate rejects non-positive amounts.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }

// String formats the amount with exactly two decimals, e.g. "-12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string to avoid float loss on clients.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string ("12.34") or a JSON number (12.34).
// Sign checks are left to Validate so callers can report InvalidInput.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	parsed, err := ParseSignedAmount(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// PercentageOf returns part/whole*100 rounded to two decimals, or zero when
// whole is not positive.
func PercentageOf(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}
