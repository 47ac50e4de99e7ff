// Package money represents amounts as integer minor currency units.
//
// All ledger arithmetic happens on Amount, so the zero-sum invariant holds
// exactly. Decimal strings only appear at the API boundary, where Parse and
// Amount.String convert with github.com/shopspring/decimal.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits carried by an Amount.
const Scale = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than 2 fractional digits")
)

// Amount is a value in minor units (cents). 12.34 is Amount(1234).
type Amount int64

// Zero is the empty amount.
const Zero Amount = 0

// Max bounds a single share, total or balance. Keeping every stored value
// below it leaves room to add thousands of them without overflow.
const Max Amount = 100_000_000_000_000

// MaxTerms is how many amounts of magnitude at most Max can be added
// without overflowing int64.
const MaxTerms = maxInt64 / int64(Max)

// Parse converts a decimal string such as "12.5" or "-3.07" to an Amount.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromDecimal(d)
}

// FromDecimal converts d to minor units. It fails rather than rounds when d
// cannot be represented exactly.
func FromDecimal(d decimal.Decimal) (Amount, error) {
	if !d.Equal(d.Truncate(Scale)) {
		return 0, fmt.Errorf("%w: %s", ErrTooPrecise, d.String())
	}
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() || shifted.GreaterThan(decimal.NewFromInt(maxInt64)) ||
		shifted.LessThan(decimal.NewFromInt(-maxInt64)) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Amount(shifted.IntPart()), nil
}

const maxInt64 = 1<<63 - 1

// Decimal returns a as a decimal value in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String formats a with exactly two fractional digits.
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Abs returns the absolute value of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
