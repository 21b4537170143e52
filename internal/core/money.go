// Package core provides the ledger domain types.
//
// Amounts are decimals with two fractional digits. Rounding to two places is
// half away from zero ("0.005" becomes "0.01", "-0.005" becomes "-0.01").
package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Limits on amount tokens. Exponents are not accepted.
const (
	MaxIntegerDigits  = 12
	MaxFractionDigits = 12
)

var plainDecimal = regexp.MustCompile(`^[+-]?([0-9]*)(?:\.([0-9]*))?$`)

// Amount is a monetary value rounded to cents.
type Amount struct {
	d decimal.Decimal
}

// ParseAmount converts a decimal string to an Amount rounded to two places.
//
// Examples:
//
//	ParseAmount("12.5")   -> 12.50
//	ParseAmount("3.145")  -> 3.15
//	ParseAmount("-2")     -> -2.00
//	ParseAmount("1e3")    -> error
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty amount", ErrValidation)
	}
	m := plainDecimal.FindStringSubmatch(s)
	if m == nil || m[1]+m[2] == "" {
		return Amount{}, fmt.Errorf("%w: amount %q is not a number", ErrValidation, s)
	}
	if len(strings.TrimLeft(m[1], "0")) > MaxIntegerDigits || len(m[2]) > MaxFractionDigits {
		return Amount{}, fmt.Errorf("%w: amount %q is too large", ErrValidation, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: amount %q is not a number", ErrValidation, s)
	}
	return Amount{d: d.Round(2)}, nil
}

// MustAmount is ParseAmount for literals; it panics on invalid input.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Cmp compares a and b like decimal.Decimal.Cmp.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Float64 returns an approximation for display purposes such as charts.
func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(2)
}

// Dollars renders the amount prefixed with a dollar sign.
func (a Amount) Dollars() string {
	return "$" + a.String()
}
