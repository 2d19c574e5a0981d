// Package core holds the domain model of the ledger engine: accounts,
// debts, transactions, recurring payments, fixed-point money and the
// schedule arithmetic that advances recurring payments.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point currency amount in cents. All balance
// arithmetic happens on cents; floats appear only at display edges.
type Money struct {
	Cents int64
}

// FromCents wraps a cent count.
func FromCents(cents int64) Money {
	return Money{Cents: cents}
}

// ParseAmount converts a decimal string to Money with half-up rounding
// on the third decimal place. Both dot (12.34) and comma (12,34)
// separators are accepted. Negative amounts are allowed here; callers
// that require positive magnitudes validate separately.
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %q out of range", ErrInvalidAmount, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{Cents: m.Cents - other.Cents}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Cents: -m.Cents}
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.Cents > 0
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// LessThan reports m < other.
func (m Money) LessThan(other Money) bool {
	return m.Cents < other.Cents
}

// Validate rejects non-positive amounts. Used wherever the model
// requires a positive magnitude (transaction amounts, payments).
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String formats the amount as a plain decimal, e.g. "12.34" or "-0.05".
func (m Money) String() string {
	return decimal.New(m.Cents, -2).StringFixed(2)
}

// Float returns the amount as a float64 for display purposes only.
// Use cents for calculations.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}
