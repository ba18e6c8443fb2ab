// Package core provides money parsing and handling utilities.
//
// Amounts are kept as signed integer cents. Every amount carries two decimal
// places regardless of the currency's own minor unit, so conversions and
// balances round to the cent.
package core

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// ParseAmount converts a user supplied decimal string to a positive Money.
//
// Both dot (12.34) and comma (12,34) separators are accepted. The value is
// rounded half away from zero to two places. Signs, zero and non-numeric
// input are rejected with ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,345") -> 1235 cents
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	// decimal accepts exponents; plain digits only for user input
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Money{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m, err := FromDecimal(d)
	if err != nil {
		return Money{}, err
	}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// FromDecimal rounds d to cents.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThan(decimal.NewFromInt(1<<53)) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// MustAmount parses a decimal literal and panics on failure. Intended for
// tests and constants.
func MustAmount(s string) Money {
	d := decimal.RequireFromString(s)
	m, err := FromDecimal(d)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return decimal.New(m.Cents, -2) }

func (m Money) Add(n Money) Money        { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money        { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money               { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool             { return m.Cents == 0 }
func (m Money) IsNegative() bool         { return m.Cents < 0 }
func (m Money) GreaterThan(n Money) bool { return m.Cents > n.Cents }

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the plain two-place value, e.g. "-90.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders m with the currency's symbol and grouping, e.g. "€90.00".
// Unknown codes fall back to "<amount> <code>".
func (m Money) Format(code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return fmt.Sprintf("%s %s", m.String(), code)
	}
	// go-money formats integers in the currency's minor unit
	minor := m.Decimal().Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// ValidateCurrency checks code against the ISO 4217 table.
func ValidateCurrency(code string) error {
	if len(code) != 3 || strings.ToUpper(code) != code || money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

// NormalizeCurrency upper-cases and trims a user supplied code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
