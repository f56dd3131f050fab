// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept on stored
// monetary amounts. Matches Postgres NUMERIC(15,2) columns.
const MoneyScale int32 = 2

// NewMoneyFromString creates a Money value from a string.
// This is the preferred constructor for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundMoney rounds to MoneyScale fractional digits, half away from
// zero. All persisted amounts pass through this.
func RoundMoney(m Money) Money {
	return m.Round(MoneyScale)
}

// One is the identity exchange rate (document currency == base currency).
func One() Money {
	return decimal.NewFromInt(1)
}
