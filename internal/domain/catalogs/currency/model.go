// Package currency provides the Currency catalog and exchange rate
// resolution consumed by document composition.
package currency

import (
	"context"
	"regexp"
	"time"

	"fakturo/internal/core/types"
)

// Currency is a monetary unit documents can be issued in.
type Currency struct {
	// Code is the ISO 4217 alphabetic code (e.g. "BGN", "EUR").
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// DecimalPlaces is the number of fractional digits for display.
	DecimalPlaces int `db:"decimal_places" json:"decimalPlaces"`

	// IsBase marks the fixed accounting currency all amounts are
	// additionally converted to. Exactly one currency carries the flag.
	IsBase bool `db:"is_base" json:"isBase"`
}

var isoCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCode reports whether s is a well-formed ISO 4217 alphabetic code.
func ValidCode(s string) bool {
	return isoCodeRe.MatchString(s)
}

// Repository resolves currency references.
type Repository interface {
	// GetByCode retrieves a currency by ISO code, not-found error when absent.
	GetByCode(ctx context.Context, code string) (*Currency, error)

	// Base returns the accounting currency.
	Base(ctx context.Context) (*Currency, error)
}

// RateSource resolves exchange rates. The rate is expressed per the ECB
// convention: units of the given currency per one unit of the base
// currency. Not-found is fatal to composition when the document
// currency differs from the base currency.
type RateSource interface {
	Rate(ctx context.Context, code string, on time.Time) (types.Money, error)
}
