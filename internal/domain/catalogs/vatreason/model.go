// Package vatreason provides the coded legal justifications required on
// zero-rate lines of tax-bearing documents.
package vatreason

import (
	"context"

	"fakturo/internal/core/id"
)

// Reason is a legal ground for charging 0% VAT, e.g. an intra-community
// supply or an export outside the EU.
type Reason struct {
	ID id.ID `db:"id" json:"id"`

	// Code is the short legal reference printed on documents
	// (e.g. the VAT act article).
	Code string `db:"code" json:"code"`

	Description string `db:"description" json:"description"`
}

// Repository resolves exemption reason references.
type Repository interface {
	GetByID(ctx context.Context, reasonID id.ID) (*Reason, error)
}
