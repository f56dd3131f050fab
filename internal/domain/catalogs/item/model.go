// Package item provides the catalog items (goods and services)
// referenced by document lines.
package item

import (
	"context"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/types"
)

// Item is a sellable good or service.
type Item struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	Name string `db:"name" json:"name"`
	Unit string `db:"unit" json:"unit"`

	// DefaultPrice pre-fills the unit price on new lines; the line
	// keeps its own copy so later catalog edits do not rewrite history.
	DefaultPrice types.Money `db:"default_price" json:"defaultPrice"`

	// DefaultVATRate is the usual VAT percentage for the item.
	DefaultVATRate types.Money `db:"default_vat_rate" json:"defaultVatRate"`
}

// Repository resolves catalog item references.
type Repository interface {
	GetByID(ctx context.Context, itemID id.ID) (*Item, error)
}
