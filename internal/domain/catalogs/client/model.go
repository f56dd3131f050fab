// Package client provides the Client catalog consumed by document
// composition. CRUD for clients lives outside the engine; the engine
// only resolves and validates references.
package client

import (
	"context"

	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
)

// Client is a billed counterparty.
type Client struct {
	ID       id.ID     `db:"id" json:"id"`
	TenantID tenant.ID `db:"tenant_id" json:"tenantId"`

	Name string `db:"name" json:"name"`

	// VATNumber is the EU VAT identification number, when registered.
	VATNumber *string `db:"vat_number" json:"vatNumber,omitempty"`

	// EIK is the Bulgarian unified identification code.
	EIK *string `db:"eik" json:"eik,omitempty"`

	Address string `db:"address" json:"address,omitempty"`
	City    string `db:"city" json:"city,omitempty"`
	Country string `db:"country" json:"country,omitempty"`
}

// Repository resolves client references.
type Repository interface {
	// GetByID retrieves a client by id, not-found error when absent.
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)
}
