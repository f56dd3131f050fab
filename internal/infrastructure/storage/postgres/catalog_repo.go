package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/id"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/catalogs/client"
	"fakturo/internal/domain/catalogs/currency"
	"fakturo/internal/domain/catalogs/item"
	"fakturo/internal/domain/catalogs/vatreason"
)

// Lookup repositories for the catalogs the engine resolves references
// against. Full CRUD for these entities lives outside the engine.

func catalogBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func catalogGet[T any](ctx context.Context, txManager *TxManager, table string, columns []string, where squirrel.Eq, entity string, ref any) (*T, error) {
	q := catalogBuilder().
		Select(columns...).
		From(table).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var out T
	querier := txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &out, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(entity, ref)
		}
		return nil, apperror.NewResource("get "+entity, err)
	}
	return &out, nil
}

// --- Clients ---

// ClientRepo implements client.Repository.
type ClientRepo struct {
	txManager *TxManager
}

// NewClientRepo creates a client lookup repository.
func NewClientRepo(txManager *TxManager) *ClientRepo {
	return &ClientRepo{txManager: txManager}
}

var _ client.Repository = (*ClientRepo)(nil)

var clientColumns = []string{"id", "tenant_id", "name", "vat_number", "eik", "address", "city", "country"}

// GetByID implements client.Repository.
func (r *ClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	return catalogGet[client.Client](ctx, r.txManager, "clients", clientColumns,
		squirrel.Eq{"id": clientID}, "client", clientID)
}

// --- Currencies ---

// CurrencyRepo implements currency.Repository and currency.RateSource.
type CurrencyRepo struct {
	txManager *TxManager
}

// NewCurrencyRepo creates a currency lookup repository.
func NewCurrencyRepo(txManager *TxManager) *CurrencyRepo {
	return &CurrencyRepo{txManager: txManager}
}

var (
	_ currency.Repository = (*CurrencyRepo)(nil)
	_ currency.RateSource = (*CurrencyRepo)(nil)
)

var currencyColumns = []string{"code", "name", "decimal_places", "is_base"}

// GetByCode implements currency.Repository.
func (r *CurrencyRepo) GetByCode(ctx context.Context, code string) (*currency.Currency, error) {
	return catalogGet[currency.Currency](ctx, r.txManager, "currencies", currencyColumns,
		squirrel.Eq{"code": code}, "currency", code)
}

// Base implements currency.Repository.
func (r *CurrencyRepo) Base(ctx context.Context) (*currency.Currency, error) {
	return catalogGet[currency.Currency](ctx, r.txManager, "currencies", currencyColumns,
		squirrel.Eq{"is_base": true}, "base currency", "is_base")
}

// Rate implements currency.RateSource. Returns the latest published
// rate on or before the requested date; none at all is a not-found.
func (r *CurrencyRepo) Rate(ctx context.Context, code string, on time.Time) (types.Money, error) {
	q := catalogBuilder().
		Select("rate").
		From("exchange_rates").
		Where(squirrel.Eq{"currency_code": code}).
		Where(squirrel.LtOrEq{"rate_date": on}).
		OrderBy("rate_date DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build select: %w", err)
	}

	var rate types.Money
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rate, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return types.Zero(), apperror.NewNotFound("exchange rate", code).
				WithDetail("date", on.Format(time.DateOnly))
		}
		return types.Zero(), apperror.NewResource("get exchange rate", err)
	}
	return rate, nil
}

// --- Catalog items ---

// ItemRepo implements item.Repository.
type ItemRepo struct {
	txManager *TxManager
}

// NewItemRepo creates an item lookup repository.
func NewItemRepo(txManager *TxManager) *ItemRepo {
	return &ItemRepo{txManager: txManager}
}

var _ item.Repository = (*ItemRepo)(nil)

var itemColumns = []string{"id", "tenant_id", "name", "unit", "default_price", "default_vat_rate"}

// GetByID implements item.Repository.
func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	return catalogGet[item.Item](ctx, r.txManager, "items", itemColumns,
		squirrel.Eq{"id": itemID}, "item", itemID)
}

// --- VAT exemption reasons ---

// VATReasonRepo implements vatreason.Repository.
type VATReasonRepo struct {
	txManager *TxManager
}

// NewVATReasonRepo creates an exemption reason lookup repository.
func NewVATReasonRepo(txManager *TxManager) *VATReasonRepo {
	return &VATReasonRepo{txManager: txManager}
}

var _ vatreason.Repository = (*VATReasonRepo)(nil)

var vatReasonColumns = []string{"id", "code", "description"}

// GetByID implements vatreason.Repository.
func (r *VATReasonRepo) GetByID(ctx context.Context, reasonID id.ID) (*vatreason.Reason, error) {
	return catalogGet[vatreason.Reason](ctx, r.txManager, "vat_exemption_reasons", vatReasonColumns,
		squirrel.Eq{"id": reasonID}, "VAT exemption reason", reasonID)
}
