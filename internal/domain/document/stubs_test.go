package document

import (
	"context"
	"errors"
	"sync"
	"time"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/core/tx"
	"fakturo/internal/core/types"
	"fakturo/internal/domain/audit"
	"fakturo/internal/domain/catalogs/client"
	"fakturo/internal/domain/catalogs/currency"
	"fakturo/internal/domain/catalogs/item"
	"fakturo/internal/domain/catalogs/vatreason"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/domain/sequence"
)

// stubRepo is an in-memory document.Repository.
type stubRepo struct {
	mu    sync.Mutex
	docs  map[id.ID]*Document
	lines map[id.ID][]LineItem

	failCreate bool
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		docs:  make(map[id.ID]*Document),
		lines: make(map[id.ID][]LineItem),
	}
}

func cloneDoc(d *Document) *Document {
	c := *d
	c.Lines = append([]LineItem(nil), d.Lines...)
	return &c
}

func (r *stubRepo) Create(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("storage unavailable")
	}
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *stubRepo) GetByID(ctx context.Context, tenantID tenant.ID, docID id.ID) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return nil, apperror.NewNotFound("document", docID)
	}
	out := cloneDoc(doc)
	out.Lines = append([]LineItem(nil), r.lines[docID]...)
	return out, nil
}

func (r *stubRepo) GetByNumber(ctx context.Context, tenantID tenant.ID, class docclass.Class, number string) (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, doc := range r.docs {
		if doc.TenantID == tenantID && doc.Class == class && doc.Number == number {
			out := cloneDoc(doc)
			out.Lines = append([]LineItem(nil), r.lines[doc.ID]...)
			return out, nil
		}
	}
	return nil, apperror.NewNotFound("document", number)
}

func (r *stubRepo) Update(ctx context.Context, doc *Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[doc.ID]
	if !ok {
		return apperror.NewNotFound("document", doc.ID)
	}
	if existing.Version != doc.Version {
		return apperror.NewConflict("document was modified concurrently")
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, tenantID tenant.ID, docID id.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[docID]
	if !ok || doc.TenantID != tenantID {
		return apperror.NewNotFound("document", docID)
	}
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *stubRepo) GetLines(ctx context.Context, docID id.ID) ([]LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LineItem(nil), r.lines[docID]...), nil
}

func (r *stubRepo) SaveLines(ctx context.Context, docID id.ID, lines []LineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[docID] = append([]LineItem(nil), lines...)
	return nil
}

func (r *stubRepo) List(ctx context.Context, tenantID tenant.ID, filter ListFilter) ([]*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Document
	for _, doc := range r.docs {
		if doc.TenantID != tenantID {
			continue
		}
		if filter.Class != nil && doc.Class != *filter.Class {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		out = append(out, cloneDoc(doc))
	}
	return out, nil
}

// --- Catalog stubs ---

type stubClients map[id.ID]*client.Client

func (s stubClients) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	if c, ok := s[clientID]; ok {
		return c, nil
	}
	return nil, apperror.NewNotFound("client", clientID)
}

type stubItems map[id.ID]*item.Item

func (s stubItems) GetByID(ctx context.Context, itemID id.ID) (*item.Item, error) {
	if it, ok := s[itemID]; ok {
		return it, nil
	}
	return nil, apperror.NewNotFound("item", itemID)
}

type stubReasons map[id.ID]*vatreason.Reason

func (s stubReasons) GetByID(ctx context.Context, reasonID id.ID) (*vatreason.Reason, error) {
	if r, ok := s[reasonID]; ok {
		return r, nil
	}
	return nil, apperror.NewNotFound("vat exemption reason", reasonID)
}

// stubCurrencies serves BGN as base and EUR at a fixed rate.
type stubCurrencies struct{}

func (stubCurrencies) Base(ctx context.Context) (*currency.Currency, error) {
	return &currency.Currency{Code: "BGN", Name: "Bulgarian lev", DecimalPlaces: 2, IsBase: true}, nil
}

func (stubCurrencies) GetByCode(ctx context.Context, code string) (*currency.Currency, error) {
	switch code {
	case "BGN":
		return &currency.Currency{Code: "BGN", Name: "Bulgarian lev", DecimalPlaces: 2, IsBase: true}, nil
	case "EUR":
		return &currency.Currency{Code: "EUR", Name: "Euro", DecimalPlaces: 2}, nil
	}
	return nil, apperror.NewNotFound("currency", code)
}

func (stubCurrencies) Rate(ctx context.Context, code string, on time.Time) (types.Money, error) {
	if code == "EUR" {
		return types.MustMoney("1.95583"), nil
	}
	return types.Zero(), apperror.NewNotFound("exchange rate", code)
}

// datedRates serves EUR rates keyed by the requested date.
type datedRates map[string]types.Money

func (d datedRates) Rate(ctx context.Context, code string, on time.Time) (types.Money, error) {
	if rate, ok := d[on.Format(time.DateOnly)]; ok && code == "EUR" {
		return rate, nil
	}
	return types.Zero(), apperror.NewNotFound("exchange rate", code)
}

// passthroughTx runs the function without a real transaction.
var passthroughTx = tx.Func(func(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

// --- Fixture ---

type fixture struct {
	repo      *stubRepo
	store     *sequence.MemoryStore
	allocator *numbering.Allocator
	clientID  id.ID
	itemID    id.ID
	reasonID  id.ID
	composer  *Composer
}

func newFixture() *fixture {
	return newFixtureWithRates(stubCurrencies{})
}

func newFixtureWithRates(rates currency.RateSource) *fixture {
	f := &fixture{
		repo:     newStubRepo(),
		store:    sequence.NewMemoryStore(),
		clientID: id.New(),
		itemID:   id.New(),
		reasonID: id.New(),
	}
	f.allocator = numbering.New(f.store)

	clients := stubClients{f.clientID: {ID: f.clientID, TenantID: 1, Name: "Acme Ltd"}}
	items := stubItems{f.itemID: {ID: f.itemID, TenantID: 1, Name: "Consulting", Unit: "hour"}}
	reasons := stubReasons{f.reasonID: {ID: f.reasonID, Code: "Art.28", Description: "Intra-community supply"}}

	f.composer = NewComposer(
		f.repo,
		clients,
		stubCurrencies{},
		rates,
		items,
		reasons,
		f.allocator,
		passthroughTx,
		audit.Nop{},
	)
	return f
}

func (f *fixture) validInput() CreateInput {
	issue := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	vat := issue
	return CreateInput{
		ClientID:  f.clientID,
		Class:     docclass.Invoice,
		IssueDate: issue,
		DueDate:   issue.AddDate(0, 0, 14),
		VATDate:   &vat,
		Lines: []LineInput{
			{
				ItemID:    f.itemID,
				Quantity:  types.MustMoney("2"),
				UnitPrice: types.MustMoney("55.00"),
				VATRate:   types.MustMoney("20"),
			},
		},
	}
}

func (f *fixture) taxSequenceValue(t interface {
	Fatalf(format string, args ...any)
}) int64 {
	seq, err := f.store.Get(context.Background(), 1, docclass.SequenceTax)
	if err != nil {
		if apperror.IsNotFound(err) {
			return 0
		}
		t.Fatalf("sequence lookup failed: %v", err)
	}
	return seq.CurrentValue
}
