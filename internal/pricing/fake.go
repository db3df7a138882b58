package pricing

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
	"github.com/shopspring/decimal"
)

const FakeProviderName = "fake"

var _ Client = (*Fake)(nil)

// Fake is a deterministic in-process Client. QueryFn overrides the default
// pricing; without it every route gets a stable price between 100 and 599
// derived from the route and dates.
type Fake struct {
	QueryFn func(ctx context.Context, q Query) (*domain.PriceQuote, error)

	mu    sync.Mutex
	calls []Query
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Name() string { return FakeProviderName }

func (f *Fake) QueryPrice(ctx context.Context, q Query) (*domain.PriceQuote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()

	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, unavailable(0, "query canceled", err)
	}
	if f.QueryFn != nil {
		return f.QueryFn(ctx, q)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(q.Route() + q.DepartureDate.Format(dateLayout)))
	if q.ReturnDate != nil {
		_, _ = h.Write([]byte(q.ReturnDate.Format(dateLayout)))
	}

	currency := q.Currency
	if currency == "" {
		currency = "USD"
	}

	return &domain.PriceQuote{
		Price:    decimal.NewFromInt(int64(100 + h.Sum32()%500)),
		Currency: currency,
		Provider: FakeProviderName,
		Details:  domain.FareDetails{FareID: "fake-1"},
	}, nil
}

// Calls returns the queries received so far.
func (f *Fake) Calls() []Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Query, len(f.calls))
	copy(out, f.calls)
	return out
}
