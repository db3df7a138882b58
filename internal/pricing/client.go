package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

const dateLayout = "2006-01-02"

// Client queries an external source for the lowest current price of a route.
// Implementations must not mutate any persisted entity.
type Client interface {
	Name() string
	QueryPrice(ctx context.Context, q Query) (*domain.PriceQuote, error)
}

// Query is a one-passenger price lookup.
type Query struct {
	Departure     string
	Arrival       string
	DepartureDate time.Time
	ReturnDate    *time.Time
	Currency      string
}

// QueryFromAlert builds a query from an alert. A missing route or departure
// date is a validation error, not a provider error.
func QueryFromAlert(a *domain.Alert) (Query, error) {
	if err := a.ValidateForCheck(); err != nil {
		return Query{}, err
	}

	return Query{
		Departure:     strings.ToUpper(strings.TrimSpace(a.Departure)),
		Arrival:       strings.ToUpper(strings.TrimSpace(a.Arrival)),
		DepartureDate: *a.DepartureDate,
		ReturnDate:    a.ReturnDate,
		Currency:      strings.ToUpper(strings.TrimSpace(a.Currency)),
	}, nil
}

func (q Query) Validate() error {
	if q.Departure == "" || q.Arrival == "" {
		return fmt.Errorf("%w: route codes are required", domain.ErrValidation)
	}
	if q.DepartureDate.IsZero() {
		return fmt.Errorf("%w: departure date is required", domain.ErrValidation)
	}
	return nil
}

func (q Query) Route() string {
	return q.Departure + "-" + q.Arrival
}
