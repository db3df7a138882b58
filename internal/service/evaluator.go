package service

import (
	"strings"

	"github.com/kursadbilgin/fare-alert-engine/internal/domain"
)

const payloadDateLayout = "2006-01-02"

// Evaluate decides whether quote satisfies alert's threshold and builds the
// notification payload. It matches exactly when a target price is set and
// quote.Price <= target. The payload is returned for both outcomes; callers
// only use it on a match. Evaluate has no side effects.
func Evaluate(alert *domain.Alert, quote *domain.PriceQuote) (domain.Payload, bool) {
	currency := strings.TrimSpace(quote.Currency)
	if currency == "" {
		currency = strings.TrimSpace(alert.Currency)
	}

	payload := domain.Payload{
		AlertID:   alert.ID,
		AlertName: alert.Name,
		Route:     alert.Route(),
		Price:     quote.Price.StringFixed(2),
		Currency:  strings.ToUpper(currency),
		Provider:  quote.Provider,
		Details:   quote.Details,
	}
	if alert.DepartureDate != nil {
		payload.DepartureDate = alert.DepartureDate.Format(payloadDateLayout)
	}
	if alert.ReturnDate != nil {
		payload.ReturnDate = alert.ReturnDate.Format(payloadDateLayout)
	}

	if !alert.MaxPrice.Valid {
		return payload, false
	}
	payload.TargetPrice = alert.MaxPrice.Decimal.StringFixed(2)

	return payload, quote.Price.LessThanOrEqual(alert.MaxPrice.Decimal)
}
