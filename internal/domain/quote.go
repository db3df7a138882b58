package domain

import "github.com/shopspring/decimal"

// FareDetails is opaque provider data kept for payload enrichment.
type FareDetails struct {
	FareID            string `json:"fareId,omitempty"`
	ValidatingCarrier string `json:"validatingCarrier,omitempty"`
	LastTicketingDate string `json:"lastTicketingDate,omitempty"`
}

// PriceQuote is the normalized lowest price a provider found for a query.
type PriceQuote struct {
	Price    decimal.Decimal
	Currency string
	Provider string
	Details  FareDetails
}
